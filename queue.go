// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package hzrd

import (
	"unsafe"

	"code.hybscloud.com/atomix"
	"code.hybscloud.com/spin"
)

// queueNode is one link of the FIFO queue's chain. next is atomic
// because concurrent producers race to link a new tail onto it.
type queueNode[T any] struct {
	value T
	next  atomix.Pointer[queueNode[T]]
}

// Queue is a multi-producer multi-consumer FIFO queue built on a
// [Domain]: a Michael-Scott queue with a permanent dummy head node.
//
// The zero Queue is not usable; construct one with [NewQueue].
type Queue[T comparable] struct {
	_      pad
	head   atomix.Pointer[queueNode[T]]
	_      pad
	tail   atomix.Pointer[queueNode[T]]
	_      pad
	size   atomix.Int64
	domain *Domain
}

// NewQueue creates an empty Queue backed by d. d may be shared with
// other Queue/Stack instances, or dedicated to this one.
func NewQueue[T comparable](d *Domain) *Queue[T] {
	dummy := &queueNode[T]{}
	q := &Queue[T]{domain: d}
	q.head.StoreRelease(dummy)
	q.tail.StoreRelease(dummy)
	return q
}

// Push adds v to the tail of the queue. Safe for any number of
// concurrent producers.
func (q *Queue[T]) Push(v T) {
	n := &queueNode[T]{value: v}

	slot := q.domain.Acquire()
	defer slot.Clear()

	sw := spin.Wait{}
	for {
		tail := q.tail.LoadAcquire()
		slot.Protect(unsafe.Pointer(tail))
		if q.tail.LoadAcquire() != tail {
			sw.Once()
			continue
		}

		if tail.next.CompareAndSwapAcqRel(nil, n) {
			// Best-effort: if another pusher has already advanced tail
			// past this node, the CAS fails and nothing more is needed.
			// tail only ever moves forward, by CAS.
			q.tail.CompareAndSwapAcqRel(tail, n)
			q.size.AddAcqRel(1)
			return
		}
		// tail lags behind a node another pusher linked; help advance
		// it before retrying.
		if next := tail.next.LoadAcquire(); next != nil {
			q.tail.CompareAndSwapAcqRel(tail, next)
		}
		sw.Once()
	}
}

// Pop removes and returns the value at the head of the queue. It
// reports false, leaving v untouched, if the queue was empty. Safe for
// any number of concurrent consumers.
func (q *Queue[T]) Pop() (v T, ok bool) {
	slot := q.domain.Acquire()
	defer slot.Clear()

	sw := spin.Wait{}
	for {
		head := q.head.LoadAcquire()
		slot.Protect(unsafe.Pointer(head))
		if q.head.LoadAcquire() != head {
			sw.Once()
			continue
		}

		next := head.next.LoadAcquire()
		if next == nil {
			return v, false
		}

		slot.Protect(unsafe.Pointer(next))
		if head.next.LoadAcquire() != next {
			sw.Once()
			continue
		}

		if q.head.CompareAndSwapAcqRel(head, next) {
			v = next.value
			q.domain.Retire(unsafe.Pointer(head), freeQueueNode[T])
			q.size.AddAcqRel(-1)
			return v, true
		}
		sw.Once()
	}
}

// Contains reports whether some value equal to v was observed during a
// best-effort linear scan of the queue. It provides no snapshot
// semantics: it may miss values inserted concurrently with the scan,
// and two calls racing with mutations may disagree.
func (q *Queue[T]) Contains(v T) bool {
	slotA := q.domain.Acquire()
	slotB := q.domain.Acquire()
	defer slotA.Clear()
	defer slotB.Clear()

	cur, nxt := slotA, slotB
	sw := spin.Wait{}

	var node *queueNode[T]
	for {
		node = q.head.LoadAcquire()
		cur.Protect(unsafe.Pointer(node))
		if q.head.LoadAcquire() == node {
			break
		}
		sw.Once()
	}

	for node != nil {
		if node.value == v {
			return true
		}

		var next *queueNode[T]
		for {
			next = node.next.LoadAcquire()
			if next == nil {
				return false
			}
			nxt.Protect(unsafe.Pointer(next))
			if node.next.LoadAcquire() == next {
				break
			}
			sw.Once()
		}

		cur, nxt = nxt, cur
		node = next
	}
	return false
}

// Size returns an advisory count of elements currently in the queue.
func (q *Queue[T]) Size() int {
	return int(q.size.LoadRelaxed())
}

// Empty reports whether the queue held no elements at the instant the
// current head's next link was observed.
func (q *Queue[T]) Empty() bool {
	slot := q.domain.Acquire()
	defer slot.Clear()

	sw := spin.Wait{}
	for {
		head := q.head.LoadAcquire()
		slot.Protect(unsafe.Pointer(head))
		if q.head.LoadAcquire() == head {
			return head.next.LoadAcquire() == nil
		}
		sw.Once()
	}
}

// freeQueueNode is the deleter retired queue nodes are scheduled with.
func freeQueueNode[T any](p unsafe.Pointer) {
	n := (*queueNode[T])(p)
	var zero T
	n.value = zero
	n.next.StoreRelease(nil)
}
