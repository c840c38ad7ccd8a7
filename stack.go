// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package hzrd

import (
	"unsafe"

	"code.hybscloud.com/atomix"
	"code.hybscloud.com/spin"
)

// stackNode is one link of the LIFO stack's chain. next is a plain
// pointer, not atomic: it is written at push only before the node is
// published (once per CAS attempt), and never mutated afterward.
type stackNode[T any] struct {
	value T
	next  *stackNode[T]
}

// Stack is a multi-producer multi-consumer LIFO stack built on a
// [Domain]: a Treiber stack.
//
// The zero Stack is not usable; construct one with [NewStack].
type Stack[T any] struct {
	_      pad
	head   atomix.Pointer[stackNode[T]]
	_      pad
	size   atomix.Int64
	domain *Domain
}

// NewStack creates an empty Stack backed by d. d may be shared with
// other Queue/Stack instances, or dedicated to this one.
func NewStack[T any](d *Domain) *Stack[T] {
	return &Stack[T]{domain: d}
}

// Push adds v to the top of the stack. Safe for any number of
// concurrent producers. Push never dereferences the old head, so it
// needs no hazard protection.
func (s *Stack[T]) Push(v T) {
	n := &stackNode[T]{value: v}

	sw := spin.Wait{}
	for {
		head := s.head.LoadAcquire()
		n.next = head
		if s.head.CompareAndSwapAcqRel(head, n) {
			s.size.AddAcqRel(1)
			return
		}
		sw.Once()
	}
}

// Pop removes and returns the value at the top of the stack. It
// reports false, leaving v untouched, if the stack was empty. Safe for
// any number of concurrent consumers.
func (s *Stack[T]) Pop() (v T, ok bool) {
	slot := s.domain.Acquire()
	defer slot.Clear()

	sw := spin.Wait{}
	for {
		head := s.head.LoadAcquire()
		slot.Protect(unsafe.Pointer(head))
		if s.head.LoadAcquire() != head {
			sw.Once()
			continue
		}
		if head == nil {
			return v, false
		}

		next := head.next
		if s.head.CompareAndSwapAcqRel(head, next) {
			v = head.value
			s.domain.Retire(unsafe.Pointer(head), freeStackNode[T])
			s.size.AddAcqRel(-1)
			return v, true
		}
		sw.Once()
	}
}

// Size returns an advisory count of elements currently on the stack.
func (s *Stack[T]) Size() int {
	return int(s.size.LoadRelaxed())
}

// freeStackNode is the deleter retired stack nodes are scheduled with.
func freeStackNode[T any](p unsafe.Pointer) {
	n := (*stackNode[T])(p)
	var zero T
	n.value = zero
	n.next = nil
}
