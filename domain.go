// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package hzrd

import (
	"sync/atomic"
	"unsafe"

	"code.hybscloud.com/atomix"
	"code.hybscloud.com/spin"
)

// defaultThreshold is the retired-count value at which a retire triggers
// a scan, unless overridden with [WithThreshold].
const defaultThreshold = 10000

// hazardSlot is one cell of the Domain's append-only slot list.
//
// next is written only before the slot is published into the list
// (once per publish attempt), and is never mutated afterward — the list is append-only for
// the life of the Domain, so readers may walk it without synchronization
// beyond the acquire-load that reaches the first node.
//
// protected is type-erased: the Domain serves [Queue] and [Stack]
// instances of arbitrary element types from the same slot list, so it
// cannot be a typed atomix value. It is read and written with
// sync/atomic's pointer-specific primitives rather than an
// atomix.Uintptr, because the address stored here must keep its
// referent reachable for the garbage collector for as long as it is
// published — encoding it as an integer would let the collector free
// the node out from under a protecting reader.
type hazardSlot struct {
	next      *hazardSlot
	occupied  atomix.Bool
	protected unsafe.Pointer
	_         padShort
}

// Slot is a handle to an exclusively-held hazard slot, returned by
// [Domain.Acquire]. A Slot must be released with [Slot.Clear] once the
// caller is done dereferencing whatever it protected.
type Slot struct {
	slot *hazardSlot
}

// Protect publishes p as the address this slot's owner is about to
// dereference. The store is release-ordered: any thread that later
// observes this publication via an acquire-load during a scan will see
// it before it can observe a concurrent unlink of the same address.
//
// To complete the protection protocol, a caller should
// reload the shared location p came from after calling Protect and
// retry the whole sequence if the reload disagrees with p — only then
// is p guaranteed safe to dereference.
func (s *Slot) Protect(p unsafe.Pointer) {
	atomic.StorePointer(&s.slot.protected, p)
}

// Clear releases the slot back to the Domain's pool. After Clear, the
// caller must not dereference any pointer it had protected through
// this slot.
func (s *Slot) Clear() {
	atomic.StorePointer(&s.slot.protected, nil)
	s.slot.occupied.StoreRelease(false)
}

// retiredEntry is one pointer scheduled for deferred deletion.
//
// next is mutated only by the single scanner that currently owns the
// detached list (while rebuilding the survivor chain) or by a thread
// racing a CAS onto the live retiredHead — never concurrently by two
// threads, so it needs no atomic wrapper of its own.
type retiredEntry struct {
	next   *retiredEntry
	ptr    unsafe.Pointer
	delete func(unsafe.Pointer)
}

// Domain owns a set of hazard slots and a retired list of pointers
// awaiting safe deletion. One Domain may back any number of [Queue] and
// [Stack] instances; see the package doc for the sharing trade-off.
//
// The zero Domain is not usable; construct one with [NewDomain].
type Domain struct {
	_            pad
	slotHead     atomix.Pointer[hazardSlot]
	_            pad
	slotCount    atomix.Int64
	_            pad
	retiredHead  atomix.Pointer[retiredEntry]
	_            pad
	retiredCount atomix.Int64
	_            pad
	threshold    atomix.Int64
}

// DomainOption configures a Domain at construction time.
type DomainOption func(*Domain)

// WithThreshold sets the initial scan threshold. Values <= 0 are ignored
// and the default of 10000 is kept.
func WithThreshold(n int) DomainOption {
	return func(d *Domain) {
		if n > 0 {
			d.threshold.StoreRelaxed(int64(n))
		}
	}
}

// NewDomain creates a Domain ready for use.
func NewDomain(opts ...DomainOption) *Domain {
	d := &Domain{}
	d.threshold.StoreRelaxed(defaultThreshold)
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Acquire returns a handle to an exclusively-held hazard slot.
//
// Acquire first tries to claim an already-created slot that is
// currently unoccupied with a single compare-and-set on its occupied
// flag. If every existing slot is occupied, it allocates a new one and
// publishes it at the head of the slot list with a compare-and-set
// loop. Acquire never fails under normal operation.
func (d *Domain) Acquire() *Slot {
	for n := d.slotHead.LoadAcquire(); n != nil; n = n.next {
		if n.occupied.CompareAndSwapAcqRel(false, true) {
			return &Slot{slot: n}
		}
	}

	n := &hazardSlot{}
	n.occupied.StoreRelaxed(true)

	sw := spin.Wait{}
	for {
		head := d.slotHead.LoadAcquire()
		n.next = head
		if d.slotHead.CompareAndSwapAcqRel(head, n) {
			break
		}
		sw.Once()
	}
	d.slotCount.AddAcqRel(1)
	return &Slot{slot: n}
}

// Retire schedules p for deferred deletion. del is invoked with p once
// the Domain has determined no hazard slot protects it. If the retired
// count reaches the configured threshold, Retire triggers a scan before
// returning.
func (d *Domain) Retire(p unsafe.Pointer, del func(unsafe.Pointer)) {
	e := &retiredEntry{ptr: p, delete: del}

	sw := spin.Wait{}
	for {
		head := d.retiredHead.LoadAcquire()
		e.next = head
		if d.retiredHead.CompareAndSwapAcqRel(head, e) {
			break
		}
		sw.Once()
	}

	if d.retiredCount.AddAcqRel(1) >= d.threshold.LoadRelaxed() {
		d.scan()
	}
}

// scan is the Domain's bulk reclamation pass. It is invoked by the
// retiring thread when the retired count crosses the threshold.
func (d *Domain) scan() {
	count := d.retiredCount.LoadRelaxed()
	if count <= 0 {
		return
	}
	if !d.retiredCount.CompareAndSwapAcqRel(count, 0) {
		return // another thread is already scanning
	}

	var list *retiredEntry
	for {
		head := d.retiredHead.LoadAcquire()
		if d.retiredHead.CompareAndSwapAcqRel(head, nil) {
			list = head
			break
		}
	}
	if list == nil {
		return
	}

	hazardous := make(map[unsafe.Pointer]struct{})
	for n := d.slotHead.LoadAcquire(); n != nil; n = n.next {
		if p := atomic.LoadPointer(&n.protected); p != nil {
			hazardous[p] = struct{}{}
		}
	}

	freed := make(map[unsafe.Pointer]struct{})
	survivors := make(map[unsafe.Pointer]*retiredEntry)
	for n := list; n != nil; {
		next := n.next
		if _, isHazardous := hazardous[n.ptr]; isHazardous {
			if _, dup := survivors[n.ptr]; !dup {
				survivors[n.ptr] = n
			}
			// else: duplicate survivor for the same pointer, drop it —
			// never re-retire the same address twice.
		} else if _, already := freed[n.ptr]; !already {
			freed[n.ptr] = struct{}{}
			n.delete(n.ptr)
		}
		// else: this pointer was already freed earlier in this same
		// scan; drop the duplicate entry without calling delete again.
		n = next
	}

	if len(survivors) == 0 {
		return
	}

	var chain *retiredEntry
	for _, e := range survivors {
		e.next = chain
		chain = e
	}

	if d.retiredHead.CompareAndSwapAcqRel(nil, chain) {
		d.retiredCount.AddAcqRel(int64(len(survivors)))
		return
	}

	sw := spin.Wait{}
	for n := chain; n != nil; {
		next := n.next
		for {
			head := d.retiredHead.LoadAcquire()
			n.next = head
			if d.retiredHead.CompareAndSwapAcqRel(head, n) {
				break
			}
			sw.Once()
		}
		d.retiredCount.AddAcqRel(1)
		n = next
	}
}

// SetThreshold changes the scan threshold. It returns
// [ErrInvalidThreshold] if n is not positive.
func (d *Domain) SetThreshold(n int) error {
	if n <= 0 {
		return ErrInvalidThreshold
	}
	d.threshold.StoreRelaxed(int64(n))
	return nil
}

// Threshold returns the current scan threshold.
func (d *Domain) Threshold() int {
	return int(d.threshold.LoadRelaxed())
}

// SlotCount returns the number of hazard slots ever created by this
// Domain.
func (d *Domain) SlotCount() int {
	return int(d.slotCount.LoadRelaxed())
}

// PendingCount approximates the number of retired pointers awaiting a
// scan. It may transiently overcount or undercount; correctness never
// depends on its exactness.
func (d *Domain) PendingCount() int {
	c := d.retiredCount.LoadRelaxed()
	if c < 0 {
		return 0
	}
	return int(c)
}

// Close tears down the Domain: every retired pointer is freed without
// consulting hazards, then every slot is released. The caller must
// ensure no thread holds a live Slot and no container backed by this
// Domain is reachable from another goroutine when Close is called —
// behavior is undefined otherwise.
func (d *Domain) Close() {
	var list *retiredEntry
	for {
		head := d.retiredHead.LoadAcquire()
		if d.retiredHead.CompareAndSwapAcqRel(head, nil) {
			list = head
			break
		}
	}
	for n := list; n != nil; {
		next := n.next
		n.delete(n.ptr)
		n = next
	}
	d.retiredCount.StoreRelaxed(0)

	d.slotHead.StoreRelease(nil)
	d.slotCount.StoreRelaxed(0)
}
