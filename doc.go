// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package hzrd provides a hazard-pointer reclamation domain and two
// lock-free client data structures built on it: a Michael-Scott FIFO
// queue and a Treiber LIFO stack.
//
// # Quick Start
//
// A [Domain] owns the hazard slots and the deferred-free list. Queues
// and stacks are constructed against a Domain; one Domain may back many
// containers, or each container may get its own:
//
//	d := hzrd.NewDomain()
//	defer d.Close()
//
//	q := hzrd.NewQueue[int](d)
//	q.Push(1)
//	q.Push(2)
//	v, ok := q.Pop() // v == 1, ok == true
//
//	s := hzrd.NewStack[int](d)
//	s.Push(1)
//	s.Push(2)
//	v, ok = s.Pop() // v == 2, ok == true
//
// # Why a reclamation domain
//
// Lock-free containers unlink nodes before freeing them, but another
// thread may be mid-dereference of a node at the moment it is unlinked.
// The Domain lets a reader publish "I am currently looking at this
// address" into a hazard slot before it dereferences; a scan that is
// about to free a retired node first checks every slot and skips any
// address still published. A reader obtains a slot with [Domain.Acquire];
// the protection protocol itself is described in [Slot.Protect].
//
// # Sharing a Domain
//
// Sharing one Domain across containers amortizes the cost of scans
// (fewer hazard-slot lists to walk, one shared threshold) but couples
// their retirement rates: a burst of retires on one container can
// trigger a scan that also walks through nodes retired by another.
// Using one Domain per container avoids the coupling at the cost of
// more total slots and more scans overall. Both are valid; this package
// takes no position and requires the Domain to be passed in explicitly.
//
// # Thread safety
//
// Every operation on [Domain], [Queue], and [Stack] is safe to call
// concurrently from any number of goroutines. [Queue.Push] is safe for
// any number of concurrent producers; [Queue.Pop] is safe for any
// number of concurrent consumers; the same holds for [Stack.Push] and
// [Stack.Pop]. None of the operations block: they either complete, or
// (for Pop) report that the container was empty.
//
// # Progress and threshold tuning
//
// All operations are lock-free but not wait-free: a thread can be
// starved by persistent contention, though it can never deadlock.
// [Domain.SetThreshold] controls how many retired nodes accumulate
// before a retiring thread triggers a scan. A lower threshold reclaims
// memory sooner at the cost of more frequent scans; a higher threshold
// batches more retires per scan at the cost of higher peak memory.
//
// # Dependencies
//
// This package uses [code.hybscloud.com/atomix] for atomic fields with
// explicit memory ordering and [code.hybscloud.com/spin] for CPU pause
// instructions in CAS retry loops. Its test suite additionally uses
// [code.hybscloud.com/iox] for backoff while polling for asynchronous
// reclamation to converge.
package hzrd
