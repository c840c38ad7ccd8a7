// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package hzrd_test

import (
	"errors"
	"testing"

	"code.hybscloud.com/atomix"
	"code.hybscloud.com/hzrd"
)

// TestDomainDefaultThreshold verifies the documented default of 10000.
func TestDomainDefaultThreshold(t *testing.T) {
	d := hzrd.NewDomain()
	defer d.Close()

	if got := d.Threshold(); got != 10000 {
		t.Fatalf("Threshold: got %d, want 10000", got)
	}
}

// TestDomainWithThreshold verifies the construction-time override.
func TestDomainWithThreshold(t *testing.T) {
	d := hzrd.NewDomain(hzrd.WithThreshold(8))
	defer d.Close()

	if got := d.Threshold(); got != 8 {
		t.Fatalf("Threshold: got %d, want 8", got)
	}
}

// TestDomainSetThresholdRejectsNonPositive checks the validation path.
func TestDomainSetThresholdRejectsNonPositive(t *testing.T) {
	d := hzrd.NewDomain()
	defer d.Close()

	if err := d.SetThreshold(0); !errors.Is(err, hzrd.ErrInvalidThreshold) {
		t.Fatalf("SetThreshold(0): got %v, want ErrInvalidThreshold", err)
	}
	if err := d.SetThreshold(-5); !errors.Is(err, hzrd.ErrInvalidThreshold) {
		t.Fatalf("SetThreshold(-5): got %v, want ErrInvalidThreshold", err)
	}
	if err := d.SetThreshold(42); err != nil {
		t.Fatalf("SetThreshold(42): got %v, want nil", err)
	}
	if got := d.Threshold(); got != 42 {
		t.Fatalf("Threshold after SetThreshold: got %d, want 42", got)
	}
}

// TestDomainAcquireReusesSlot is scenario S1: acquiring two slots from
// one thread yields a slot-list length of exactly 2; releasing both and
// acquiring again reuses one of them rather than allocating a third.
func TestDomainAcquireReusesSlot(t *testing.T) {
	d := hzrd.NewDomain()
	defer d.Close()

	s1 := d.Acquire()
	s2 := d.Acquire()

	if got := d.SlotCount(); got != 2 {
		t.Fatalf("SlotCount after two Acquire: got %d, want 2", got)
	}

	s1.Clear()
	s2.Clear()

	_ = d.Acquire()

	if got := d.SlotCount(); got != 2 {
		t.Fatalf("SlotCount after reuse: got %d, want 2 (no new slot allocated)", got)
	}
}

// TestDomainAcquireGrowsWhenAllOccupied checks the fallback allocation
// path: with every existing slot occupied, Acquire must create a new
// one rather than blocking or failing.
func TestDomainAcquireGrowsWhenAllOccupied(t *testing.T) {
	d := hzrd.NewDomain()
	defer d.Close()

	s1 := d.Acquire()
	s2 := d.Acquire()
	_ = d.Acquire() // all three now occupied

	if got := d.SlotCount(); got != 3 {
		t.Fatalf("SlotCount: got %d, want 3", got)
	}

	s1.Clear()
	s2.Clear()
}

// TestDomainThresholdScanAccounting is scenario S5: with the threshold
// configured to 8, pushing then popping 64 items on a stack retires 64
// nodes, one per successful Pop, and PendingCount must never be negative
// in between and must read 0 after Close. The deletes counter counts
// successful Pops; the test has no hook into the Domain's deleter calls
// and does not count those.
func TestDomainThresholdScanAccounting(t *testing.T) {
	var deletes atomix.Int64
	d := hzrd.NewDomain(hzrd.WithThreshold(8))
	s := hzrd.NewStack[int](d)

	const n = 64
	for i := 0; i < n; i++ {
		s.Push(i)
	}
	for i := 0; i < n; i++ {
		if _, ok := s.Pop(); !ok {
			t.Fatalf("Pop %d: got ok=false", i)
		}
		deletes.Add(1) // every Pop retires exactly one node
		if pc := d.PendingCount(); pc < 0 {
			t.Fatalf("PendingCount went negative: %d", pc)
		}
	}

	d.Close()
	if got := deletes.Load(); got != n {
		t.Fatalf("nodes retired: got %d, want %d", got, n)
	}
	if got := d.PendingCount(); got != 0 {
		t.Fatalf("PendingCount after Close: got %d, want 0", got)
	}
}
