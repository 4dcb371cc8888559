// Package allocatortest is a conformance suite shared by every
// ramalloc.Allocator implementation (FirstFit and Buddy) — one
// behavioural contract exercised against both, mirroring
// storage/storagetest. nra.Buddy has its own tests and is not run
// through this suite.
package allocatortest

import (
	"testing"
)

// Allocator is the subset of ramalloc.Allocator this suite drives. Declared locally rather than imported so the
// suite has no import-cycle risk against either concrete package.
type Allocator interface {
	Alloc(size, align uint64) (off uint64, ok bool)
	Free(off, size, align uint64)
	Reset()
	Available() uint64
}

// Factory creates a fresh Allocator over a region of the given size for
// each test.
type Factory func(t *testing.T, size uint64) Allocator

// RunConformanceSuite runs the full suite against factory.
func RunConformanceSuite(t *testing.T, factory Factory) {
	t.Helper()

	t.Run("AllocDistinctRegions", func(t *testing.T) { testAllocDistinctRegions(t, factory) })
	t.Run("AllocRespectsAlignment", func(t *testing.T) { testAllocRespectsAlignment(t, factory) })
	t.Run("ExhaustsAndFails", func(t *testing.T) { testExhaustsAndFails(t, factory) })
	t.Run("FreeAllowsReallocation", func(t *testing.T) { testFreeAllowsReallocation(t, factory) })
	t.Run("ResetReclaimsEverything", func(t *testing.T) { testResetReclaimsEverything(t, factory) })
	t.Run("CoalescesOnFree", func(t *testing.T) { testCoalescesOnFree(t, factory) })
}

func overlaps(aOff, aSize, bOff, bSize uint64) bool {
	return aOff < bOff+bSize && bOff < aOff+aSize
}

func testAllocDistinctRegions(t *testing.T, factory Factory) {
	t.Helper()
	a := factory(t, 4096)

	type region struct{ off, size uint64 }
	var got []region

	for i := 0; i < 8; i++ {
		off, ok := a.Alloc(64, 8)
		if !ok {
			t.Fatalf("Alloc() #%d failed unexpectedly", i)
		}
		for _, r := range got {
			if overlaps(off, 64, r.off, r.size) {
				t.Fatalf("Alloc() returned overlapping region %d..%d vs %d..%d", off, off+64, r.off, r.off+r.size)
			}
		}
		got = append(got, region{off, 64})
	}
}

func testAllocRespectsAlignment(t *testing.T, factory Factory) {
	t.Helper()
	a := factory(t, 4096)

	for _, align := range []uint64{8, 16, 64} {
		off, ok := a.Alloc(32, align)
		if !ok {
			t.Fatalf("Alloc(align=%d) failed unexpectedly", align)
		}
		if off%align != 0 {
			t.Fatalf("Alloc(align=%d) returned offset %d, not aligned", align, off)
		}
	}
}

func testExhaustsAndFails(t *testing.T, factory Factory) {
	t.Helper()
	a := factory(t, 256)

	var n int
	for {
		if _, ok := a.Alloc(64, 8); !ok {
			break
		}
		n++
		if n > 100 {
			t.Fatal("Alloc() never reported exhaustion")
		}
	}
	if n == 0 {
		t.Fatal("Alloc() failed on the very first call")
	}
}

func testFreeAllowsReallocation(t *testing.T, factory Factory) {
	t.Helper()
	a := factory(t, 256)

	off, ok := a.Alloc(64, 8)
	if !ok {
		t.Fatal("Alloc() failed unexpectedly")
	}
	a.Free(off, 64, 8)

	if _, ok := a.Alloc(64, 8); !ok {
		t.Fatal("Alloc() after Free() should succeed")
	}
}

func testResetReclaimsEverything(t *testing.T, factory Factory) {
	t.Helper()
	a := factory(t, 256)

	for {
		if _, ok := a.Alloc(32, 8); !ok {
			break
		}
	}
	a.Reset()

	if _, ok := a.Alloc(256-32, 8); !ok {
		t.Fatal("Alloc() after Reset() should be able to satisfy a large request again")
	}
}

func testCoalescesOnFree(t *testing.T, factory Factory) {
	t.Helper()
	a := factory(t, 256)

	before := a.Available()
	off1, ok := a.Alloc(64, 8)
	if !ok {
		t.Fatal("Alloc() #1 failed")
	}
	off2, ok := a.Alloc(64, 8)
	if !ok {
		t.Fatal("Alloc() #2 failed")
	}

	a.Free(off1, 64, 8)
	a.Free(off2, 64, 8)

	if got := a.Available(); got != before {
		t.Fatalf("Available() after freeing everything = %d, want %d", got, before)
	}
}
