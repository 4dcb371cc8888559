package ramalloc_test

import (
	"testing"

	"github.com/marmos91/vnvheap/internal/allocatortest"
	"github.com/marmos91/vnvheap/internal/ramalloc"
)

func TestBuddyConformance(t *testing.T) {
	allocatortest.RunConformanceSuite(t, func(t *testing.T, size uint64) allocatortest.Allocator {
		return ramalloc.NewBuddy(make([]byte, size))
	})
}

func TestBuddySplitsAndMerges(t *testing.T) {
	b := ramalloc.NewBuddy(make([]byte, 256))

	off1, ok := b.Alloc(32, 8)
	if !ok {
		t.Fatal("Alloc() #1 failed")
	}
	off2, ok := b.Alloc(32, 8)
	if !ok {
		t.Fatal("Alloc() #2 failed")
	}
	if off1 == off2 {
		t.Fatal("Alloc() returned the same offset twice")
	}

	b.Free(off1, 32, 8)
	b.Free(off2, 32, 8)

	if got := b.Available(); got != 256 {
		t.Fatalf("Available() after freeing everything = %d, want 256", got)
	}

	if _, ok := b.Alloc(256, 8); !ok {
		t.Fatal("buddies should have fully coalesced back into one 256-byte block")
	}
}
