package rom

import (
	"encoding/binary"
	"testing"

	"github.com/marmos91/vnvheap/internal/nra"
	"github.com/marmos91/vnvheap/internal/omp"
	"github.com/marmos91/vnvheap/internal/ramalloc"
	"github.com/marmos91/vnvheap/storage"
)

// u64Codec round-trips a plain uint64 value, standing in for the
// encoding/binary-based codec the root package would generate for any
// fixed-size T.
var u64Codec = Codec{
	Size:  8,
	Align: 8,
	Encode: func(dst []byte, value any) {
		binary.NativeEndian.PutUint64(dst, value.(uint64))
	},
	Decode: func(src []byte) any {
		return binary.NativeEndian.Uint64(src)
	},
}

func newTestManager(t *testing.T, ramSize, nvSize, maxDirty uint64) *Manager {
	t.Helper()
	buf := make([]byte, ramSize)
	ram := ramalloc.NewFirstFit(buf)
	drv := storage.NewMemory(nvSize)
	nraAlloc, err := nra.NewBuddy(0, nvSize, drv)
	if err != nil {
		t.Fatalf("NewBuddy: %v", err)
	}
	mgr, err := NewManager(ram, maxDirty, omp.NewClock(), nraAlloc, drv, nil)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	return mgr
}

func TestAllocateThenGetSharedRoundTrips(t *testing.T) {
	mgr := newTestManager(t, 4096, 4096, 4096)

	id, err := mgr.Allocate(u64Codec, uint64(42))
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}

	v, err := mgr.AcquireShared(id, u64Codec)
	if err != nil {
		t.Fatalf("AcquireShared: %v", err)
	}
	if v.(uint64) != 42 {
		t.Fatalf("got %v, want 42", v)
	}
	mgr.ReleaseShared(id)
}

func TestAcquireExclusiveConflictsWithShared(t *testing.T) {
	mgr := newTestManager(t, 4096, 4096, 4096)

	id, err := mgr.Allocate(u64Codec, uint64(1))
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}

	if _, err := mgr.AcquireShared(id, u64Codec); err != nil {
		t.Fatalf("AcquireShared: %v", err)
	}
	if _, err := mgr.AcquireExclusive(id, u64Codec); err != ErrGuardConflict {
		t.Fatalf("AcquireExclusive with shared outstanding: got %v, want ErrGuardConflict", err)
	}
	mgr.ReleaseShared(id)

	if _, err := mgr.AcquireExclusive(id, u64Codec); err != nil {
		t.Fatalf("AcquireExclusive after release: %v", err)
	}
	if _, err := mgr.AcquireShared(id, u64Codec); err != ErrGuardConflict {
		t.Fatalf("AcquireShared with exclusive outstanding: got %v, want ErrGuardConflict", err)
	}
}

func TestEvictAndReloadSurvivesAcrossResidency(t *testing.T) {
	mgr := newTestManager(t, 4096, 4096, 4096)

	id, err := mgr.Allocate(u64Codec, uint64(7))
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}

	v, err := mgr.AcquireExclusive(id, u64Codec)
	if err != nil {
		t.Fatalf("AcquireExclusive: %v", err)
	}
	_ = v
	mgr.values[id] = uint64(99)
	mgr.ReleaseExclusive(id)

	h := mgr.residents.find(id)
	if h == nil {
		t.Fatalf("object not resident after acquire/release")
	}
	if _, err := mgr.unloadHeader(h); err != nil {
		t.Fatalf("unloadHeader: %v", err)
	}
	if mgr.residents.find(id) != nil {
		t.Fatalf("object still resident after unload")
	}

	v, err = mgr.AcquireShared(id, u64Codec)
	if err != nil {
		t.Fatalf("AcquireShared after reload: %v", err)
	}
	if v.(uint64) != 99 {
		t.Fatalf("got %v after reload, want 99 (synced before eviction)", v)
	}
	mgr.ReleaseShared(id)
}

func TestDropRequiresResidencyAndFreesSlot(t *testing.T) {
	mgr := newTestManager(t, 4096, 4096, 4096)

	var destructed int
	id, err := mgr.Allocate(u64Codec, uint64(3))
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}

	h := mgr.residents.find(id)
	if _, err := mgr.unloadHeader(h); err != nil {
		t.Fatalf("unloadHeader: %v", err)
	}

	if err := mgr.Drop(id, u64Codec, func(any) { destructed++ }); err != nil {
		t.Fatalf("Drop: %v", err)
	}
	if destructed != 1 {
		t.Fatalf("destructed %d times, want exactly once", destructed)
	}
	if _, ok := mgr.values[id]; ok {
		t.Fatalf("value still tracked after drop")
	}
}

func TestDropFailsWhileGuardOpen(t *testing.T) {
	mgr := newTestManager(t, 4096, 4096, 4096)

	id, err := mgr.Allocate(u64Codec, uint64(5))
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	if _, err := mgr.AcquireShared(id, u64Codec); err != nil {
		t.Fatalf("AcquireShared: %v", err)
	}

	if err := mgr.Drop(id, u64Codec, nil); err != ErrStillReachable {
		t.Fatalf("Drop while guard open: got %v, want ErrStillReachable", err)
	}
}

func TestTryPersistAllSyncsDirtyObjects(t *testing.T) {
	mgr := newTestManager(t, 4096, 4096, 4096)

	id, err := mgr.Allocate(u64Codec, uint64(1))
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	if _, err := mgr.AcquireExclusive(id, u64Codec); err != nil {
		t.Fatalf("AcquireExclusive: %v", err)
	}
	mgr.values[id] = uint64(123)
	mgr.ReleaseExclusive(id)

	h := mgr.residents.find(id)
	if !h.isDataDirty() {
		t.Fatalf("expected object to be dirty before persist")
	}

	ok, err := mgr.TryPersistAll()
	if !ok || err != nil {
		t.Fatalf("TryPersistAll: ok=%v err=%v", ok, err)
	}
	if h.isDataDirty() {
		t.Fatalf("object still dirty after TryPersistAll")
	}

	var buf [8]byte
	if err := mgr.drv.Read(userDataOffset(id, u64Codec.Align), buf[:]); err != nil {
		t.Fatalf("Read: %v", err)
	}
	if got := binary.NativeEndian.Uint64(buf[:]); got != 123 {
		t.Fatalf("NV holds %d, want 123", got)
	}
}

func TestExclusiveBudgetExhaustionReturnsErrDirtyBudget(t *testing.T) {
	// Exactly enough budget for two metaDirtyReserve charges plus one
	// object's worth of data-dirty bytes. 'a' is left exclusively held
	// (so the clock's modified hand must skip it, since only unused
	// candidates are eligible), meaning there is nothing the policy can
	// sync away to make room for 'b'.
	mgr := newTestManager(t, 4096, 4096, 2*metaDirtyReserve+8)

	a, err := mgr.Allocate(u64Codec, uint64(1))
	if err != nil {
		t.Fatalf("Allocate a: %v", err)
	}
	b, err := mgr.Allocate(u64Codec, uint64(2))
	if err != nil {
		t.Fatalf("Allocate b: %v", err)
	}

	if _, err := mgr.AcquireExclusive(a, u64Codec); err != nil {
		t.Fatalf("AcquireExclusive a: %v", err)
	}

	if _, err := mgr.AcquireExclusive(b, u64Codec); err == nil {
		t.Fatalf("AcquireExclusive b: expected budget exhaustion, got nil error")
	}
}
