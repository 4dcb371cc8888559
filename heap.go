package vnvheap

import (
	"github.com/marmos91/vnvheap/internal/nra"
	"github.com/marmos91/vnvheap/internal/omp"
	"github.com/marmos91/vnvheap/internal/pap"
	"github.com/marmos91/vnvheap/internal/ramalloc"
	"github.com/marmos91/vnvheap/internal/rom"
	"github.com/marmos91/vnvheap/storage"
)

// Heap is a live vNV-heap instance: one RAM buffer, one NV storage driver,
// and the resident object manager mediating between them. A Heap is safe
// for concurrent use by application goroutines; PersistAll (via the
// internal/pap registration made by New) is the only caller expected to
// reach in from outside normal call flow.
type Heap struct {
	rom *rom.Manager
	drv storage.Driver

	ramBase uintptr
	ramSize uint64

	persistHandler func(base uintptr, size uint64)
	papReg         *pap.Registration
}

// New constructs a Heap over drv, reserving cfg.RAMBuffer as the resident
// working set and registering the heap with the process-wide persist
// access point so a single PersistAll call anywhere in the process
// reaches it.
//
// Only one Heap may be registered with PAP at a time: there is exactly
// one process-wide PAP slot, and a second concurrently-live Heap returns
// an error here rather than silently sharing the slot.
func New(cfg Config, drv storage.Driver, opts ...Option) (*Heap, error) {
	var o heapOptions
	for _, opt := range opts {
		opt(&o)
	}

	policy := cfg.Policy
	if policy == nil {
		policy = omp.NewClock()
	}

	ram := cfg.Allocator
	if ram == nil {
		ram = ramalloc.NewBuddy(cfg.RAMBuffer)
	}

	nraLoc, err := nra.NewBuddy(0, drv.MaxSize(), drv)
	if err != nil {
		return nil, NewStorageIOError(err.Error())
	}

	mgr, err := rom.NewManager(ram, cfg.MaxDirtyBytes, policy, nraLoc, drv, o.metrics)
	if err != nil {
		return nil, translateErr(err)
	}

	h := &Heap{
		rom:            mgr,
		drv:            drv,
		ramSize:        uint64(len(cfg.RAMBuffer)),
		persistHandler: cfg.PersistHandler,
	}
	if len(cfg.RAMBuffer) > 0 {
		h.ramBase = ramBufferBase(cfg.RAMBuffer)
	}

	reg := &pap.Registration{
		Sync:           mgr,
		PersistHandler: h.persistHandler,
		BufferBase:     h.ramBase,
		BufferSize:     h.ramSize,
	}
	if err := pap.Register(reg); err != nil {
		return nil, ErrPAPAlreadyRegistered
	}
	h.papReg = reg

	return h, nil
}

// Close flushes and evicts every resident object, unregisters the heap
// from the persist access point, and releases the heap's hold on its
// storage driver — a drain-then-unregister graceful shutdown.
func (h *Heap) Close() error {
	_, err := h.rom.Shutdown()
	if h.papReg != nil {
		pap.Unregister(h.papReg)
		h.papReg = nil
	}
	if err != nil {
		return translateErr(err)
	}
	return nil
}
