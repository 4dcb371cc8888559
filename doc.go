// Package vnvheap implements a virtual non-volatile heap: a process-local
// memory manager that lets a caller allocate objects whose canonical
// storage lives on a byte-addressable non-volatile medium (a memory-mapped
// file, a battery-backed region, or a plain in-memory arena for testing)
// while transparently caching a working set of them in a caller-supplied
// RAM buffer.
//
// The heap is built from four cooperating modules, each its own
// internal package: internal/ramalloc (the RAM byte allocator),
// internal/nra (the non-resident allocator, a buddy allocator over NV
// offsets), internal/rom (the resident object manager, which owns the
// RAM/NV residency state machine for every live object), and internal/omp
// (the object-management policy consulted whenever ROM needs to make
// room). internal/pap wires a single process-wide persist-all rendezvous
// on top of a Heap, for flushing every dirty object before a scheduled
// power loss.
//
// Typical use:
//
//	h, err := vnvheap.New(cfg, drv)
//	id, err := vnvheap.Allocate(h, MyStruct{})
//	g, err := vnvheap.Get(h, id)
//	value := g.Value()
//	g.Release()
package vnvheap
