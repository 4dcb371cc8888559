// Package omp implements the object-management policy: the pluggable
// strategy ROM consults when it needs to reclaim dirty bytes or resident
// RAM.
package omp

// Layout mirrors the size/alignment pair a caller is trying to satisfy,
// named separately from ramalloc's identical pair so this package has no
// dependency on internal/ramalloc.
type Layout struct {
	Size  uint64
	Align uint64
}

// Item is a single resident object as exposed to a Policy. ROM implements
// this over its own metadata header without granting a Policy direct
// access to resident-list internals.
type Item interface {
	// Offset is the object's NV backing offset, used by a Policy as a
	// stable identity for hand-position bookkeeping across calls.
	Offset() uint64

	// Size is the object's resident RAM footprint in bytes.
	Size() uint64

	IsDataDirty() bool
	IsMutRefActive() bool
	IsSharedRefActive() bool

	WasAccessed() bool
	SetAccessed(bool)
	WasModified() bool
	SetModified(bool)

	// SyncUserData writes the object's dirty user-data back to NV and
	// clears its dirty bit, returning the bytes of dirty budget freed.
	SyncUserData() (freedBytes uint64, err error)

	// Unload evicts the object from RAM entirely (syncing first if
	// dirty), returning the RAM bytes freed.
	Unload() (freedBytes uint64, err error)
}

// ResidentIterator walks ROM's resident list from the beginning each time
// Reset is called. A Policy is free to call Reset and re-walk as many
// times as its algorithm requires.
type ResidentIterator interface {
	Reset()
	// Next returns the next item in list order, or nil at the end.
	Next() Item
}

// Policy decides which resident objects to sync or evict when ROM cannot
// satisfy a request directly.
type Policy interface {
	// SyncDirtyData walks list and syncs dirty objects until at least
	// required bytes of dirty budget have been freed, or returns an
	// error if the policy gives up first.
	SyncDirtyData(required uint64, list ResidentIterator) error

	// UnloadObjects walks list and evicts resident objects until layout
	// can plausibly be satisfied by the RAM allocator, or returns an
	// error if the policy gives up first. ROM retries its allocation
	// once, after UnloadObjects returns; success here does not itself
	// confirm the allocation will succeed.
	UnloadObjects(layout Layout, list ResidentIterator) error

	// AccessObject and ModifyObject are called by ROM on every shared
	// and exclusive acquisition respectively, so the policy can update
	// its own per-object bookkeeping (e.g. clock bits).
	AccessObject(item Item)
	ModifyObject(item Item)
}
