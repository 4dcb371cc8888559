package vnvheap

// SharedGuard is a read-only handle on a resident object, returned by
// Get. While any SharedGuard is open, GetMut on the same Identifier
// fails with an *Error carrying the unexported guard-conflict code (its
// Code prints as "GuardConflict").
type SharedGuard[T any] struct {
	heap  *Heap
	id    Identifier[T]
	value *T
}

// Value returns the guarded object. The returned pointer must not be
// written through; GetMut exists for that.
func (g SharedGuard[T]) Value() *T { return g.value }

// Release ends the shared acquisition by decrementing the object's shared
// count. Calling Release twice, or calling it on a guard whose Heap has
// already been closed, is a caller bug that does not panic. A second
// Release of the same guard decrements the count again: it is a no-op
// only when no other SharedGuard on the object is open (the count stops
// at zero); otherwise it ends one of those guards' acquisitions.
func (g SharedGuard[T]) Release() {
	g.heap.rom.ReleaseShared(g.id.offset)
}

// ExclusiveGuard is a read-write handle on a resident object, returned by
// GetMut. While open it excludes every other SharedGuard and
// ExclusiveGuard on the same Identifier.
type ExclusiveGuard[T any] struct {
	heap  *Heap
	id    Identifier[T]
	value *T
}

// Value returns the guarded object for in-place mutation. Writes through
// the returned pointer are reflected on the next PersistAll or unload,
// and are visible to any later Get/GetMut on the same Identifier even
// before that — there is exactly one resident copy per object, so there
// is nothing to reconcile.
func (g ExclusiveGuard[T]) Value() *T { return g.value }

// MarkDirtyRange records that [rangeOffset, rangeOffset+size) within the
// object's user data has changed, for objects that opted into
// partial-dirtiness tracking. Callers of plain GetMut that never call
// this still get a correct (if coarser) sync: the whole object syncs as
// one run.
func (g ExclusiveGuard[T]) MarkDirtyRange(rangeOffset, size uint64) {
	g.heap.rom.MarkDirtyRange(g.id.offset, rangeOffset, size)
}

// Release ends the exclusive acquisition.
func (g ExclusiveGuard[T]) Release() {
	g.heap.rom.ReleaseExclusive(g.id.offset)
}
