package vnvheap

// Identifier is a stable handle to an object owned by a Heap: its NV
// backup-record offset plus the Heap it belongs to. It carries no data of
// its own — every operation on it round-trips through the owning Heap.
// It stays valid across eviction and reload.
type Identifier[T any] struct {
	offset uint64
	heap   *Heap
}

// Offset returns the identifier's NV backup-record offset. Exposed for
// diagnostics and for building composite on-NV structures (e.g. storing
// one object's Identifier inside another); it is not meaningful as a RAM
// address.
func (id Identifier[T]) Offset() uint64 { return id.offset }
