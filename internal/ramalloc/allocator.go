// Package ramalloc provides the RAM byte allocator used by the resident
// object manager to carve resident object storage out of the caller-supplied
// RAM buffer. Both implementations operate entirely over a caller-owned
// []byte with no hidden allocation of their own, and neither keeps
// GC-visible Go pointers: everything is addressed by byte offset into the
// buffer, since resident object storage must also be reachable by plain
// integer math from internal/rom's metadata headers.
package ramalloc

// Allocator carves fixed blocks out of a single backing buffer. All offsets
// are relative to the start of that buffer, not absolute memory addresses.
//
// Implementations are not safe for concurrent use; internal/rom serializes
// every call behind the same mutex it uses for its own structural
// mutations, and PAP's interrupt-time TryLock depends on that mutex being
// the only source of contention.
type Allocator interface {
	// Alloc reserves size bytes aligned to align (a power of two) and
	// returns their offset into the backing buffer. ok is false if no
	// free block of the requested size and alignment is available.
	Alloc(size, align uint64) (off uint64, ok bool)

	// Free returns a previously allocated block to the allocator. size
	// and align must match the values passed to the Alloc call that
	// produced off.
	Free(off, size, align uint64)

	// Reset discards all outstanding allocations, returning the
	// allocator to its just-initialized state. Used by tests (and by
	// NewFirstFit to initialize itself) — never by the core heap.
	Reset()

	// Available reports a best-effort upper bound on bytes free. The core
	// heap and OMP do not consult it; the conformance tests use it to
	// check that freed blocks are reclaimed.
	Available() uint64
}
