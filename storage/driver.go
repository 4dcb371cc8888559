// Package storage defines the NV storage driver contract and ships three
// reference implementations. The concrete NV-storage backend is deliberately
// decoupled from the core heap — this package exists so the core has
// something real to drive in tests, benchmarks, and the demo CLI, behind a
// swappable backend interface with memory/filesystem/mmap implementations.
package storage

import "errors"

// ErrOutOfRange is returned by Read/Write when the requested region falls
// outside [0, MaxSize()).
var ErrOutOfRange = errors.New("storage: offset/length out of range")

// Driver is a byte-addressable non-volatile storage backend.
//
// Read and Write report partial success as an error: implementations must
// not return (n < len(buf), nil). Write is durable on return — by the time
// Write returns without error, the bytes are guaranteed to survive a power
// loss, which is the entire reason ROM's sync ordering (write data, then
// write the status byte that declares it clean) is meaningful.
type Driver interface {
	Read(offset uint64, dest []byte) error
	Write(offset uint64, src []byte) error

	// MaxSize returns the static capacity of the backing arena.
	MaxSize() uint64

	// ForgetRegion advises the driver that the given region's contents are
	// no longer needed and may be evicted from any caching layer. This is
	// purely advisory; the default behaviour is a no-op.
	ForgetRegion(offset, size uint64)
}

// NopForgetter implements ForgetRegion as a no-op. Embed it in a Driver that
// has no caching layer to forget from.
type NopForgetter struct{}

func (NopForgetter) ForgetRegion(uint64, uint64) {}

func checkRange(offset uint64, length int, max uint64) error {
	if length < 0 {
		return ErrOutOfRange
	}
	end := offset + uint64(length)
	if end < offset || end > max {
		return ErrOutOfRange
	}
	return nil
}
