package vnvheap

import (
	"github.com/marmos91/vnvheap/internal/omp"
	"github.com/marmos91/vnvheap/internal/ramalloc"
	"github.com/marmos91/vnvheap/metrics"
)

// Config is the configuration surface of a Heap. Every field
// is a build-time/construction-time tunable; none of it is read from an
// environment variable or a config file by this package — that surface
// belongs to the demo harness's own config package, not the library.
type Config struct {
	// MaxDirtyBytes bounds how many bytes of not-yet-synced user data the
	// heap may hold across all resident objects at once.
	MaxDirtyBytes uint64

	// RAMBuffer is the byte buffer the heap dedicates to resident
	// objects. The heap never grows, shrinks, or relocates it.
	RAMBuffer []byte

	// Allocator is the RAM byte allocator used over RAMBuffer. Nil
	// selects a ramalloc.Buddy sized to RAMBuffer.
	Allocator ramalloc.Allocator

	// Policy decides which resident objects to sync or evict when the
	// allocator cannot satisfy a request directly. Nil selects
	// omp.NewClock(), the default dual second-chance clock.
	Policy omp.Policy

	// PersistHandler is invoked once per PersistAll sweep, after every
	// dirty resident object and the backup-list head have been flushed
	// (and also after a sweep that stopped on a storage error), with the
	// RAM buffer's base and size. It must not call back into this Heap.
	// The heap's mutex is not held while it runs: PersistAll releases it
	// once the flush is done, so such a call is neither blocked nor
	// detected.
	PersistHandler func(base uintptr, size uint64)
}

// Option customizes a Heap at construction time beyond what Config
// expresses, for concerns that are not part of the module's tunable
// surface but are still construction-time choices — metrics being the
// only one this implementation ships.
type Option func(*heapOptions)

type heapOptions struct {
	metrics metrics.HeapMetrics // nil disables recording entirely
}

// WithMetrics attaches a HeapMetrics sink. Without this option a Heap
// records nothing, at zero runtime cost.
func WithMetrics(m metrics.HeapMetrics) Option {
	return func(o *heapOptions) { o.metrics = m }
}
