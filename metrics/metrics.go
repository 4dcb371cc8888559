// Package metrics defines the heap's observability surface. A nil
// HeapMetrics is always valid and means metrics are disabled — every
// internal/rom call site nil-checks before recording, so instrumenting
// the heap never costs anything when no collector is configured.
package metrics

import "time"

// HeapMetrics is the interface internal/rom.Manager reports into. It names
// only facts a resident object manager can observe about itself — nothing
// about the RAM buffer's contents or any particular T.
type HeapMetrics interface {
	// ObserveAllocate records one Allocate call's latency.
	ObserveAllocate(duration time.Duration)

	// ObserveSync records one object's sync-to-NV: bytes actually written
	// (post partial-dirtiness coalescing) and how long it took.
	ObserveSync(bytes int64, duration time.Duration)

	// ObserveEvict records one object's eviction: RAM bytes freed and how
	// long the (possibly sync-then-free) operation took.
	ObserveEvict(bytes int64, duration time.Duration)

	// RecordResidentCount reports the current size of the resident list.
	RecordResidentCount(n int)

	// RecordDirtyBytes reports the current dirty-budget usage.
	RecordDirtyBytes(n int64)

	// RecordGuardConflict counts a rejected AcquireShared/AcquireExclusive
	// due to a conflicting guard already being open.
	RecordGuardConflict()

	// RecordOutOfMemory counts an allocate/acquire that failed even after
	// the object-management policy was given a chance to reclaim space.
	RecordOutOfMemory()

	// RecordPersistAll records one PAP sweep: whether the lock was
	// acquired and how long the sweep took.
	RecordPersistAll(acquired bool, duration time.Duration)
}
