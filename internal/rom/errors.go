package rom

import "errors"

// These are internal sentinels; the root vnvheap package wraps them into
// its own Error/ErrorCode taxonomy at the API boundary, the same way
// internal/nra keeps its own ErrOutOfStorage independent of the root
// package to avoid an import cycle.
var (
	ErrNotFound       = errors.New("rom: identifier not resident and no backup record")
	ErrGuardConflict  = errors.New("rom: object already has a conflicting guard open")
	ErrOutOfMemory    = errors.New("rom: RAM allocator exhausted and policy could not reclaim enough")
	ErrDirtyBudget    = errors.New("rom: dirty byte budget exhausted and policy could not sync enough")
	ErrStillReachable = errors.New("rom: object cannot be evicted or released while a guard is open")
)
