package vnvheap

import (
	"errors"
	"unsafe"

	"github.com/marmos91/vnvheap/internal/nra"
	"github.com/marmos91/vnvheap/internal/rom"
)

// translateErr maps the internal sentinels internal/rom and internal/nra
// return into this package's public Error/ErrorCode taxonomy.
// internal/rom and internal/nra each keep their own sentinels rather than
// importing this package, to avoid an import cycle — this is the single
// place that bridges them back.
func translateErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, nra.ErrOutOfStorage):
		return NewOutOfStorageError(err.Error())
	case errors.Is(err, rom.ErrOutOfMemory):
		return NewOutOfRAMError(err.Error())
	case errors.Is(err, rom.ErrDirtyBudget):
		return NewDirtyBudgetExceededError(err.Error())
	case errors.Is(err, rom.ErrGuardConflict):
		return errGuardConflict
	case errors.Is(err, rom.ErrNotFound), errors.Is(err, rom.ErrStillReachable):
		panic(newError(ErrInvariantViolated, err.Error()))
	default:
		return NewStorageIOError(err.Error())
	}
}

// ramBufferBase returns buf's backing array address, for the (base, size)
// pair handed to PersistHandler and to PAP's Registration. PersistHandler
// is documented as read-only/no-reentry, so exposing the raw base as a
// uintptr (rather than a []byte that could be resliced and mutated) keeps
// the handler's contract — "observe, copy out if needed" — honest.
func ramBufferBase(buf []byte) uintptr {
	if len(buf) == 0 {
		return 0
	}
	return uintptr(unsafe.Pointer(&buf[0]))
}
