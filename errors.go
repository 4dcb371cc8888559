package vnvheap

import "fmt"

// ErrorCode categorizes the failure reported by a vNV-heap operation.
type ErrorCode int

const (
	// ErrOutOfStorage indicates the NRA could not reserve a backup slot;
	// the NV arena is exhausted.
	ErrOutOfStorage ErrorCode = iota

	// ErrOutOfRAM indicates the RAM allocator could not satisfy a request
	// and OMP could not evict enough residents to make room.
	ErrOutOfRAM

	// ErrDirtyBudgetExceeded indicates OMP could not free enough dirty
	// bytes because every dirty candidate is pinned by an active guard.
	ErrDirtyBudgetExceeded

	// ErrStorageIO indicates a storage driver Read or Write failed.
	ErrStorageIO

	// ErrInvariantViolated is debug-only; implementations panic instead of
	// returning it, since it indicates the heap has reached a state the
	// public API is supposed to make unreachable.
	ErrInvariantViolated

	// errGuardConflictCode marks a Get or GetMut refused because an open
	// guard on the same Identifier excludes it. It has no exported name
	// or constructor, but callers do receive it inside an *Error.
	errGuardConflictCode
)

func (c ErrorCode) String() string {
	switch c {
	case ErrOutOfStorage:
		return "OutOfStorage"
	case ErrOutOfRAM:
		return "OutOfRAM"
	case ErrDirtyBudgetExceeded:
		return "DirtyBudgetExceeded"
	case ErrStorageIO:
		return "StorageIO"
	case ErrInvariantViolated:
		return "InvariantViolated"
	case errGuardConflictCode:
		return "GuardConflict"
	default:
		return "Unknown"
	}
}

// Error is the error type returned by every public vNV-heap operation.
//
// Callers inspecting the failure category should use errors.As and check
// the Code field rather than string-matching the error text.
type Error struct {
	Code    ErrorCode
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("vnvheap: %s: %s", e.Code, e.Message)
}

func newError(code ErrorCode, msg string) *Error {
	return &Error{Code: code, Message: msg}
}

func NewOutOfStorageError(msg string) *Error { return newError(ErrOutOfStorage, msg) }
func NewOutOfRAMError(msg string) *Error     { return newError(ErrOutOfRAM, msg) }
func NewDirtyBudgetExceededError(msg string) *Error {
	return newError(ErrDirtyBudgetExceeded, msg)
}
func NewStorageIOError(msg string) *Error { return newError(ErrStorageIO, msg) }

// errGuardConflict is what Get and GetMut return when an open guard on the
// same Identifier excludes the request. It is unexported, so a caller can
// only recognise it by its Code's String, "GuardConflict".
var errGuardConflict = newError(errGuardConflictCode, "guard conflict")

// ErrPAPAlreadyRegistered is returned by New when another Heap is already
// registered with the process-wide persist access point: there is exactly
// one process-wide PAP slot. Close the other Heap first. It reuses
// ErrOutOfStorage's code rather than adding a seventh member to the fixed
// error taxonomy: the PAP slot is itself a scarce, single-instance
// resource, so "no slot available" is the same shape of failure.
var ErrPAPAlreadyRegistered = newError(ErrOutOfStorage, "another Heap is already registered with the persist access point")
