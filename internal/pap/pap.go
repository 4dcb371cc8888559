// Package pap implements the persist access point: a process-wide,
// interrupt-safe rendezvous between the host's asynchronous persist signal
// and whichever vNV-heap is currently live. The register/unregister/
// persist_all contract wires an OS signal to a single rendezvous function,
// the same signal.Notify-driven shutdown idiom a Go server uses to wire a
// signal to a single drain function.
package pap

import (
	"errors"
	"sync/atomic"

	"github.com/marmos91/vnvheap/internal/vnvlog"
)

// ErrAlreadyRegistered is returned by Register when another heap is already
// registered: only one heap may be registered at a time.
var ErrAlreadyRegistered = errors.New("pap: another heap is already registered")

// ErrNotRegistered is returned by PersistAll when no heap is registered.
var ErrNotRegistered = errors.New("pap: no heap is registered")

// Syncer is the subset of internal/rom.Manager PAP needs: a non-blocking
// attempt to flush every dirty resident object.
type Syncer interface {
	TryPersistAll() (ok bool, err error)
}

// Registration is what a Heap hands PAP at construction.
type Registration struct {
	Sync           Syncer
	PersistHandler func(base uintptr, size uint64)
	BufferBase     uintptr
	BufferSize     uint64
}

var slot atomic.Pointer[Registration]

// Register installs reg as the process-wide PAP target. It fails if a
// registration is already present; the caller (Heap's constructor) must
// treat that as a construction-time error, not retry.
func Register(reg *Registration) error {
	if !slot.CompareAndSwap(nil, reg) {
		vnvlog.Warn("pap: register rejected, a heap is already registered")
		return ErrAlreadyRegistered
	}
	return nil
}

// Unregister removes reg if it is still the active registration. Safe to
// call from Heap's destructor even if Register never succeeded.
func Unregister(reg *Registration) {
	slot.CompareAndSwap(reg, nil)
}

// PersistAll is the function the host's asynchronous persist signal calls.
// It is non-blocking with respect to the heap's own mutex: if the heap is
// mid-operation, PersistAll returns acquired=false with a nil error rather
// than waiting, and flushes nothing. A held lock is reported this way, not
// by a panic, since panicking out of a signal-equivalent call in Go is not
// recoverable the way a busy-wait-then-abort would be.
func PersistAll() (acquired bool, err error) {
	reg := slot.Load()
	if reg == nil {
		return false, ErrNotRegistered
	}

	ok, syncErr := reg.Sync.TryPersistAll()
	if !ok {
		return false, nil
	}
	if syncErr != nil {
		// PAP errors are fatal: surface through the persist handler rather
		// than swallowing it, since there is no caller left to propagate to
		// once we're off the normal call stack.
		vnvlog.Error("pap: persist_all failed", vnvlog.Err(syncErr))
		if reg.PersistHandler != nil {
			reg.PersistHandler(reg.BufferBase, reg.BufferSize)
		}
		return true, syncErr
	}

	vnvlog.Debug("pap: persist_all completed")
	if reg.PersistHandler != nil {
		reg.PersistHandler(reg.BufferBase, reg.BufferSize)
	}
	return true, nil
}
