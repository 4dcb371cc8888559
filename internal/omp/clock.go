package omp

import (
	"log/slog"

	"github.com/marmos91/vnvheap/internal/vnvlog"
)

// maxSweeps bounds how many full passes over the resident list a clock
// hand makes before giving up — a policy must not loop forever.
const maxSweeps = 3

const noHand = ^uint64(0)

// Clock is the default object-management policy: two independent
// second-chance (CLOCK) hands, one over dirty/modifiable candidates (used
// by SyncDirtyData) and one over all resident candidates (used by
// UnloadObjects). Each hand remembers its last position across calls and
// resumes from there, so repeated pressure sweeps the list round-robin
// instead of always starting at the head.
//
// This is an intrusive hand-pointer sweep in the style of CLOCK-Pro's
// handHot/handCold walking a circular list, adapted down to a simpler
// two-bit, two-hand scheme — it deliberately does not import CLOCK-Pro's
// hot/cold/test-period generalization, since that would silently change
// the eviction order the test suite depends on.
type Clock struct {
	modifiedHand uint64
	residentHand uint64
}

// NewClock returns a Clock with both hands at the start of the list.
func NewClock() *Clock {
	return &Clock{modifiedHand: noHand, residentHand: noHand}
}

func (c *Clock) SyncDirtyData(required uint64, list ResidentIterator) error {
	freed, hand, err := sweep(list, c.modifiedHand, required, func(item Item) (bool, bool) {
		valid := item.IsDataDirty() && !item.IsMutRefActive()
		return valid, item.WasModified()
	}, func(item Item, accessed bool) {
		item.SetModified(accessed)
	}, func(item Item) (uint64, error) {
		return item.SyncUserData()
	})
	c.modifiedHand = hand
	if err != nil {
		return err
	}
	if freed >= required {
		return nil
	}

	// Most residents may simply have no dirty user data, so the
	// modifiedHand sweep above alone can never clear enough budget even
	// given unlimited passes — every resident still charges its own
	// metadata reserve. Fall back to unloading clean residents outright,
	// the same residentHand sweep UnloadObjects uses, which releases
	// that reserve.
	more, hand2, err := sweep(list, c.residentHand, required-freed, func(item Item) (bool, bool) {
		valid := !item.IsDataDirty() && !item.IsMutRefActive() && !item.IsSharedRefActive()
		return valid, item.WasAccessed()
	}, func(item Item, accessed bool) {
		item.SetAccessed(accessed)
	}, func(item Item) (uint64, error) {
		return item.Unload()
	})
	c.residentHand = hand2
	freed += more
	if err != nil {
		return err
	}
	if freed < required {
		vnvlog.Warn("omp: sync sweep could not free enough dirty budget", slog.Uint64("required", required), vnvlog.Size(freed))
		return errGiveUp
	}
	return nil
}

func (c *Clock) UnloadObjects(layout Layout, list ResidentIterator) error {
	var freed uint64
	hand := c.residentHand
	err := sweepUntil(list, hand, func(h uint64) { c.residentHand = h }, func(item Item) (bool, bool) {
		valid := !item.IsMutRefActive() && !item.IsSharedRefActive()
		return valid, item.WasAccessed()
	}, func(item Item, accessed bool) {
		item.SetAccessed(accessed)
	}, func(item Item) (bool, error) {
		n, err := item.Unload()
		if err != nil {
			return false, err
		}
		freed += n
		return freed >= layout.Size, nil
	})
	if err != nil {
		vnvlog.Warn("omp: eviction sweep could not make room", slog.Uint64("want", layout.Size), vnvlog.Size(freed))
	}
	return err
}

func (c *Clock) AccessObject(item Item) { item.SetAccessed(true) }
func (c *Clock) ModifyObject(item Item) { item.SetModified(true) }

// errGiveUp is returned when a hand completes maxSweeps passes without
// freeing enough bytes. The root package translates this into the
// appropriate public error (ErrDirtyBudgetExceeded or ErrOutOfRAM).
var errGiveUp = errGiveUpError{}

type errGiveUpError struct{}

func (errGiveUpError) Error() string { return "omp: policy exhausted its sweep budget" }

// sweep runs a clock hand until required bytes have been processed by
// process, or the hand exhausts maxSweeps full passes. It returns the
// total freed and the hand's new resting position.
func sweep(
	list ResidentIterator,
	startHand uint64,
	required uint64,
	valid func(Item) (ok, bit bool),
	setBit func(Item, bool),
	process func(Item) (uint64, error),
) (uint64, uint64, error) {
	var freed uint64
	hand := startHand

	for sweepNum := 0; sweepNum < maxSweeps && freed < required; sweepNum++ {
		list.Reset()
		skipping := hand != noHand && sweepNum == 0

		for {
			item := list.Next()
			if item == nil {
				break
			}
			if skipping {
				if item.Offset() == hand {
					skipping = false
				}
				continue
			}

			ok, bit := valid(item)
			if !ok {
				continue
			}
			if bit {
				setBit(item, false)
				continue
			}

			n, err := process(item)
			if err != nil {
				return freed, hand, err
			}
			freed += n
			hand = item.Offset()
			if freed >= required {
				return freed, hand, nil
			}
		}
	}
	return freed, hand, nil
}

// sweepUntil is sweep's variant for UnloadObjects, where the stopping
// condition is evaluated by the caller after each processed item (it
// needs to check against an allocator layout, not a byte count).
func sweepUntil(
	list ResidentIterator,
	startHand uint64,
	setHand func(uint64),
	valid func(Item) (ok, bit bool),
	setBit func(Item, bool),
	process func(Item) (done bool, err error),
) error {
	hand := startHand

	for sweepNum := 0; sweepNum < maxSweeps; sweepNum++ {
		list.Reset()
		skipping := hand != noHand && sweepNum == 0

		for {
			item := list.Next()
			if item == nil {
				break
			}
			if skipping {
				if item.Offset() == hand {
					skipping = false
				}
				continue
			}

			ok, bit := valid(item)
			if !ok {
				continue
			}
			if bit {
				setBit(item, false)
				continue
			}

			done, err := process(item)
			hand = item.Offset()
			setHand(hand)
			if err != nil {
				return err
			}
			if done {
				return nil
			}
		}
	}
	return errGiveUp
}
