package occupancy

import (
	"github.com/acmevents/palco-checkin/internal/model"
	"github.com/acmevents/palco-checkin/internal/repository"
)

// The transition rules are pure functions over loaded records; the
// engine evaluates them with the rows locked and applies the writes
// only when they pass.

// CheckAssign decides whether personID may take the seat. A seat held
// by someone else is a conflict; occupants are released explicitly,
// never bumped. holdsOtherSeat reports whether the person already holds
// a different seat, which is equally a conflict (one active seat per
// person). Re-assigning a person to their own seat passes.
func CheckAssign(seat model.PalcoSeat, personID uint64, holdsOtherSeat bool) error {
	if seat.AssignedPersonID != nil && *seat.AssignedPersonID != personID {
		return repository.ErrConflict
	}
	if holdsOtherSeat {
		return repository.ErrConflict
	}
	return nil
}

// CheckPresent decides whether the seat's occupant can be marked
// present. A seat without a holder has nobody to check in.
func CheckPresent(seat model.PalcoSeat) error {
	if seat.AssignedPersonID == nil {
		return repository.ErrInvalidState
	}
	return nil
}

// NeedsRelease reports whether releasing the seat changes anything.
// Releasing an already free seat is a successful no-op, which makes
// Release idempotent.
func NeedsRelease(seat model.PalcoSeat) bool {
	return seat.AssignedPersonID != nil
}

// Released returns the seat in its post-release state: no holder, not
// present, no timestamp.
func Released(seat model.PalcoSeat) model.PalcoSeat {
	seat.AssignedPersonID = nil
	seat.Present = false
	seat.PresentAt = nil
	return seat
}
