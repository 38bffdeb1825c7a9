// Package lifecycle holds the booking state machine.
//
//	pending   -> confirmed | cancelled
//	confirmed -> completed | cancelled
//
// completed and cancelled are terminal.
package lifecycle

import (
	"fmt"

	bookingserrors "bizqueue/internal/bookings/errors"
	"bizqueue/pkg/model"
)

type Action string

const (
	ActionConfirm  Action = "confirm"
	ActionCancel   Action = "cancel"
	ActionComplete Action = "complete"
)

var Actions = []Action{ActionConfirm, ActionCancel, ActionComplete}

var edges = map[model.BookingStatus]map[Action]model.BookingStatus{
	model.BookingPending: {
		ActionConfirm: model.BookingConfirmed,
		ActionCancel:  model.BookingCancelled,
	},
	model.BookingConfirmed: {
		ActionComplete: model.BookingCompleted,
		ActionCancel:   model.BookingCancelled,
	},
}

// Target is the status an action moves a booking to when it is allowed.
func (a Action) Target() model.BookingStatus {
	switch a {
	case ActionConfirm:
		return model.BookingConfirmed
	case ActionCancel:
		return model.BookingCancelled
	case ActionComplete:
		return model.BookingCompleted
	}
	return ""
}

// Next returns the status reached by applying a to from. Cancelling a cancelled
// booking reports ErrAlreadyCancelled, cancelling a completed one ErrImmutable;
// every other refused edge is ErrInvalidTransition.
func Next(from model.BookingStatus, a Action) (model.BookingStatus, error) {
	if to, ok := edges[from][a]; ok {
		return to, nil
	}

	if a == ActionCancel {
		switch from {
		case model.BookingCancelled:
			return from, bookingserrors.ErrAlreadyCancelled
		case model.BookingCompleted:
			return from, bookingserrors.ErrImmutable
		}
	}
	return from, fmt.Errorf("%w: %s -> %s", bookingserrors.ErrInvalidTransition, from, a.Target())
}
