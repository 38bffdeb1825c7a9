package lifecycle

import (
	"errors"
	"math/rand"
	"testing"

	bookingserrors "bizqueue/internal/bookings/errors"
	"bizqueue/pkg/model"
)

func TestNext(t *testing.T) {
	tests := []struct {
		name    string
		from    model.BookingStatus
		action  Action
		want    model.BookingStatus
		wantErr error
	}{
		{"confirm pending", model.BookingPending, ActionConfirm, model.BookingConfirmed, nil},
		{"cancel pending", model.BookingPending, ActionCancel, model.BookingCancelled, nil},
		{"complete confirmed", model.BookingConfirmed, ActionComplete, model.BookingCompleted, nil},
		{"cancel confirmed", model.BookingConfirmed, ActionCancel, model.BookingCancelled, nil},
		{"complete pending", model.BookingPending, ActionComplete, model.BookingPending, bookingserrors.ErrInvalidTransition},
		{"confirm confirmed", model.BookingConfirmed, ActionConfirm, model.BookingConfirmed, bookingserrors.ErrInvalidTransition},
		{"cancel cancelled", model.BookingCancelled, ActionCancel, model.BookingCancelled, bookingserrors.ErrAlreadyCancelled},
		{"cancel completed", model.BookingCompleted, ActionCancel, model.BookingCompleted, bookingserrors.ErrImmutable},
		{"confirm completed", model.BookingCompleted, ActionConfirm, model.BookingCompleted, bookingserrors.ErrInvalidTransition},
		{"complete cancelled", model.BookingCancelled, ActionComplete, model.BookingCancelled, bookingserrors.ErrInvalidTransition},
		{"unknown stored status", model.BookingStatus("no_show"), ActionCancel, model.BookingStatus("no_show"), bookingserrors.ErrInvalidTransition},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Next(tt.from, tt.action)
			if got != tt.want {
				t.Errorf("Next(%s, %s) = %s, want %s", tt.from, tt.action, got, tt.want)
			}
			if tt.wantErr == nil && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestNext_TerminalIsAbsorbing(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for run := 0; run < 500; run++ {
		status := model.BookingPending
		terminal := false
		for step := 0; step < 12; step++ {
			action := Actions[rng.Intn(len(Actions))]
			next, err := Next(status, action)
			if err != nil && next != status {
				t.Fatalf("refused transition changed status: %s -> %s", status, next)
			}
			if terminal && !next.Terminal() {
				t.Fatalf("left terminal state %s via %s to %s", status, action, next)
			}
			status = next
			terminal = terminal || status.Terminal()
		}
	}
}

func TestAction_Target(t *testing.T) {
	for _, a := range Actions {
		if !a.Target().Known() {
			t.Errorf("action %s has no known target", a)
		}
	}
	if Action("archive").Target() != "" {
		t.Error("unknown action must have no target")
	}
}
