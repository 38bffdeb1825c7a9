package model

import (
	"encoding/json"
	"testing"
	"time"
)

func TestParseBookingStatus(t *testing.T) {
	tests := []struct {
		in       string
		known    bool
		terminal bool
	}{
		{"pending", true, false},
		{"confirmed", true, false},
		{"completed", true, true},
		{"cancelled", true, true},
		{"Pending", false, false},
		{"", false, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			st, ok := ParseBookingStatus(tt.in)
			if ok != tt.known {
				t.Errorf("known = %v, want %v", ok, tt.known)
			}
			if st.Terminal() != tt.terminal {
				t.Errorf("terminal = %v, want %v", st.Terminal(), tt.terminal)
			}
		})
	}
}

func TestParseAvailabilityState(t *testing.T) {
	for _, s := range []string{"available", "busy", "closed"} {
		if _, ok := ParseAvailabilityState(s); !ok {
			t.Errorf("expected %q to parse", s)
		}
	}
	if _, ok := ParseAvailabilityState("open"); ok {
		t.Error("expected unknown state to be rejected")
	}
}

func TestParseBusinessType_UnknownStoredValuePassesThrough(t *testing.T) {
	if _, ok := ParseBusinessType("car_wash"); !ok {
		t.Error("expected car_wash to parse")
	}

	var b Business
	if err := json.Unmarshal([]byte(`{"type":"bakery"}`), &b); err != nil {
		t.Fatal(err)
	}
	if b.Type != "bakery" || b.Type.Known() {
		t.Errorf("expected unknown type kept verbatim, got %q", b.Type)
	}
}

func TestDefaultAvailability(t *testing.T) {
	st := DefaultAvailability("b1")
	if st.BusinessID != "b1" || st.State != StateAvailable || st.EstimatedWaitMinutes != 0 ||
		st.CurrentQueueCount != 0 || st.UpdatedAt != nil || st.Version != 0 {
		t.Errorf("unexpected default: %+v", st)
	}
}

func TestNewStatusView(t *testing.T) {
	now := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	view := NewStatusView(AvailabilityStatus{
		BusinessID:           "b1",
		State:                StateBusy,
		EstimatedWaitMinutes: 20,
		CurrentQueueCount:    4,
		UpdatedAt:            &now,
		Version:              7,
	})
	if view.State != StateBusy || view.WaitMinutes != 20 || view.QueueCount != 4 || !view.UpdatedAt.Equal(now) {
		t.Errorf("unexpected view: %+v", view)
	}
}

func TestSlotLockID(t *testing.T) {
	a := SlotLockID("b1", "e1", "2026-05-01", "10:00")
	if a != "slot_lock_b1_e1_2026-05-01_10:00" {
		t.Errorf("unexpected id %q", a)
	}
	if a == SlotLockID("b1", "e2", "2026-05-01", "10:00") {
		t.Error("different employees must not share a lock")
	}
}

func TestBookingRequester(t *testing.T) {
	walkIn := &Booking{}
	if !walkIn.Requester().IsGuest() {
		t.Error("booking without user must be a guest requester")
	}

	owned := &Booking{UserID: "u1"}
	id, ok := owned.Requester().UserID()
	if !ok || id != "u1" {
		t.Errorf("expected u1, got %q (%v)", id, ok)
	}
}
