package model

import "time"

type AvailabilityState string

const (
	StateAvailable AvailabilityState = "available"
	StateBusy      AvailabilityState = "busy"
	StateClosed    AvailabilityState = "closed"
)

func (s AvailabilityState) Known() bool {
	switch s {
	case StateAvailable, StateBusy, StateClosed:
		return true
	}
	return false
}

func ParseAvailabilityState(s string) (AvailabilityState, bool) {
	st := AvailabilityState(s)
	return st, st.Known()
}

type AvailabilityStatus struct {
	BusinessID           string            `json:"business_id" bson:"_id"`
	State                AvailabilityState `json:"state" bson:"state"`
	EstimatedWaitMinutes int               `json:"wait_minutes" bson:"estimated_wait_minutes"`
	CurrentQueueCount    int               `json:"queue_count" bson:"current_queue_count"`
	UpdatedAt            *time.Time        `json:"updated_at" bson:"updated_at,omitempty"`
	Version              int64             `json:"version" bson:"version"`
}

// DefaultAvailability is what callers observe for a business that never published.
func DefaultAvailability(businessID string) AvailabilityStatus {
	return AvailabilityStatus{
		BusinessID: businessID,
		State:      StateAvailable,
	}
}

type StatusUpdate struct {
	State           string `json:"state" validate:"required,availability_state"`
	WaitMinutes     *int   `json:"wait_minutes" validate:"required,min=0,max=1440"`
	QueueCount      *int   `json:"queue_count" validate:"required,min=0,max=10000"`
	ExpectedVersion *int64 `json:"expected_version,omitempty" validate:"omitempty,min=0"`
}
