// Package events carries domain notifications out of the service: availability
// publishes and booking transitions. Consumers include the status cache
// invalidator on other instances and any audit or history collaborators.
package events

import (
	"context"
	"time"

	"bizqueue/pkg/model"
)

const (
	TypeAvailabilityPublished = "availability.published"
	TypeBookingCreated        = "booking.created"
	TypeBookingTransitioned   = "booking.transitioned"

	SchemaVersion = "1"
)

type StatusPublished struct {
	BusinessID  string                  `json:"business_id"`
	State       model.AvailabilityState `json:"state"`
	WaitMinutes int                     `json:"wait_minutes"`
	QueueCount  int                     `json:"queue_count"`
	Version     int64                   `json:"version"`
	UpdatedAt   *time.Time              `json:"updated_at"`
	// Origin identifies the instance that published, so it can skip its own echo.
	Origin string `json:"origin"`
}

type BookingChanged struct {
	BookingID  string              `json:"booking_id"`
	BusinessID string              `json:"business_id"`
	UserID     string              `json:"user_id,omitempty"`
	From       model.BookingStatus `json:"from,omitempty"`
	To         model.BookingStatus `json:"to"`
	At         time.Time           `json:"at"`
}

// Publisher is best-effort: callers log failures and never roll back on them.
type Publisher interface {
	StatusPublished(ctx context.Context, status model.AvailabilityStatus) error
	BookingChanged(ctx context.Context, booking *model.Booking, from model.BookingStatus) error
}

type NopPublisher struct{}

func (NopPublisher) StatusPublished(context.Context, model.AvailabilityStatus) error {
	return nil
}

func (NopPublisher) BookingChanged(context.Context, *model.Booking, model.BookingStatus) error {
	return nil
}
