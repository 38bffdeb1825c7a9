package events

import (
	"context"
	"fmt"

	"bizqueue/pkg/kafka"
	"bizqueue/pkg/model"
)

// MessagePublisher is satisfied by *kafka.Producer.
type MessagePublisher interface {
	Publish(ctx context.Context, msg kafka.Message) error
}

type KafkaPublisher struct {
	status   MessagePublisher
	bookings MessagePublisher
	source   string
	origin   string
}

func NewKafkaPublisher(status, bookings MessagePublisher, source, origin string) *KafkaPublisher {
	return &KafkaPublisher{
		status:   status,
		bookings: bookings,
		source:   source,
		origin:   origin,
	}
}

func (p *KafkaPublisher) StatusPublished(ctx context.Context, status model.AvailabilityStatus) error {
	msg, err := kafka.NewMessage().
		WithKey(status.BusinessID).
		WithValue(StatusPublished{
			BusinessID:  status.BusinessID,
			State:       status.State,
			WaitMinutes: status.EstimatedWaitMinutes,
			QueueCount:  status.CurrentQueueCount,
			Version:     status.Version,
			UpdatedAt:   status.UpdatedAt,
			Origin:      p.origin,
		}).
		WithEventType(TypeAvailabilityPublished).
		WithSchemaVersion(SchemaVersion).
		WithSource(p.source).
		Build()
	if err != nil {
		return fmt.Errorf("failed to build status event: %w", err)
	}
	return p.status.Publish(ctx, msg)
}

// BookingChanged keys by booking id so transitions of one booking stay ordered.
func (p *KafkaPublisher) BookingChanged(ctx context.Context, booking *model.Booking, from model.BookingStatus) error {
	eventType := TypeBookingTransitioned
	if from == "" {
		eventType = TypeBookingCreated
	}

	msg, err := kafka.NewMessage().
		WithKey(booking.ID).
		WithValue(BookingChanged{
			BookingID:  booking.ID,
			BusinessID: booking.BusinessID,
			UserID:     booking.UserID,
			From:       from,
			To:         booking.Status,
			At:         booking.UpdatedAt,
		}).
		WithEventType(eventType).
		WithSchemaVersion(SchemaVersion).
		WithSource(p.source).
		WithTimestamp(booking.UpdatedAt).
		Build()
	if err != nil {
		return fmt.Errorf("failed to build booking event: %w", err)
	}
	return p.bookings.Publish(ctx, msg)
}
