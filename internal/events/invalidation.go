package events

import (
	"context"

	"bizqueue/pkg/kafka"
	"bizqueue/pkg/logger"
)

// Invalidator drops a cached status projection.
type Invalidator interface {
	Invalidate(businessID string)
}

// NewStatusInvalidationHandler evicts the local cached status whenever any
// instance publishes. Events from this instance are skipped because the
// publishing path already invalidated synchronously.
func NewStatusInvalidationHandler(cache Invalidator, origin string, log *logger.Logger) kafka.MessageHandler {
	return func(ctx context.Context, msg kafka.Message) error {
		if msg.GetEventType() != TypeAvailabilityPublished {
			return nil
		}

		var evt StatusPublished
		if err := msg.DecodeValue(&evt); err != nil {
			return err
		}
		if evt.BusinessID == "" {
			return kafka.NewPermanentError("status event without business id", nil)
		}
		if evt.Origin == origin {
			return nil
		}

		cache.Invalidate(evt.BusinessID)
		log.Debug("Status cache invalidated by remote publish",
			"business_id", evt.BusinessID,
			"version", evt.Version,
		)
		return nil
	}
}
