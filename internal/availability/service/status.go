package service

import (
	"context"
	"errors"

	"bizqueue/internal/availability/cache"
	availabilityerrors "bizqueue/internal/availability/errors"
	"bizqueue/internal/availability/repository"
	"bizqueue/internal/availability/validator"
	"bizqueue/internal/events"
	"bizqueue/pkg/auth"
	"bizqueue/pkg/clock"
	"bizqueue/pkg/config"
	mongotx "bizqueue/pkg/db/mongo"
	apperrors "bizqueue/pkg/errors"
	"bizqueue/pkg/model"
)

type StatusService interface {
	// Get never reports absence: a business that never published is available with no queue.
	Get(ctx context.Context, businessID string) (model.AvailabilityStatus, error)
	// GetMany returns exactly one status per input id, in input order.
	GetMany(ctx context.Context, businessIDs []string) ([]model.AvailabilityStatus, error)
	Publish(ctx context.Context, principal auth.Principal, businessID string, update *model.StatusUpdate) (model.AvailabilityStatus, error)
}

type statusService struct {
	repo      repository.StatusRepository
	cache     cache.StatusCache
	validator *validator.StatusValidator
	events    events.Publisher
	clock     clock.Clock
	cfg       *config.Config
}

func NewStatusService(
	repo repository.StatusRepository,
	cache cache.StatusCache,
	validator *validator.StatusValidator,
	publisher events.Publisher,
	clk clock.Clock,
	cfg *config.Config,
) StatusService {
	return &statusService{
		repo:      repo,
		cache:     cache,
		validator: validator,
		events:    publisher,
		clock:     clk,
		cfg:       cfg,
	}
}

func (s *statusService) Get(ctx context.Context, businessID string) (model.AvailabilityStatus, error) {
	if cached, ok := s.cache.Get(businessID); ok {
		return cached, nil
	}

	gen := s.cache.Generation()
	stored, err := s.repo.FindByID(ctx, businessID)
	if err != nil {
		if errors.Is(err, availabilityerrors.ErrNotFound) {
			status := model.DefaultAvailability(businessID)
			s.cache.Add(status, gen)
			return status, nil
		}
		s.cfg.Log.Error("Failed to get availability status",
			"business_id", businessID,
			"error", err,
		)
		return model.AvailabilityStatus{}, mongotx.ToAppError(err, "Failed to retrieve availability status")
	}

	s.cache.Add(*stored, gen)
	return *stored, nil
}

func (s *statusService) GetMany(ctx context.Context, businessIDs []string) ([]model.AvailabilityStatus, error) {
	found := make(map[string]model.AvailabilityStatus, len(businessIDs))
	var misses []string
	for _, id := range businessIDs {
		if _, seen := found[id]; seen {
			continue
		}
		if cached, ok := s.cache.Get(id); ok {
			found[id] = cached
			continue
		}
		// placeholder keeps duplicates out of misses
		found[id] = model.DefaultAvailability(id)
		misses = append(misses, id)
	}

	if len(misses) > 0 {
		gen := s.cache.Generation()
		stored, err := s.repo.FindByIDs(ctx, misses)
		if err != nil {
			s.cfg.Log.Error("Failed to batch-load availability statuses",
				"count", len(misses),
				"error", err,
			)
			return nil, mongotx.ToAppError(err, "Failed to retrieve availability statuses")
		}
		for _, st := range stored {
			found[st.BusinessID] = *st
		}
		for _, id := range misses {
			s.cache.Add(found[id], gen)
		}
	}

	result := make([]model.AvailabilityStatus, len(businessIDs))
	for i, id := range businessIDs {
		result[i] = found[id]
	}
	return result, nil
}

func (s *statusService) Publish(ctx context.Context, principal auth.Principal, businessID string, update *model.StatusUpdate) (model.AvailabilityStatus, error) {
	if principal.IsGuest() {
		return model.AvailabilityStatus{}, apperrors.Unauthorized("Authentication required to publish status")
	}
	if !principal.CanManage(businessID) {
		s.cfg.Log.Warn("Status publish rejected for foreign business",
			"business_id", businessID,
			"user_id", principal.UserID,
		)
		return model.AvailabilityStatus{}, apperrors.Forbidden("Not allowed to manage this business")
	}

	if err := s.validator.Validate(update); err != nil {
		s.cfg.Log.Warn("Status update validation failed",
			"business_id", businessID,
			"error", err,
		)
		return model.AvailabilityStatus{}, apperrors.Validation("Status update validation failed", map[string]any{
			"error": err.Error(),
		})
	}

	state, _ := model.ParseAvailabilityState(update.State)
	write := repository.StatusWrite{
		State:           state,
		WaitMinutes:     *update.WaitMinutes,
		QueueCount:      *update.QueueCount,
		At:              s.clock.Now(),
		ExpectedVersion: update.ExpectedVersion,
	}

	stored, err := s.repo.Upsert(ctx, businessID, write)
	// Invalidate regardless of outcome: a failed or lost write still means
	// the cached projection may be behind storage.
	s.cache.Invalidate(businessID)
	if err != nil {
		if errors.Is(err, availabilityerrors.ErrVersionConflict) {
			return model.AvailabilityStatus{}, apperrors.Conflict("Status was changed by another editor").
				WithDetails(map[string]any{"business_id": businessID})
		}
		s.cfg.Log.Error("Failed to publish availability status",
			"business_id", businessID,
			"error", err,
		)
		return model.AvailabilityStatus{}, mongotx.ToAppError(err, "Failed to publish availability status")
	}

	if stored.UpdatedAt != nil && stored.UpdatedAt.Equal(write.At) {
		s.cfg.Log.Info("Availability status published",
			"business_id", businessID,
			"state", stored.State,
			"wait_minutes", stored.EstimatedWaitMinutes,
			"queue_count", stored.CurrentQueueCount,
			"version", stored.Version,
		)
		if err := s.events.StatusPublished(ctx, *stored); err != nil {
			s.cfg.Log.Warn("Failed to emit status event",
				"business_id", businessID,
				"error", err,
			)
		}
	} else {
		s.cfg.Log.Info("Stale status publish ignored",
			"business_id", businessID,
			"stored_version", stored.Version,
		)
	}

	return *stored, nil
}
