package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"

	bookingserrors "bizqueue/internal/bookings/errors"
	"bizqueue/internal/bookings/lifecycle"
	"bizqueue/internal/bookings/repository"
	"bizqueue/internal/bookings/validator"
	"bizqueue/internal/events"
	"bizqueue/pkg/auth"
	"bizqueue/pkg/clock"
	"bizqueue/pkg/config"
	mongotx "bizqueue/pkg/db/mongo"
	apperrors "bizqueue/pkg/errors"
	"bizqueue/pkg/model"
	"bizqueue/pkg/sanitizer"
	"bizqueue/pkg/telemetry"

	"go.mongodb.org/mongo-driver/mongo"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

// maxTransitionAttempts bounds compare-and-set retries when concurrent
// writers keep moving the booking.
const maxTransitionAttempts = 4

// Catalog is the subset of catalog lookups the ledger needs to check references.
type Catalog interface {
	GetBusiness(ctx context.Context, id string) (*model.Business, error)
	GetService(ctx context.Context, id string) (*model.Service, error)
	GetEmployee(ctx context.Context, id string) (*model.Employee, error)
}

type BookingService interface {
	// Create returns created=false when idempotencyKey replays an earlier request.
	Create(ctx context.Context, principal auth.Principal, req *model.BookingRequest, idempotencyKey string) (booking *model.Booking, created bool, err error)
	GetByID(ctx context.Context, principal auth.Principal, id string) (*model.Booking, error)
	Cancel(ctx context.Context, principal auth.Principal, id string) (*model.Booking, error)
	Confirm(ctx context.Context, principal auth.Principal, id string) (*model.Booking, error)
	Complete(ctx context.Context, principal auth.Principal, id string) (*model.Booking, error)
	ListForUser(ctx context.Context, principal auth.Principal, limit int, offset int64) ([]*model.Booking, int64, error)
	ListForBusiness(ctx context.Context, principal auth.Principal, businessID string, filter model.BookingFilter, limit int, offset int64) ([]*model.Booking, int64, error)
}

type bookingService struct {
	repo      repository.BookingRepository
	locks     repository.SlotLockRepository
	catalog   Catalog
	validator *validator.BookingValidator
	events    events.Publisher
	clock     clock.Clock
	cfg       *config.Config
}

func NewBookingService(
	repo repository.BookingRepository,
	locks repository.SlotLockRepository,
	catalog Catalog,
	validator *validator.BookingValidator,
	publisher events.Publisher,
	clk clock.Clock,
	cfg *config.Config,
) BookingService {
	return &bookingService{
		repo:      repo,
		locks:     locks,
		catalog:   catalog,
		validator: validator,
		events:    publisher,
		clock:     clk,
		cfg:       cfg,
	}
}

func (s *bookingService) Create(ctx context.Context, principal auth.Principal, req *model.BookingRequest, idempotencyKey string) (*model.Booking, bool, error) {
	ctx, span := telemetry.Tracer().Start(ctx, "bookings.Create", trace.WithAttributes(
		attribute.String("business.id", req.BusinessID),
		attribute.Bool("idempotent", idempotencyKey != ""),
	))
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, s.cfg.BookingTimeout)
	defer cancel()

	sanitize(req)
	if err := s.validator.Validate(req); err != nil {
		s.cfg.Log.Warn("Booking validation failed", "error", err)
		return nil, false, apperrors.Validation("Booking validation failed", map[string]any{
			"error": err.Error(),
		})
	}

	hash := requestHash(principal, req)
	if idempotencyKey != "" {
		existing, err := s.replay(ctx, idempotencyKey, hash)
		if err != nil || existing != nil {
			return existing, false, err
		}
	}

	if err := s.checkReferences(ctx, req); err != nil {
		return nil, false, err
	}

	now := s.clock.Now().UTC()
	booking := &model.Booking{
		BusinessID:  req.BusinessID,
		ServiceID:   req.ServiceID,
		EmployeeID:  req.EmployeeID,
		SlotDate:    req.Date,
		SlotTime:    req.Time,
		Status:      model.BookingPending,
		ClientName:  req.ClientName,
		ClientPhone: req.ClientPhone,
		Notes:       req.Notes,
		CreatedAt:   now,
	}
	// Walk-ins entered by the business itself did not come through the app
	// and belong to no consumer account.
	if principal.CanManage(req.BusinessID) {
		booking.CameThroughApp = false
	} else {
		booking.CameThroughApp = true
		booking.UserID = principal.UserID
	}
	if idempotencyKey != "" {
		booking.IdempotencyKey = idempotencyKey
		booking.RequestHash = hash
	}

	if err := s.insert(ctx, booking); err != nil {
		if errors.Is(err, bookingserrors.ErrDuplicateIdempotencyKey) {
			existing, replayErr := s.replay(ctx, idempotencyKey, hash)
			if replayErr != nil {
				return nil, false, replayErr
			}
			if existing != nil {
				return existing, false, nil
			}
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "create failed")
		if apperrors.IsAppError(err) {
			return nil, false, err
		}
		s.cfg.Log.Error("Failed to create booking",
			"business_id", booking.BusinessID,
			"error", err,
		)
		return nil, false, mongotx.ToAppError(err, "Failed to create booking")
	}

	s.cfg.Log.Info("Booking created",
		"id", booking.ID,
		"business_id", booking.BusinessID,
		"employee_id", booking.EmployeeID,
		"slot_date", booking.SlotDate,
		"slot_time", booking.SlotTime,
		"came_through_app", booking.CameThroughApp,
	)
	s.emit(ctx, booking, "")
	return booking, true, nil
}

// replay returns the booking stored under key, nil when there is none.
func (s *bookingService) replay(ctx context.Context, key, hash string) (*model.Booking, error) {
	existing, err := s.repo.FindByIdempotencyKey(ctx, key)
	if err != nil {
		if errors.Is(err, bookingserrors.ErrNotFound) {
			return nil, nil
		}
		return nil, mongotx.ToAppError(err, "Failed to look up idempotency key")
	}
	if existing.RequestHash != hash {
		s.cfg.Log.Warn("Idempotency key reused with a different request", "key", key)
		return nil, apperrors.IdempotencyConflict(key)
	}
	s.cfg.Log.Info("Booking request replayed", "id", existing.ID, "key", key)
	return existing, nil
}

func (s *bookingService) checkReferences(ctx context.Context, req *model.BookingRequest) error {
	business, err := s.catalog.GetBusiness(ctx, req.BusinessID)
	if err != nil {
		return err
	}
	if !business.IsActive {
		return apperrors.NotFoundWithID("Business", req.BusinessID)
	}

	svc, err := s.catalog.GetService(ctx, req.ServiceID)
	if err != nil {
		if apperrors.HasCode(err, apperrors.CodeNotFound) {
			return apperrors.InvalidReference("Service", req.ServiceID)
		}
		return err
	}
	if !svc.IsActive || svc.BusinessID != req.BusinessID {
		return apperrors.InvalidReference("Service", req.ServiceID)
	}

	if req.EmployeeID == "" {
		return nil
	}
	employee, err := s.catalog.GetEmployee(ctx, req.EmployeeID)
	if err != nil {
		if apperrors.HasCode(err, apperrors.CodeNotFound) {
			return apperrors.InvalidReference("Employee", req.EmployeeID)
		}
		return err
	}
	if !employee.IsActive || employee.BusinessID != req.BusinessID {
		return apperrors.InvalidReference("Employee", req.EmployeeID)
	}
	return nil
}

func (s *bookingService) insert(ctx context.Context, booking *model.Booking) error {
	if s.cfg.BookingSlotPolicy != config.SlotPolicyExclusive || booking.EmployeeID == "" {
		return s.repo.Create(ctx, booking)
	}

	lockID, err := s.acquireSlotLock(ctx, booking)
	if err != nil {
		return err
	}
	defer func() {
		if releaseErr := s.locks.Release(context.WithoutCancel(ctx), lockID); releaseErr != nil {
			s.cfg.Log.Warn("Failed to release slot lock", "lock_id", lockID, "error", releaseErr)
		}
	}()

	return s.repo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		active, err := s.repo.CountActiveInSlot(sessCtx, booking.BusinessID, booking.EmployeeID, booking.SlotDate, booking.SlotTime)
		if err != nil {
			return err
		}
		if active > 0 {
			return apperrors.SlotConflict("Employee already has a booking at this time").
				WithDetails(map[string]any{
					"employee_id": booking.EmployeeID,
					"date":        booking.SlotDate,
					"time":        booking.SlotTime,
				})
		}
		return s.repo.Create(sessCtx, booking)
	})
}

func (s *bookingService) acquireSlotLock(ctx context.Context, booking *model.Booking) (string, error) {
	now := s.clock.Now().UTC()
	lock := &model.SlotLock{
		ID:        model.SlotLockID(booking.BusinessID, booking.EmployeeID, booking.SlotDate, booking.SlotTime),
		ExpiresAt: now.Add(s.cfg.BookingLockTTL),
		CreatedAt: now,
	}

	if err := s.locks.Acquire(ctx, lock); err != nil {
		if errors.Is(err, bookingserrors.ErrSlotLocked) {
			return "", apperrors.SlotConflict("This slot is currently being booked by another request. Please try again.")
		}
		return "", mongotx.ToAppError(err, "Failed to acquire slot lock")
	}
	return lock.ID, nil
}

func (s *bookingService) GetByID(ctx context.Context, principal auth.Principal, id string) (*model.Booking, error) {
	if principal.IsGuest() {
		return nil, apperrors.Unauthorized("Authentication required")
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.BookingTimeout)
	defer cancel()

	booking, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := ownerOrBusiness(principal, booking); err != nil {
		return nil, err
	}
	return booking, nil
}

func (s *bookingService) Cancel(ctx context.Context, principal auth.Principal, id string) (*model.Booking, error) {
	return s.transition(ctx, principal, id, lifecycle.ActionCancel, ownerOrBusiness)
}

func (s *bookingService) Confirm(ctx context.Context, principal auth.Principal, id string) (*model.Booking, error) {
	return s.transition(ctx, principal, id, lifecycle.ActionConfirm, businessOnly)
}

func (s *bookingService) Complete(ctx context.Context, principal auth.Principal, id string) (*model.Booking, error) {
	return s.transition(ctx, principal, id, lifecycle.ActionComplete, businessOnly)
}

type authorizer func(principal auth.Principal, booking *model.Booking) error

func ownerOrBusiness(principal auth.Principal, booking *model.Booking) error {
	if owner, ok := booking.Requester().UserID(); ok && owner == principal.UserID {
		return nil
	}
	return businessOnly(principal, booking)
}

func businessOnly(principal auth.Principal, booking *model.Booking) error {
	if principal.CanManage(booking.BusinessID) {
		return nil
	}
	return apperrors.Forbidden("Not allowed to manage this booking")
}

// transition applies action with a compare-and-set on the status. When another
// writer moves the booking first, the action is re-evaluated against the new
// status instead of failing, so concurrent calls are serialized: a confirm and
// a cancel racing on a pending booking both succeed as pending, confirmed,
// cancelled. A caller is refused only when its action is not allowed from the
// status it finally observes, or after maxTransitionAttempts lost swaps.
func (s *bookingService) transition(ctx context.Context, principal auth.Principal, id string, action lifecycle.Action, authorize authorizer) (*model.Booking, error) {
	ctx, span := telemetry.Tracer().Start(ctx, "bookings.Transition", trace.WithAttributes(
		attribute.String("booking.id", id),
		attribute.String("booking.action", string(action)),
	))
	defer span.End()

	if principal.IsGuest() {
		return nil, apperrors.Unauthorized("Authentication required")
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.BookingTimeout)
	defer cancel()

	current, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authorize(principal, current); err != nil {
		s.cfg.Log.Warn("Booking transition rejected",
			"id", id,
			"action", action,
			"user_id", principal.UserID,
		)
		return nil, err
	}

	for attempt := 0; attempt < maxTransitionAttempts; attempt++ {
		to, err := lifecycle.Next(current.Status, action)
		if err != nil {
			return nil, transitionError(current, action, err)
		}

		updated, err := s.repo.CompareAndSetStatus(ctx, id, current.Status, to, s.clock.Now())
		if err == nil {
			s.cfg.Log.Info("Booking transitioned",
				"id", id,
				"from", current.Status,
				"to", updated.Status,
			)
			s.emit(ctx, updated, current.Status)
			return updated, nil
		}
		if !errors.Is(err, bookingserrors.ErrStatusChanged) {
			span.RecordError(err)
			s.cfg.Log.Error("Failed to transition booking",
				"id", id,
				"action", action,
				"error", err,
			)
			return nil, mongotx.ToAppError(err, "Failed to update booking")
		}

		if current, err = s.load(ctx, id); err != nil {
			return nil, err
		}
	}

	return nil, apperrors.Conflict("Booking is being modified concurrently, please retry")
}

func transitionError(b *model.Booking, action lifecycle.Action, err error) error {
	switch {
	case errors.Is(err, bookingserrors.ErrAlreadyCancelled):
		return apperrors.AlreadyCancelled("Booking", b.ID)
	case errors.Is(err, bookingserrors.ErrImmutable):
		return apperrors.Immutable("Booking", b.ID)
	default:
		return apperrors.InvalidTransition(string(b.Status), string(action.Target()))
	}
}

func (s *bookingService) load(ctx context.Context, id string) (*model.Booking, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Booking ID cannot be empty")
	}

	booking, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, bookingserrors.ErrNotFound) || errors.Is(err, bookingserrors.ErrInvalidID) {
			return nil, apperrors.NotFoundWithID("Booking", id)
		}
		s.cfg.Log.Error("Failed to get booking by ID", "id", id, "error", err)
		return nil, mongotx.ToAppError(err, "Failed to retrieve booking")
	}
	return booking, nil
}

func (s *bookingService) ListForUser(ctx context.Context, principal auth.Principal, limit int, offset int64) ([]*model.Booking, int64, error) {
	if principal.IsGuest() {
		return nil, 0, apperrors.Unauthorized("Authentication required")
	}

	return s.page(ctx,
		func(ctx context.Context) ([]*model.Booking, error) {
			return s.repo.FindByUser(ctx, principal.UserID, limit, offset)
		},
		func(ctx context.Context) (int64, error) {
			return s.repo.CountByUser(ctx, principal.UserID)
		},
	)
}

func (s *bookingService) ListForBusiness(ctx context.Context, principal auth.Principal, businessID string, filter model.BookingFilter, limit int, offset int64) ([]*model.Booking, int64, error) {
	if principal.IsGuest() {
		return nil, 0, apperrors.Unauthorized("Authentication required")
	}
	if !principal.CanManage(businessID) {
		return nil, 0, apperrors.Forbidden("Not allowed to view bookings of this business")
	}

	return s.page(ctx,
		func(ctx context.Context) ([]*model.Booking, error) {
			return s.repo.FindByBusiness(ctx, businessID, filter, limit, offset)
		},
		func(ctx context.Context) (int64, error) {
			return s.repo.CountByBusiness(ctx, businessID, filter)
		},
	)
}

func (s *bookingService) page(
	ctx context.Context,
	find func(context.Context) ([]*model.Booking, error),
	count func(context.Context) (int64, error),
) ([]*model.Booking, int64, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.BookingTimeout)
	defer cancel()

	var (
		bookings []*model.Booking
		total    int64
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		bookings, err = find(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		total, err = count(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		s.cfg.Log.Error("Failed to list bookings", "error", err)
		return nil, 0, mongotx.ToAppError(err, "Failed to retrieve bookings")
	}
	return bookings, total, nil
}

func (s *bookingService) emit(ctx context.Context, booking *model.Booking, from model.BookingStatus) {
	if err := s.events.BookingChanged(ctx, booking, from); err != nil {
		s.cfg.Log.Warn("Failed to emit booking event",
			"id", booking.ID,
			"status", booking.Status,
			"error", err,
		)
	}
}

func sanitize(req *model.BookingRequest) {
	req.BusinessID = strings.TrimSpace(req.BusinessID)
	req.ServiceID = strings.TrimSpace(req.ServiceID)
	req.EmployeeID = strings.TrimSpace(req.EmployeeID)
	req.Date = strings.TrimSpace(req.Date)
	req.Time = strings.TrimSpace(req.Time)
	req.ClientName = sanitizer.NormalizeName(req.ClientName)
	req.ClientPhone = sanitizer.NormalizePhone(req.ClientPhone)
	req.Notes = sanitizer.NormalizeNotes(req.Notes)
}

// requestHash fingerprints a create request so a reused idempotency key can
// be told apart from a genuine retry.
func requestHash(principal auth.Principal, req *model.BookingRequest) string {
	h := sha256.New()
	for _, part := range []string{
		principal.UserID,
		req.BusinessID,
		req.ServiceID,
		req.EmployeeID,
		req.Date,
		req.Time,
		req.ClientName,
		req.ClientPhone,
		req.Notes,
	} {
		h.Write([]byte(part))
		h.Write([]byte{0x1f})
	}
	return hex.EncodeToString(h.Sum(nil))
}
