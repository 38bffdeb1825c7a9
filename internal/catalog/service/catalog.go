package service

import (
	"context"
	"errors"

	catalogerrors "bizqueue/internal/catalog/errors"
	"bizqueue/internal/catalog/repository"
	"bizqueue/pkg/config"
	mongotx "bizqueue/pkg/db/mongo"
	apperrors "bizqueue/pkg/errors"
	"bizqueue/pkg/model"

	"golang.org/x/sync/errgroup"
)

// StatusReader is the slice of the availability store the catalog needs for details.
type StatusReader interface {
	Get(ctx context.Context, businessID string) (model.AvailabilityStatus, error)
}

type CatalogService interface {
	GetBusiness(ctx context.Context, id string) (*model.Business, error)
	// GetBusinesses returns the businesses found for ids keyed by id; unknown ids are absent.
	GetBusinesses(ctx context.Context, ids []string) (map[string]*model.Business, error)
	GetService(ctx context.Context, id string) (*model.Service, error)
	GetEmployee(ctx context.Context, id string) (*model.Employee, error)
	ListActiveServices(ctx context.Context, businessID string) ([]*model.Service, error)
	GetDetails(ctx context.Context, businessID string) (*model.BusinessDetails, error)
}

type catalogService struct {
	businesses repository.BusinessRepository
	services   repository.ServiceRepository
	employees  repository.EmployeeRepository
	status     StatusReader
	cfg        *config.Config
}

func NewCatalogService(
	businesses repository.BusinessRepository,
	services repository.ServiceRepository,
	employees repository.EmployeeRepository,
	status StatusReader,
	cfg *config.Config,
) CatalogService {
	return &catalogService{
		businesses: businesses,
		services:   services,
		employees:  employees,
		status:     status,
		cfg:        cfg,
	}
}

func (s *catalogService) GetBusiness(ctx context.Context, id string) (*model.Business, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Business ID cannot be empty")
	}

	b, err := s.businesses.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, catalogerrors.ErrNotFound) || errors.Is(err, catalogerrors.ErrInvalidID) {
			return nil, apperrors.NotFoundWithID("Business", id)
		}
		s.cfg.Log.Error("Failed to get business by ID",
			"id", id,
			"error", err,
		)
		return nil, mongotx.ToAppError(err, "Failed to retrieve business")
	}
	return b, nil
}

func (s *catalogService) GetBusinesses(ctx context.Context, ids []string) (map[string]*model.Business, error) {
	result := make(map[string]*model.Business, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	businesses, err := s.businesses.FindByIDs(ctx, ids)
	if err != nil {
		s.cfg.Log.Error("Failed to batch-load businesses",
			"count", len(ids),
			"error", err,
		)
		return nil, mongotx.ToAppError(err, "Failed to retrieve businesses")
	}

	for _, b := range businesses {
		result[b.ID] = b
	}
	return result, nil
}

func (s *catalogService) GetService(ctx context.Context, id string) (*model.Service, error) {
	svc, err := s.services.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, catalogerrors.ErrServiceNotFound) || errors.Is(err, catalogerrors.ErrInvalidID) {
			return nil, apperrors.NotFoundWithID("Service", id)
		}
		s.cfg.Log.Error("Failed to get service by ID", "id", id, "error", err)
		return nil, mongotx.ToAppError(err, "Failed to retrieve service")
	}
	return svc, nil
}

func (s *catalogService) GetEmployee(ctx context.Context, id string) (*model.Employee, error) {
	e, err := s.employees.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, catalogerrors.ErrEmployeeNotFound) || errors.Is(err, catalogerrors.ErrInvalidID) {
			return nil, apperrors.NotFoundWithID("Employee", id)
		}
		s.cfg.Log.Error("Failed to get employee by ID", "id", id, "error", err)
		return nil, mongotx.ToAppError(err, "Failed to retrieve employee")
	}
	return e, nil
}

func (s *catalogService) ListActiveServices(ctx context.Context, businessID string) ([]*model.Service, error) {
	if _, err := s.GetBusiness(ctx, businessID); err != nil {
		return nil, err
	}

	services, err := s.services.FindActiveByBusiness(ctx, businessID)
	if err != nil {
		s.cfg.Log.Error("Failed to list services",
			"business_id", businessID,
			"error", err,
		)
		return nil, mongotx.ToAppError(err, "Failed to retrieve services")
	}
	return services, nil
}

func (s *catalogService) GetDetails(ctx context.Context, businessID string) (*model.BusinessDetails, error) {
	business, err := s.GetBusiness(ctx, businessID)
	if err != nil {
		return nil, err
	}

	details := &model.BusinessDetails{Business: business}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		status, err := s.status.Get(gctx, businessID)
		if err != nil {
			return err
		}
		details.Status = status
		return nil
	})
	g.Go(func() error {
		services, err := s.services.FindActiveByBusiness(gctx, businessID)
		if err != nil {
			s.cfg.Log.Error("Failed to list services for details",
				"business_id", businessID,
				"error", err,
			)
			return mongotx.ToAppError(err, "Failed to retrieve services")
		}
		details.Services = services
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return details, nil
}
