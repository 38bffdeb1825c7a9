package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	catalogerrors "bizqueue/internal/catalog/errors"
	"bizqueue/pkg/config"
	apperrors "bizqueue/pkg/errors"
	"bizqueue/pkg/geo"
	"bizqueue/pkg/logger"
	"bizqueue/pkg/model"
)

type mockBusinessRepository struct {
	findByIDFunc  func(ctx context.Context, id string) (*model.Business, error)
	findByIDsFunc func(ctx context.Context, ids []string) ([]*model.Business, error)
}

func (m *mockBusinessRepository) FindByID(ctx context.Context, id string) (*model.Business, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, id)
	}
	return &model.Business{ID: id, Name: "Business " + id, IsActive: true}, nil
}

func (m *mockBusinessRepository) FindByIDs(ctx context.Context, ids []string) ([]*model.Business, error) {
	if m.findByIDsFunc != nil {
		return m.findByIDsFunc(ctx, ids)
	}
	return []*model.Business{}, nil
}

func (m *mockBusinessRepository) FindCandidates(ctx context.Context, box geo.Box, filter model.BusinessFilter) ([]*model.GeoCandidate, error) {
	return nil, nil
}

func (m *mockBusinessRepository) FindByFilter(ctx context.Context, filter model.BusinessFilter, limit int, offset int64) ([]*model.GeoCandidate, error) {
	return nil, nil
}

func (m *mockBusinessRepository) CountByFilter(ctx context.Context, filter model.BusinessFilter) (int64, error) {
	return 0, nil
}

type mockServiceRepository struct {
	findByIDFunc             func(ctx context.Context, id string) (*model.Service, error)
	findActiveByBusinessFunc func(ctx context.Context, businessID string) ([]*model.Service, error)
}

func (m *mockServiceRepository) FindByID(ctx context.Context, id string) (*model.Service, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, id)
	}
	return nil, fmt.Errorf("%w: %s", catalogerrors.ErrServiceNotFound, id)
}

func (m *mockServiceRepository) FindActiveByBusiness(ctx context.Context, businessID string) ([]*model.Service, error) {
	if m.findActiveByBusinessFunc != nil {
		return m.findActiveByBusinessFunc(ctx, businessID)
	}
	return []*model.Service{}, nil
}

type mockEmployeeRepository struct {
	findByIDFunc func(ctx context.Context, id string) (*model.Employee, error)
}

func (m *mockEmployeeRepository) FindByID(ctx context.Context, id string) (*model.Employee, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, id)
	}
	return nil, fmt.Errorf("%w: %s", catalogerrors.ErrEmployeeNotFound, id)
}

type mockStatusReader struct {
	getFunc func(ctx context.Context, businessID string) (model.AvailabilityStatus, error)
}

func (m *mockStatusReader) Get(ctx context.Context, businessID string) (model.AvailabilityStatus, error) {
	if m.getFunc != nil {
		return m.getFunc(ctx, businessID)
	}
	return model.DefaultAvailability(businessID), nil
}

func testConfig() *config.Config {
	return &config.Config{
		Log: logger.New(logger.Config{
			Level:     "info",
			Format:    logger.JSON,
			AddSource: false,
			Service:   "test",
		}),
		ReadTimeout: 5 * time.Second,
	}
}

func newTestService(b *mockBusinessRepository, s *mockServiceRepository, e *mockEmployeeRepository, st *mockStatusReader) CatalogService {
	if b == nil {
		b = &mockBusinessRepository{}
	}
	if s == nil {
		s = &mockServiceRepository{}
	}
	if e == nil {
		e = &mockEmployeeRepository{}
	}
	if st == nil {
		st = &mockStatusReader{}
	}
	return NewCatalogService(b, s, e, st, testConfig())
}

func TestGetBusiness_ErrorMapping(t *testing.T) {
	tests := []struct {
		name     string
		repoErr  error
		wantCode string
	}{
		{"not found", fmt.Errorf("%w: x", catalogerrors.ErrNotFound), apperrors.CodeNotFound},
		{"malformed id", fmt.Errorf("%w: x", catalogerrors.ErrInvalidID), apperrors.CodeNotFound},
		{"deadline", context.DeadlineExceeded, apperrors.CodeTimeout},
		{"unknown", errors.New("boom"), apperrors.CodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestService(&mockBusinessRepository{
				findByIDFunc: func(ctx context.Context, id string) (*model.Business, error) {
					return nil, tt.repoErr
				},
			}, nil, nil, nil)

			_, err := svc.GetBusiness(context.Background(), "x")
			if !apperrors.HasCode(err, tt.wantCode) {
				t.Errorf("expected code %s, got %v", tt.wantCode, err)
			}
		})
	}
}

func TestGetBusiness_EmptyID(t *testing.T) {
	svc := newTestService(nil, nil, nil, nil)
	_, err := svc.GetBusiness(context.Background(), "")
	if !apperrors.HasCode(err, apperrors.CodeInvalidInput) {
		t.Errorf("expected invalid input, got %v", err)
	}
}

func TestGetBusinesses_KeyedByID(t *testing.T) {
	svc := newTestService(&mockBusinessRepository{
		findByIDsFunc: func(ctx context.Context, ids []string) ([]*model.Business, error) {
			return []*model.Business{{ID: "b"}, {ID: "a"}}, nil
		},
	}, nil, nil, nil)

	got, err := svc.GetBusinesses(context.Background(), []string{"a", "b", "missing"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 || got["a"] == nil || got["b"] == nil {
		t.Errorf("expected a and b keyed by id, got %v", got)
	}
	if _, ok := got["missing"]; ok {
		t.Error("unknown ids must be absent")
	}
}

func TestGetBusinesses_EmptyInputSkipsStorage(t *testing.T) {
	called := false
	svc := newTestService(&mockBusinessRepository{
		findByIDsFunc: func(ctx context.Context, ids []string) ([]*model.Business, error) {
			called = true
			return nil, nil
		},
	}, nil, nil, nil)

	got, err := svc.GetBusinesses(context.Background(), nil)
	if err != nil || len(got) != 0 {
		t.Fatalf("expected empty map, got %v, %v", got, err)
	}
	if called {
		t.Error("storage must not be queried for an empty id list")
	}
}

func TestGetDetails_DefaultsStatus(t *testing.T) {
	svc := newTestService(nil, &mockServiceRepository{
		findActiveByBusinessFunc: func(ctx context.Context, businessID string) ([]*model.Service, error) {
			return []*model.Service{{ID: "s1", BusinessID: businessID, IsActive: true}}, nil
		},
	}, nil, nil)

	details, err := svc.GetDetails(context.Background(), "b1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if details.Business.ID != "b1" {
		t.Errorf("expected business b1, got %s", details.Business.ID)
	}
	if details.Status.State != model.StateAvailable || details.Status.UpdatedAt != nil {
		t.Errorf("expected default status, got %+v", details.Status)
	}
	if len(details.Services) != 1 {
		t.Errorf("expected 1 service, got %d", len(details.Services))
	}
}

func TestGetDetails_StatusFailurePropagates(t *testing.T) {
	svc := newTestService(nil, nil, nil, &mockStatusReader{
		getFunc: func(ctx context.Context, businessID string) (model.AvailabilityStatus, error) {
			return model.AvailabilityStatus{}, apperrors.Unavailable("storage")
		},
	})

	_, err := svc.GetDetails(context.Background(), "b1")
	if !apperrors.HasCode(err, apperrors.CodeUnavailable) {
		t.Errorf("expected unavailable, got %v", err)
	}
}

func TestListActiveServices_UnknownBusiness(t *testing.T) {
	svc := newTestService(&mockBusinessRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.Business, error) {
			return nil, fmt.Errorf("%w: %s", catalogerrors.ErrNotFound, id)
		},
	}, nil, nil, nil)

	_, err := svc.ListActiveServices(context.Background(), "nope")
	if !apperrors.HasCode(err, apperrors.CodeNotFound) {
		t.Errorf("expected not found, got %v", err)
	}
}
