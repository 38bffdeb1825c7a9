package service

import (
	"context"
	"errors"

	"bizqueue/internal/geoindex"
	"bizqueue/pkg/config"
	mongotx "bizqueue/pkg/db/mongo"
	apperrors "bizqueue/pkg/errors"
	"bizqueue/pkg/model"
	"bizqueue/pkg/telemetry"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

type Index interface {
	Search(ctx context.Context, q geoindex.Query) (geoindex.Result, error)
}

type BusinessReader interface {
	GetBusinesses(ctx context.Context, ids []string) (map[string]*model.Business, error)
}

type StatusReader interface {
	GetMany(ctx context.Context, businessIDs []string) ([]model.AvailabilityStatus, error)
}

type DiscoveryService interface {
	// Discover returns one page of matching businesses with their current
	// availability, in index order, and the total number of matches.
	Discover(ctx context.Context, q geoindex.Query) ([]model.DiscoveryItem, int64, error)
}

type discoveryService struct {
	index      Index
	businesses BusinessReader
	statuses   StatusReader
	cfg        *config.Config
}

func NewDiscoveryService(index Index, businesses BusinessReader, statuses StatusReader, cfg *config.Config) DiscoveryService {
	return &discoveryService{
		index:      index,
		businesses: businesses,
		statuses:   statuses,
		cfg:        cfg,
	}
}

func (s *discoveryService) Discover(ctx context.Context, q geoindex.Query) ([]model.DiscoveryItem, int64, error) {
	ctx, span := telemetry.Tracer().Start(ctx, "discovery.Discover", trace.WithAttributes(
		attribute.Bool("query.has_center", q.Center != nil),
		attribute.Float64("query.radius_km", q.RadiusKm),
		attribute.String("query.order", string(q.Order)),
	))
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, s.cfg.DiscoveryTimeout)
	defer cancel()

	items, total, err := s.discover(ctx, q)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "discover failed")
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			s.cfg.Log.Warn("Discovery deadline exceeded", "timeout", s.cfg.DiscoveryTimeout)
			return nil, 0, apperrors.Timeout("Discovery took too long, please retry")
		}
		s.cfg.Log.Error("Discovery failed", "error", err)
		return nil, 0, mongotx.ToAppError(err, "Failed to discover businesses")
	}

	span.SetAttributes(attribute.Int("result.count", len(items)), attribute.Int64("result.total", total))
	return items, total, nil
}

func (s *discoveryService) discover(ctx context.Context, q geoindex.Query) ([]model.DiscoveryItem, int64, error) {
	result, err := s.index.Search(ctx, q)
	if err != nil {
		return nil, 0, err
	}
	if len(result.Hits) == 0 {
		return []model.DiscoveryItem{}, result.Total, nil
	}

	ids := make([]string, len(result.Hits))
	for i, h := range result.Hits {
		ids[i] = h.BusinessID
	}

	var (
		businesses map[string]*model.Business
		statuses   []model.AvailabilityStatus
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		businesses, err = s.businesses.GetBusinesses(gctx, ids)
		return err
	})
	g.Go(func() error {
		var err error
		statuses, err = s.statuses.GetMany(gctx, ids)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, 0, err
	}

	items := make([]model.DiscoveryItem, 0, len(result.Hits))
	for i, h := range result.Hits {
		b, ok := businesses[h.BusinessID]
		if !ok {
			// deleted between the index scan and the batch load
			continue
		}
		items = append(items, model.DiscoveryItem{
			ID:         b.ID,
			Name:       b.Name,
			Type:       b.Type,
			Address:    b.Address,
			Lat:        b.Location.Lat,
			Lon:        b.Location.Lon,
			DistanceKm: h.DistanceKm,
			Status:     model.NewStatusView(statuses[i]),
		})
	}
	return items, result.Total, nil
}
