// Package geoindex answers proximity queries over the business catalog.
//
// Storage narrows candidates with an axis-aligned box; every survivor is then
// re-scored with great-circle distance, cut at the radius, ordered and paged
// here so that pagination always runs over the final ordered sequence.
package geoindex

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"bizqueue/pkg/geo"
	"bizqueue/pkg/model"
)

type Order string

const (
	OrderDistance Order = "distance"
	OrderName     Order = "name"
)

func ParseOrder(s string) (Order, bool) {
	switch Order(s) {
	case "", OrderDistance:
		return OrderDistance, true
	case OrderName:
		return OrderName, true
	}
	return "", false
}

// Source is the catalog storage GeoIndex scans.
type Source interface {
	FindCandidates(ctx context.Context, box geo.Box, filter model.BusinessFilter) ([]*model.GeoCandidate, error)
	FindByFilter(ctx context.Context, filter model.BusinessFilter, limit int, offset int64) ([]*model.GeoCandidate, error)
	CountByFilter(ctx context.Context, filter model.BusinessFilter) (int64, error)
}

type Query struct {
	// Center is nil for a plain attribute search.
	Center   *model.Point
	RadiusKm float64
	Filter   model.BusinessFilter
	Order    Order
	Limit    int
	Offset   int64
}

type Hit struct {
	BusinessID string
	// DistanceKm is nil when the query had no center.
	DistanceKm *float64
}

type Result struct {
	Hits  []Hit
	Total int64
}

type Index struct {
	source Source
}

func New(source Source) *Index {
	return &Index{source: source}
}

func (i *Index) Search(ctx context.Context, q Query) (Result, error) {
	if q.Center == nil {
		return i.searchByAttributes(ctx, q)
	}
	if q.RadiusKm <= 0 {
		return Result{Hits: []Hit{}}, nil
	}

	center := geo.Point{Lat: q.Center.Lat, Lon: q.Center.Lon}
	candidates, err := i.source.FindCandidates(ctx, geo.BoxAround(center, q.RadiusKm), q.Filter)
	if err != nil {
		return Result{}, fmt.Errorf("failed to load candidates: %w", err)
	}

	scored := make([]scoredCandidate, 0, len(candidates))
	for _, c := range candidates {
		d := geo.DistanceKm(center, geo.Point{Lat: c.Location.Lat, Lon: c.Location.Lon})
		if d > q.RadiusKm {
			continue
		}
		scored = append(scored, scoredCandidate{candidate: c, distance: d})
	}

	sortScored(scored, q.Order)

	total := int64(len(scored))
	page := paginate(scored, q.Limit, q.Offset)

	hits := make([]Hit, 0, len(page))
	for _, s := range page {
		d := s.distance
		hits = append(hits, Hit{BusinessID: s.candidate.ID, DistanceKm: &d})
	}
	return Result{Hits: hits, Total: total}, nil
}

func (i *Index) searchByAttributes(ctx context.Context, q Query) (Result, error) {
	total, err := i.source.CountByFilter(ctx, q.Filter)
	if err != nil {
		return Result{}, fmt.Errorf("failed to count businesses: %w", err)
	}
	if total == 0 || q.Offset >= total {
		return Result{Hits: []Hit{}, Total: total}, nil
	}

	candidates, err := i.source.FindByFilter(ctx, q.Filter, q.Limit, q.Offset)
	if err != nil {
		return Result{}, fmt.Errorf("failed to list businesses: %w", err)
	}

	hits := make([]Hit, 0, len(candidates))
	for _, c := range candidates {
		hits = append(hits, Hit{BusinessID: c.ID})
	}
	return Result{Hits: hits, Total: total}, nil
}

type scoredCandidate struct {
	candidate *model.GeoCandidate
	distance  float64
}

func sortScored(scored []scoredCandidate, order Order) {
	sort.SliceStable(scored, func(a, b int) bool {
		x, y := scored[a], scored[b]
		if order == OrderName {
			if c := strings.Compare(x.candidate.Name, y.candidate.Name); c != 0 {
				return c < 0
			}
		} else if x.distance != y.distance {
			return x.distance < y.distance
		}
		return x.candidate.ID < y.candidate.ID
	})
}

func paginate(scored []scoredCandidate, limit int, offset int64) []scoredCandidate {
	if offset < 0 {
		offset = 0
	}
	if offset >= int64(len(scored)) {
		return nil
	}
	end := len(scored)
	if limit > 0 && offset+int64(limit) < int64(end) {
		end = int(offset) + limit
	}
	return scored[offset:end]
}
