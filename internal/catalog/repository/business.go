package repository

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	catalogerrors "bizqueue/internal/catalog/errors"
	"bizqueue/pkg/config"
	"bizqueue/pkg/geo"
	"bizqueue/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	BusinessesCollection = "Businesses"
)

var candidateProjection = bson.D{
	{Key: "_id", Value: 1},
	{Key: "name", Value: 1},
	{Key: "location", Value: 1},
}

type BusinessRepository interface {
	FindByID(ctx context.Context, id string) (*model.Business, error)
	FindByIDs(ctx context.Context, ids []string) ([]*model.Business, error)

	// FindCandidates returns every active business inside box matching filter, unordered.
	FindCandidates(ctx context.Context, box geo.Box, filter model.BusinessFilter) ([]*model.GeoCandidate, error)
	// FindByFilter pages through active businesses ordered by name, then id.
	FindByFilter(ctx context.Context, filter model.BusinessFilter, limit int, offset int64) ([]*model.GeoCandidate, error)
	CountByFilter(ctx context.Context, filter model.BusinessFilter) (int64, error)
}

type mongoBusinessRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoBusinessRepository(cfg *config.Config) BusinessRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoBusinessRepository{
		cfg:        cfg,
		collection: db.Collection(BusinessesCollection),
	}
}

func (r *mongoBusinessRepository) FindByID(ctx context.Context, id string) (*model.Business, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", catalogerrors.ErrInvalidID, id)
	}

	var b model.Business
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&b)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("%w: %s", catalogerrors.ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to find business: %w", err)
	}
	return &b, nil
}

func (r *mongoBusinessRepository) FindByIDs(ctx context.Context, ids []string) ([]*model.Business, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectIDs := toObjectIDs(ids)
	if len(objectIDs) == 0 {
		return []*model.Business{}, nil
	}

	cursor, err := r.collection.Find(ctx, bson.M{"_id": bson.M{"$in": objectIDs}})
	if err != nil {
		return nil, fmt.Errorf("failed to find businesses by ids: %w", err)
	}
	defer cursor.Close(ctx)

	var businesses []*model.Business
	if err := cursor.All(ctx, &businesses); err != nil {
		return nil, fmt.Errorf("failed to decode businesses: %w", err)
	}
	return businesses, nil
}

func (r *mongoBusinessRepository) FindCandidates(ctx context.Context, box geo.Box, filter model.BusinessFilter) ([]*model.GeoCandidate, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	query := buildBoxFilter(box, filter)
	opts := options.Find().SetProjection(candidateProjection)

	cursor, err := r.collection.Find(ctx, query, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find candidates in box: %w", err)
	}
	defer cursor.Close(ctx)

	var candidates []*model.GeoCandidate
	if err := cursor.All(ctx, &candidates); err != nil {
		return nil, fmt.Errorf("failed to decode candidates: %w", err)
	}
	return candidates, nil
}

func (r *mongoBusinessRepository) FindByFilter(ctx context.Context, filter model.BusinessFilter, limit int, offset int64) ([]*model.GeoCandidate, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().
		SetProjection(candidateProjection).
		SetSort(bson.D{{Key: "name", Value: 1}, {Key: "_id", Value: 1}}).
		SetLimit(int64(limit)).
		SetSkip(offset)

	cursor, err := r.collection.Find(ctx, buildAttributeFilter(filter), opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find businesses by filter: %w", err)
	}
	defer cursor.Close(ctx)

	var candidates []*model.GeoCandidate
	if err := cursor.All(ctx, &candidates); err != nil {
		return nil, fmt.Errorf("failed to decode businesses: %w", err)
	}
	return candidates, nil
}

func (r *mongoBusinessRepository) CountByFilter(ctx context.Context, filter model.BusinessFilter) (int64, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, buildAttributeFilter(filter))
	if err != nil {
		return 0, fmt.Errorf("failed to count businesses: %w", err)
	}
	return count, nil
}

func buildAttributeFilter(filter model.BusinessFilter) bson.M {
	query := bson.M{"is_active": true}
	if filter.Type != nil {
		query["type"] = string(*filter.Type)
	}
	if filter.Text != "" {
		// under $and so the antimeridian longitude $or can sit beside it
		text := bson.M{"$regex": regexp.QuoteMeta(filter.Text), "$options": "i"}
		query["$and"] = []bson.M{{"$or": []bson.M{{"name": text}, {"description": text}}}}
	}
	return query
}

func buildBoxFilter(box geo.Box, filter model.BusinessFilter) bson.M {
	query := buildAttributeFilter(filter)
	query["location.lat"] = bson.M{"$gte": box.MinLat, "$lte": box.MaxLat}

	lonRanges := make([]bson.M, 0, len(box.LonRanges))
	for _, lr := range box.LonRanges {
		lonRanges = append(lonRanges, bson.M{"location.lon": bson.M{"$gte": lr.Min, "$lte": lr.Max}})
	}
	if len(lonRanges) == 1 {
		query["location.lon"] = lonRanges[0]["location.lon"]
	} else {
		query["$or"] = lonRanges
	}
	return query
}

func toObjectIDs(ids []string) []primitive.ObjectID {
	seen := make(map[string]struct{}, len(ids))
	out := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		oid, err := primitive.ObjectIDFromHex(id)
		if err != nil {
			continue
		}
		out = append(out, oid)
	}
	return out
}

// withTimeout bounds a repository call unless it runs inside a transaction,
// where the SessionContext must be passed through unwrapped.
func withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if _, ok := ctx.(mongo.SessionContext); ok {
		return ctx, func() {}
	}

	if deadline, ok := ctx.Deadline(); ok && time.Until(deadline) < timeout {
		return context.WithDeadline(ctx, deadline)
	}
	return context.WithTimeout(ctx, timeout)
}
