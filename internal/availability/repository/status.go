package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	availabilityerrors "bizqueue/internal/availability/errors"
	"bizqueue/pkg/config"
	"bizqueue/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	StatusCollection = "Availability_statuses"
)

type StatusWrite struct {
	State       model.AvailabilityState
	WaitMinutes int
	QueueCount  int
	At          time.Time
	// ExpectedVersion turns the write into a compare-and-set on version.
	ExpectedVersion *int64
}

type StatusRepository interface {
	FindByID(ctx context.Context, businessID string) (*model.AvailabilityStatus, error)
	// FindByIDs returns the stored records among ids; absent ids are simply missing.
	FindByIDs(ctx context.Context, businessIDs []string) ([]*model.AvailabilityStatus, error)
	// Upsert applies w in one atomic operation. A write older than the stored
	// updated_at loses and the stored record is returned unchanged.
	Upsert(ctx context.Context, businessID string, w StatusWrite) (*model.AvailabilityStatus, error)
}

type mongoStatusRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoStatusRepository(cfg *config.Config) StatusRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoStatusRepository{
		cfg:        cfg,
		collection: db.Collection(StatusCollection),
	}
}

func (r *mongoStatusRepository) FindByID(ctx context.Context, businessID string) (*model.AvailabilityStatus, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	var status model.AvailabilityStatus
	err := r.collection.FindOne(ctx, bson.M{"_id": businessID}).Decode(&status)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("%w: %s", availabilityerrors.ErrNotFound, businessID)
		}
		return nil, fmt.Errorf("failed to find availability status: %w", err)
	}
	return &status, nil
}

func (r *mongoStatusRepository) FindByIDs(ctx context.Context, businessIDs []string) ([]*model.AvailabilityStatus, error) {
	if len(businessIDs) == 0 {
		return []*model.AvailabilityStatus{}, nil
	}

	ctx, cancel := withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	cursor, err := r.collection.Find(ctx, bson.M{"_id": bson.M{"$in": businessIDs}})
	if err != nil {
		return nil, fmt.Errorf("failed to find availability statuses: %w", err)
	}
	defer cursor.Close(ctx)

	var statuses []*model.AvailabilityStatus
	if err := cursor.All(ctx, &statuses); err != nil {
		return nil, fmt.Errorf("failed to decode availability statuses: %w", err)
	}
	return statuses, nil
}

func (r *mongoStatusRepository) Upsert(ctx context.Context, businessID string, w StatusWrite) (*model.AvailabilityStatus, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	filter, upsert := buildUpsertFilter(businessID, w)
	update := bson.M{
		"$set": bson.M{
			"state":                  w.State,
			"estimated_wait_minutes": w.WaitMinutes,
			"current_queue_count":    w.QueueCount,
			"updated_at":             w.At,
		},
		"$inc": bson.M{"version": int64(1)},
	}
	opts := options.FindOneAndUpdate().
		SetUpsert(upsert).
		SetReturnDocument(options.After)

	var status model.AvailabilityStatus
	err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&status)
	if mongo.IsDuplicateKeyError(err) {
		// A concurrent first publish inserted the record; the guarded update
		// now decides last-writer-wins against it.
		opts.SetUpsert(false)
		err = r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&status)
	}
	if err == nil {
		return &status, nil
	}

	// The guarded filter missed: either a newer write is stored, the version
	// moved on, or (for a CAS on a positive version) the record never existed.
	if errors.Is(err, mongo.ErrNoDocuments) || mongo.IsDuplicateKeyError(err) {
		return r.resolveMiss(ctx, businessID, w)
	}
	return nil, fmt.Errorf("failed to upsert availability status: %w", err)
}

func (r *mongoStatusRepository) resolveMiss(ctx context.Context, businessID string, w StatusWrite) (*model.AvailabilityStatus, error) {
	current, err := r.FindByID(ctx, businessID)
	if err != nil {
		if errors.Is(err, availabilityerrors.ErrNotFound) && w.ExpectedVersion != nil {
			return nil, fmt.Errorf("%w: %s expected %d, record absent",
				availabilityerrors.ErrVersionConflict, businessID, *w.ExpectedVersion)
		}
		return nil, err
	}
	if w.ExpectedVersion != nil && current.Version != *w.ExpectedVersion {
		return nil, fmt.Errorf("%w: %s expected %d, stored %d",
			availabilityerrors.ErrVersionConflict, businessID, *w.ExpectedVersion, current.Version)
	}
	return current, nil
}

// buildUpsertFilter guards the write with last-writer-wins on updated_at and,
// when requested, an exact version match. Insertion is only allowed when the
// caller expects no prior record.
func buildUpsertFilter(businessID string, w StatusWrite) (bson.M, bool) {
	filter := bson.M{
		"_id": businessID,
		"$or": bson.A{
			bson.M{"updated_at": bson.M{"$lte": w.At}},
			bson.M{"updated_at": bson.M{"$exists": false}},
		},
	}
	upsert := true
	if w.ExpectedVersion != nil {
		filter["version"] = *w.ExpectedVersion
		upsert = *w.ExpectedVersion == 0
	}
	return filter, upsert
}

func withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if deadline, ok := ctx.Deadline(); ok && time.Until(deadline) < timeout {
		return context.WithDeadline(ctx, deadline)
	}
	return context.WithTimeout(ctx, timeout)
}
