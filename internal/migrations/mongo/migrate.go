package mongo

import (
	"context"
	"fmt"

	availabilityrepo "bizqueue/internal/availability/repository"
	bookingsrepo "bizqueue/internal/bookings/repository"
	catalogrepo "bizqueue/internal/catalog/repository"
	"bizqueue/internal/migrations/mongo/validators"
	"bizqueue/pkg/logger"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type CollectionDefinition struct {
	Name      string
	Indexes   []mongo.IndexModel
	Validator bson.M
}

var (
	BusinessesIndexes = []mongo.IndexModel{
		// bounding-box prefilter
		{Keys: bson.D{
			{Key: "is_active", Value: 1},
			{Key: "location.lat", Value: 1},
			{Key: "location.lon", Value: 1},
		}},
		{Keys: bson.D{
			{Key: "is_active", Value: 1},
			{Key: "type", Value: 1},
			{Key: "name", Value: 1},
		}},
	}

	ServicesIndexes = []mongo.IndexModel{
		{Keys: bson.D{
			{Key: "business_id", Value: 1},
			{Key: "is_active", Value: 1},
			{Key: "name", Value: 1},
		}},
	}

	EmployeesIndexes = []mongo.IndexModel{
		{Keys: bson.D{{Key: "business_id", Value: 1}}},
	}

	BookingsIndexes = []mongo.IndexModel{
		{Keys: bson.D{
			{Key: "user_id", Value: 1},
			{Key: "slot_date", Value: -1},
			{Key: "slot_time", Value: -1},
		}},
		{Keys: bson.D{
			{Key: "business_id", Value: 1},
			{Key: "status", Value: 1},
			{Key: "slot_date", Value: -1},
			{Key: "slot_time", Value: -1},
		}},
		{Keys: bson.D{
			{Key: "business_id", Value: 1},
			{Key: "employee_id", Value: 1},
			{Key: "slot_date", Value: 1},
			{Key: "slot_time", Value: 1},
		}},
		{
			Keys:    bson.D{{Key: "idempotency_key", Value: 1}},
			Options: options.Index().SetUnique(true).SetSparse(true),
		},
	}

	SlotLocksIndexes = []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "expires_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(0),
		},
	}
)

func Collections() []CollectionDefinition {
	return []CollectionDefinition{
		{Name: catalogrepo.BusinessesCollection, Indexes: BusinessesIndexes, Validator: validators.BusinessValidator},
		{Name: catalogrepo.ServicesCollection, Indexes: ServicesIndexes, Validator: validators.ServiceValidator},
		{Name: catalogrepo.EmployeesCollection, Indexes: EmployeesIndexes, Validator: validators.EmployeeValidator},
		{Name: availabilityrepo.StatusCollection, Validator: validators.AvailabilityStatusValidator},
		{Name: bookingsrepo.CollectionName, Indexes: BookingsIndexes, Validator: validators.BookingValidator},
		{Name: bookingsrepo.SlotLockCollection, Indexes: SlotLocksIndexes, Validator: validators.SlotLockValidator},
	}
}

func RunMigration(ctx context.Context, db *mongo.Database, log *logger.Logger) error {
	log.Info("Running Mongo migrations", "database", db.Name())

	for _, def := range Collections() {
		if err := ensureCollection(ctx, db, def.Name, def.Validator, log); err != nil {
			return fmt.Errorf("failed to ensure collection %s: %w", def.Name, err)
		}
		if err := ensureIndexes(ctx, db, def.Name, def.Indexes, log); err != nil {
			return fmt.Errorf("failed to ensure indexes for %s: %w", def.Name, err)
		}
	}

	log.Info("All migrations applied successfully")
	return nil
}

func ensureCollection(ctx context.Context, db *mongo.Database, name string, validator bson.M, log *logger.Logger) error {
	existing, err := db.ListCollectionNames(ctx, bson.D{{Key: "name", Value: name}})
	if err != nil {
		return err
	}

	if len(existing) == 0 {
		log.Info("Creating collection", "collection", name)
		opts := options.CreateCollection().SetValidator(validator)
		if err := db.CreateCollection(ctx, name, opts); err != nil {
			return fmt.Errorf("failed creating %s: %w", name, err)
		}
		return nil
	}

	log.Info("Collection exists, updating validator", "collection", name)
	command := bson.D{
		{Key: "collMod", Value: name},
		{Key: "validator", Value: validator},
	}
	if err := db.RunCommand(ctx, command).Err(); err != nil {
		log.Warn("Failed updating validator", "collection", name, "error", err)
	}
	return nil
}

func ensureIndexes(ctx context.Context, db *mongo.Database, name string, models []mongo.IndexModel, log *logger.Logger) error {
	if len(models) == 0 {
		return nil
	}
	if _, err := db.Collection(name).Indexes().CreateMany(ctx, models); err != nil {
		return err
	}
	log.Info("Ensured indexes", "collection", name, "count", len(models))
	return nil
}
