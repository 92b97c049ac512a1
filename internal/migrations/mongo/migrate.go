package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"agenda/internal/migrations/mongo/validators"
	"agenda/pkg/logger"
)

const (
	SchedulesCollection     = "Schedules"
	SlotsCollection         = "Slots"
	NotificationsCollection = "Notifications"
)

var (
	SchedulesIndexes = []mongo.IndexModel{
		{Keys: bson.D{
			{Key: "day_of_week", Value: 1},
			{Key: "is_active", Value: 1},
			{Key: "category", Value: 1},
		}},
		{Keys: bson.D{{Key: "day_of_week", Value: 1}, {Key: "start_time", Value: 1}}},
	}

	// slot_unique_key is what makes bulk generation idempotent.
	SlotsIndexes = []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "date", Value: 1},
				{Key: "time", Value: 1},
				{Key: "category", Value: 1},
			},
			Options: options.Index().SetName("slot_unique_key").SetUnique(true),
		},
		{Keys: bson.D{{Key: "category", Value: 1}, {Key: "date", Value: 1}}},
		{Keys: bson.D{{Key: "is_available", Value: 1}, {Key: "is_booked", Value: 1}, {Key: "date", Value: 1}}},
	}

	NotificationsIndexes = []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "event_id", Value: 1},
				{Key: "audience", Value: 1},
				{Key: "recipient_id", Value: 1},
			},
			Options: options.Index().SetName("notification_unique_key").SetUnique(true),
		},
		{Keys: bson.D{
			{Key: "audience", Value: 1},
			{Key: "read", Value: 1},
			{Key: "created_at", Value: -1},
		}},
	}
)

type collectionDef struct {
	Indexes   []mongo.IndexModel
	Validator bson.M
}

func collections() map[string]collectionDef {
	return map[string]collectionDef{
		SchedulesCollection: {
			Indexes:   SchedulesIndexes,
			Validator: validators.ScheduleValidator,
		},
		SlotsCollection: {
			Indexes:   SlotsIndexes,
			Validator: validators.SlotValidator,
		},
		NotificationsCollection: {
			Indexes:   NotificationsIndexes,
			Validator: validators.NotificationValidator,
		},
	}
}

func RunMigration(ctx context.Context, client *mongo.Client, dbName string, log *logger.Logger) error {
	db := client.Database(dbName)
	log.Info("Running Mongo migrations", "database", dbName)

	for name, def := range collections() {
		if err := ensureCollection(ctx, db, name, def.Validator, log); err != nil {
			return fmt.Errorf("failed to ensure collection %s: %w", name, err)
		}
		if err := ensureIndexes(ctx, db, name, def.Indexes, log); err != nil {
			return fmt.Errorf("failed to ensure indexes for %s: %w", name, err)
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
	coll := db.Collection(name)
	if _, err := coll.Indexes().CreateMany(ctx, models); err != nil {
		return err
	}
	log.Info("Ensured indexes", "collection", name, "count", len(models))
	return nil
}
