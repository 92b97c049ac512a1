package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	scheduleserrors "agenda/internal/schedules/errors"
	"agenda/pkg/config"
	mongodb "agenda/pkg/db/mongo"
	"agenda/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	CollectionName = "Schedules"
)

type mongoScheduleRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
	txManager  mongodb.TransactionManager
}

type ScheduleRepository interface {
	Create(ctx context.Context, sc *model.RecurringSchedule) error
	FindByID(ctx context.Context, id string) (*model.RecurringSchedule, error)
	FindByFilter(ctx context.Context, filter model.ScheduleFilter, limit int, offset int64) ([]*model.RecurringSchedule, error)
	Count(ctx context.Context, filter model.ScheduleFilter) (int64, error)
	FindActiveByDay(ctx context.Context, day int, categories []string) ([]model.RecurringSchedule, error)
	FindActive(ctx context.Context, categories []string) ([]model.RecurringSchedule, error)
	Update(ctx context.Context, id string, sc *model.RecurringSchedule) error
	Delete(ctx context.Context, id string) (*model.RecurringSchedule, error)
	ExecuteTransaction(ctx context.Context, fn mongodb.TransactionFunc) error
}

func NewMongoScheduleRepository(cfg *config.Config) ScheduleRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoScheduleRepository{
		cfg:        cfg,
		collection: db.Collection(CollectionName),
		txManager:  mongodb.NewTransactionManager(cfg.Client.Mongo),
	}
}

func objectID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("%w: %s", scheduleserrors.ErrInvalidID, id)
	}
	return oid, nil
}

func (r *mongoScheduleRepository) Create(ctx context.Context, sc *model.RecurringSchedule) error {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	now := time.Now().UTC().Truncate(time.Millisecond)
	sc.CreatedAt = now
	sc.UpdatedAt = now
	result, err := r.collection.InsertOne(ctx, sc)
	if err != nil {
		return fmt.Errorf("failed to create schedule: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		sc.ID = oid.Hex()
	}
	return nil
}

func (r *mongoScheduleRepository) FindByID(ctx context.Context, id string) (*model.RecurringSchedule, error) {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}

	var sc model.RecurringSchedule
	err = r.collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&sc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("%w: %s", scheduleserrors.ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to find schedule: %w", err)
	}

	return &sc, nil
}

func filterQuery(f model.ScheduleFilter) bson.M {
	q := bson.M{}
	if f.DayOfWeek != nil {
		q["day_of_week"] = *f.DayOfWeek
	}
	if f.Category != "" {
		q["category"] = f.Category
	}
	if f.Active != nil {
		q["is_active"] = *f.Active
	}
	return q
}

var weeklyOrder = bson.D{{Key: "day_of_week", Value: 1}, {Key: "start_time", Value: 1}}

func (r *mongoScheduleRepository) FindByFilter(ctx context.Context, filter model.ScheduleFilter, limit int, offset int64) ([]*model.RecurringSchedule, error) {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().
		SetLimit(int64(limit)).
		SetSkip(offset).
		SetSort(weeklyOrder)

	cursor, err := r.collection.Find(ctx, filterQuery(filter), opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query schedules: %w", err)
	}
	defer cursor.Close(ctx)

	schedules := []*model.RecurringSchedule{}
	if err = cursor.All(ctx, &schedules); err != nil {
		return nil, fmt.Errorf("failed to decode schedules: %w", err)
	}
	return schedules, nil
}

func (r *mongoScheduleRepository) Count(ctx context.Context, filter model.ScheduleFilter) (int64, error) {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, filterQuery(filter))
	if err != nil {
		return 0, fmt.Errorf("failed to count schedules: %w", err)
	}
	return count, nil
}

// FindActiveByDay returns the conflict peers of a proposal: active schedules
// on day whose category is one of categories.
func (r *mongoScheduleRepository) FindActiveByDay(ctx context.Context, day int, categories []string) ([]model.RecurringSchedule, error) {
	return r.findActive(ctx, bson.M{
		"is_active":   true,
		"day_of_week": day,
		"category":    bson.M{"$in": categories},
	})
}

func (r *mongoScheduleRepository) FindActive(ctx context.Context, categories []string) ([]model.RecurringSchedule, error) {
	return r.findActive(ctx, bson.M{
		"is_active": true,
		"category":  bson.M{"$in": categories},
	})
}

func (r *mongoScheduleRepository) findActive(ctx context.Context, query bson.M) ([]model.RecurringSchedule, error) {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	cursor, err := r.collection.Find(ctx, query, options.Find().SetSort(weeklyOrder))
	if err != nil {
		return nil, fmt.Errorf("failed to query active schedules: %w", err)
	}
	defer cursor.Close(ctx)

	var schedules []model.RecurringSchedule
	if err = cursor.All(ctx, &schedules); err != nil {
		return nil, fmt.Errorf("failed to decode active schedules: %w", err)
	}
	return schedules, nil
}

func (r *mongoScheduleRepository) Update(ctx context.Context, id string, sc *model.RecurringSchedule) error {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	oid, err := objectID(id)
	if err != nil {
		return err
	}

	sc.UpdatedAt = time.Now().UTC().Truncate(time.Millisecond)
	update := bson.M{
		"$set": bson.M{
			"title":            sc.Title,
			"day_of_week":      sc.DayOfWeek,
			"start_time":       sc.StartTime,
			"end_time":         sc.EndTime,
			"category":         sc.Category,
			"max_participants": sc.MaxParticipants,
			"is_active":        sc.IsActive,
			"updated_at":       sc.UpdatedAt,
		},
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": oid}, update)
	if err != nil {
		return fmt.Errorf("failed to update schedule: %w", err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("%w: %s", scheduleserrors.ErrNotFound, id)
	}
	return nil
}

func (r *mongoScheduleRepository) Delete(ctx context.Context, id string) (*model.RecurringSchedule, error) {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}

	var deleted model.RecurringSchedule
	err = r.collection.FindOneAndDelete(ctx, bson.M{"_id": oid}).Decode(&deleted)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("%w: %s", scheduleserrors.ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to delete schedule: %w", err)
	}
	return &deleted, nil
}

func (r *mongoScheduleRepository) ExecuteTransaction(ctx context.Context, fn mongodb.TransactionFunc) error {
	return r.txManager.ExecuteTransaction(ctx, fn)
}
