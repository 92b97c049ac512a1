package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"agenda/internal/scheduling"
	slotserrors "agenda/internal/slots/errors"
	"agenda/pkg/config"
	mongodb "agenda/pkg/db/mongo"
	"agenda/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	CollectionName = "Slots"
)

type SlotRepository interface {
	InsertIfAbsent(ctx context.Context, slot *model.TimeSlot) (bool, error)
	FindByID(ctx context.Context, id string) (*model.TimeSlot, error)
	FindByFilter(ctx context.Context, filter model.SlotFilter, limit int, offset int64) ([]*model.TimeSlot, error)
	Count(ctx context.Context, filter model.SlotFilter) (int64, error)
	FindExistingKeys(ctx context.Context, category string, from, to time.Time) (map[string]struct{}, error)
	UpdateByID(ctx context.Context, id string, slot *model.TimeSlot) error
	DeleteByID(ctx context.Context, id string) (*model.TimeSlot, error)
	Release(ctx context.Context, id string) (*model.TimeSlot, error)
}

type mongoSlotRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoSlotRepository(cfg *config.Config) SlotRepository {
	return &mongoSlotRepository{
		cfg:        cfg,
		collection: cfg.Client.Mongo.Database(cfg.MongoDatabaseName).Collection(CollectionName),
	}
}

func objectID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("%w: %s", slotserrors.ErrInvalidID, id)
	}
	return oid, nil
}

// InsertIfAbsent relies on the slot_unique_key index. It reports false, with
// no error, when a slot with the same date, time and category exists.
func (r *mongoSlotRepository) InsertIfAbsent(ctx context.Context, slot *model.TimeSlot) (bool, error) {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	now := time.Now().UTC().Truncate(time.Millisecond)
	slot.CreatedAt = now
	slot.UpdatedAt = now
	result, err := r.collection.InsertOne(ctx, slot)
	if err != nil {
		if mongodb.IsDuplicateKey(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to insert slot: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		slot.ID = oid.Hex()
	}
	return true, nil
}

func (r *mongoSlotRepository) FindByID(ctx context.Context, id string) (*model.TimeSlot, error) {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}

	var slot model.TimeSlot
	if err := r.collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&slot); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("%w: %s", slotserrors.ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to find slot: %w", err)
	}
	return &slot, nil
}

func filterQuery(f model.SlotFilter) bson.M {
	q := bson.M{}
	if f.From != nil || f.To != nil {
		dates := bson.M{}
		if f.From != nil {
			dates["$gte"] = *f.From
		}
		if f.To != nil {
			dates["$lte"] = *f.To
		}
		q["date"] = dates
	}
	if f.Category != "" {
		q["category"] = f.Category
	}
	if f.Available != nil {
		q["is_available"] = *f.Available
	}
	if f.Booked != nil {
		q["is_booked"] = *f.Booked
	}
	return q
}

var calendarOrder = bson.D{{Key: "date", Value: 1}, {Key: "time", Value: 1}, {Key: "category", Value: 1}}

func (r *mongoSlotRepository) FindByFilter(ctx context.Context, filter model.SlotFilter, limit int, offset int64) ([]*model.TimeSlot, error) {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().
		SetLimit(int64(limit)).
		SetSkip(offset).
		SetSort(calendarOrder)

	cursor, err := r.collection.Find(ctx, filterQuery(filter), opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query slots: %w", err)
	}
	defer cursor.Close(ctx)

	slots := []*model.TimeSlot{}
	if err := cursor.All(ctx, &slots); err != nil {
		return nil, fmt.Errorf("failed to decode slots: %w", err)
	}
	return slots, nil
}

func (r *mongoSlotRepository) Count(ctx context.Context, filter model.SlotFilter) (int64, error) {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, filterQuery(filter))
	if err != nil {
		return 0, fmt.Errorf("failed to count slots: %w", err)
	}
	return count, nil
}

// FindExistingKeys returns the SlotKey of every slot of category within
// [from, to], in one range query.
func (r *mongoSlotRepository) FindExistingKeys(ctx context.Context, category string, from, to time.Time) (map[string]struct{}, error) {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	query := bson.M{
		"category": category,
		"date":     bson.M{"$gte": from, "$lte": to},
	}
	opts := options.Find().SetProjection(bson.M{"date": 1, "time": 1, "_id": 0})

	cursor, err := r.collection.Find(ctx, query, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query existing slots: %w", err)
	}
	defer cursor.Close(ctx)

	keys := make(map[string]struct{})
	for cursor.Next(ctx) {
		var doc struct {
			Date time.Time `bson:"date"`
			Time string    `bson:"time"`
		}
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode existing slot: %w", err)
		}
		keys[scheduling.SlotKey(doc.Date, doc.Time)] = struct{}{}
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate existing slots: %w", err)
	}
	return keys, nil
}

// UpdateByID writes slot only while it is unbooked.
func (r *mongoSlotRepository) UpdateByID(ctx context.Context, id string, slot *model.TimeSlot) error {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	oid, err := objectID(id)
	if err != nil {
		return err
	}

	slot.UpdatedAt = time.Now().UTC().Truncate(time.Millisecond)
	update := bson.M{
		"$set": bson.M{
			"date":             slot.Date,
			"time":             slot.Time,
			"duration_minutes": slot.DurationMinutes,
			"category":         slot.Category,
			"is_available":     slot.IsAvailable,
			"updated_at":       slot.UpdatedAt,
		},
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": oid, "is_booked": false}, update)
	if err != nil {
		if mongodb.IsDuplicateKey(err) {
			return fmt.Errorf("%w: %s %s %s", slotserrors.ErrDuplicate, slot.Date.Format(time.DateOnly), slot.Time, slot.Category)
		}
		return fmt.Errorf("failed to update slot: %w", err)
	}
	if result.MatchedCount == 0 {
		return r.missOrBooked(ctx, oid, id)
	}
	return nil
}

// DeleteByID removes the slot only while it is unbooked.
func (r *mongoSlotRepository) DeleteByID(ctx context.Context, id string) (*model.TimeSlot, error) {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}

	var deleted model.TimeSlot
	err = r.collection.FindOneAndDelete(ctx, bson.M{"_id": oid, "is_booked": false}).Decode(&deleted)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, r.missOrBooked(ctx, oid, id)
		}
		return nil, fmt.Errorf("failed to delete slot: %w", err)
	}
	return &deleted, nil
}

func (r *mongoSlotRepository) Release(ctx context.Context, id string) (*model.TimeSlot, error) {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}

	update := bson.M{"$set": bson.M{
		"is_booked":    false,
		"is_available": true,
		"updated_at":   time.Now().UTC().Truncate(time.Millisecond),
	}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var released model.TimeSlot
	if err := r.collection.FindOneAndUpdate(ctx, bson.M{"_id": oid}, update, opts).Decode(&released); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("%w: %s", slotserrors.ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to release slot: %w", err)
	}
	return &released, nil
}

// missOrBooked explains why a write guarded by is_booked=false matched nothing.
func (r *mongoSlotRepository) missOrBooked(ctx context.Context, oid primitive.ObjectID, id string) error {
	count, err := r.collection.CountDocuments(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("failed to check slot: %w", err)
	}
	if count == 0 {
		return fmt.Errorf("%w: %s", slotserrors.ErrNotFound, id)
	}
	return fmt.Errorf("%w: %s", slotserrors.ErrBooked, id)
}
