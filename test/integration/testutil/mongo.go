//go:build integration

package testutil

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	DefaultMongoURI     = "mongodb://localhost:27017"
	DefaultDatabaseName = "agenda_integration"
	ConnectionTimeout   = 10 * time.Second
)

// Data collections emptied between tests. Indexes and validators stay.
var DataCollections = []string{"Schedules", "Slots", "Notifications"}

// MongoHelper provides MongoDB test utilities
type MongoHelper struct {
	Client   *mongo.Client
	Database *mongo.Database
	DBName   string
}

func NewMongoHelper(t *testing.T, mongoURI, dbName string) *MongoHelper {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), ConnectionTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(mongoURI))
	if err != nil {
		t.Fatalf("failed to connect to MongoDB: %v", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		t.Fatalf("failed to ping MongoDB: %v", err)
	}

	return &MongoHelper{
		Client:   client,
		Database: client.Database(dbName),
		DBName:   dbName,
	}
}

func (m *MongoHelper) Close(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := m.Client.Disconnect(ctx); err != nil {
		t.Logf("warning: failed to disconnect from MongoDB: %v", err)
	}
}

// CleanData deletes documents rather than dropping collections so the
// unique indexes created by the migration job survive.
func (m *MongoHelper) CleanData(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	for _, name := range DataCollections {
		if _, err := m.Database.Collection(name).DeleteMany(ctx, bson.M{}); err != nil {
			t.Fatalf("failed to clean collection %s: %v", name, err)
		}
	}
}

func (m *MongoHelper) CountDocuments(t *testing.T, collectionName string, filter bson.M) int64 {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	count, err := m.Database.Collection(collectionName).CountDocuments(ctx, filter)
	if err != nil {
		t.Fatalf("failed to count documents in %s: %v", collectionName, err)
	}
	return count
}

func (m *MongoHelper) GetCollection(collectionName string) *mongo.Collection {
	return m.Database.Collection(collectionName)
}

// SeedAdminSession stores an admin user and a session the services accept,
// and returns the signed token for it.
func SeedAdminSession(t *testing.T, m *MongoHelper, redisAddr, secret string) string {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	userID := "it-admin-" + uuid.NewString()
	sessionID := uuid.NewString()

	if _, err := m.Database.Collection("Users").InsertOne(ctx, bson.M{
		"_id":   userID,
		"email": "admin@example.com",
		"name":  "Integration Admin",
		"role":  "admin",
	}); err != nil {
		t.Fatalf("failed to seed admin user: %v", err)
	}
	t.Cleanup(func() {
		_, _ = m.Database.Collection("Users").DeleteOne(context.Background(), bson.M{"_id": userID})
	})

	rdb := redis.NewClient(&redis.Options{Addr: redisAddr})
	defer rdb.Close()
	session, _ := json.Marshal(map[string]string{"user_id": userID, "email": "admin@example.com"})
	if err := rdb.Set(ctx, "session:"+sessionID, session, time.Hour).Err(); err != nil {
		t.Fatalf("failed to seed session: %v", err)
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"session_id": sessionID,
		"exp":        time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return signed
}
