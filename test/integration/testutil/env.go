//go:build integration

package testutil

import (
	"os"
	"testing"
)

type TestEnv struct {
	MongoURI      string
	DatabaseName  string
	RedisAddr     string
	SessionSecret string
	SchedulesURL  string
	SlotsURL      string
}

func NewTestEnv() *TestEnv {
	return &TestEnv{
		MongoURI:      getEnv("TEST_MONGO_URI", DefaultMongoURI),
		DatabaseName:  getEnv("TEST_DB_NAME", DefaultDatabaseName),
		RedisAddr:     getEnv("TEST_REDIS_ADDR", "localhost:6379"),
		SessionSecret: getEnv("TEST_SESSION_SECRET", "integration-session-secret"),
		SchedulesURL:  getEnv("TEST_SCHEDULES_URL", "http://localhost:8081"),
		SlotsURL:      getEnv("TEST_SLOTS_URL", "http://localhost:8082"),
	}
}

// Setup cleans the data collections, seeds an admin session and returns
// authenticated clients for the schedules and slots services.
func (e *TestEnv) Setup(t *testing.T) (mongo *MongoHelper, schedules, slots *Client) {
	t.Helper()

	mongo = NewMongoHelper(t, e.MongoURI, e.DatabaseName)
	mongo.CleanData(t)

	token := SeedAdminSession(t, mongo, e.RedisAddr, e.SessionSecret)

	schedules = NewClient(e.SchedulesURL, token)
	schedules.WaitForHealthy(t, DefaultHealthCheckTimeout)
	slots = NewClient(e.SlotsURL, token)
	slots.WaitForHealthy(t, DefaultHealthCheckTimeout)

	return mongo, schedules, slots
}

func (e *TestEnv) Cleanup(t *testing.T, mongo *MongoHelper) {
	t.Helper()

	if mongo != nil {
		mongo.CleanData(t)
		mongo.Close(t)
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

const (
	DefaultHealthCheckTimeout = 3 * ConnectionTimeout
)
