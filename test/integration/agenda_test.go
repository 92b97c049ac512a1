//go:build integration

package integration

import (
	"context"
	"net/http"
	"testing"

	"agenda/test/integration/testutil"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type bulkResult struct {
	Created int `json:"created"`
	Skipped int `json:"skipped"`
	Errors  int `json:"errors"`
	Details []struct {
		Date   string `json:"date"`
		Time   string `json:"time"`
		Status string `json:"status"`
		ID     string `json:"id"`
	} `json:"details"`
}

func TestBulkGenerationIsIdempotent(t *testing.T) {
	env := testutil.NewTestEnv()
	mongo, _, slots := env.Setup(t)
	defer env.Cleanup(t, mongo)

	body := map[string]any{
		"startDate":    "2025-01-06",
		"endDate":      "2025-01-12",
		"timesOfDay":   []string{"14:00", "15:00"},
		"category":     "entrenamiento",
		"skipWeekends": true,
	}

	resp := slots.POST(t, "/api/v1/slots/bulk", body)
	testutil.AssertStatusCode(t, resp, http.StatusOK)
	var first bulkResult
	if err := resp.UnmarshalJSON(&first); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if first.Created != 10 || first.Skipped != 0 || first.Errors != 0 {
		t.Fatalf("first run = %+v", first)
	}

	resp = slots.POST(t, "/api/v1/slots/bulk", body)
	testutil.AssertStatusCode(t, resp, http.StatusOK)
	var second bulkResult
	if err := resp.UnmarshalJSON(&second); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if second.Created != 0 || second.Skipped != 10 {
		t.Errorf("second run = %d created, %d skipped", second.Created, second.Skipped)
	}

	if n := mongo.CountDocuments(t, "Slots", bson.M{"category": "entrenamiento"}); n != 10 {
		t.Errorf("stored slots = %d, want 10", n)
	}
}

func TestScheduleConflictSuggestsNextStart(t *testing.T) {
	env := testutil.NewTestEnv()
	mongo, schedules, _ := env.Setup(t)
	defer env.Cleanup(t, mongo)

	existing := map[string]any{
		"dayOfWeek": 1, "startTime": "09:00", "endTime": "10:00",
		"category": "entrenamiento", "maxParticipants": 10,
	}
	testutil.AssertStatusCode(t, schedules.POST(t, "/api/v1/schedules", existing), http.StatusCreated)

	proposal := map[string]any{
		"dayOfWeek": 1, "startTime": "10:15", "endTime": "11:00",
		"category": "entrenamiento_grupal", "maxParticipants": 8, "graceMinutes": 30,
	}
	resp := schedules.POST(t, "/api/v1/schedules", proposal)
	testutil.AssertStatusCode(t, resp, http.StatusConflict)
	testutil.AssertContains(t, resp, `"suggestions":["10:30"]`)

	proposal["graceMinutes"] = 15
	resp = schedules.POST(t, "/api/v1/schedules/validate", proposal)
	testutil.AssertStatusCode(t, resp, http.StatusOK)
	testutil.AssertContains(t, resp, `"isValid":true`)
}

func TestBookedSlotCannotBeDeleted(t *testing.T) {
	env := testutil.NewTestEnv()
	mongo, _, slots := env.Setup(t)
	defer env.Cleanup(t, mongo)

	resp := slots.POST(t, "/api/v1/slots", map[string]any{"date": "2025-02-03", "time": "10:00", "category": "asesoria"})
	testutil.AssertStatusCode(t, resp, http.StatusCreated)
	var created struct {
		Data struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	if err := resp.UnmarshalJSON(&created); err != nil || created.Data.ID == "" {
		t.Fatalf("created = %s, %v", resp.Body, err)
	}

	oid, err := primitive.ObjectIDFromHex(created.Data.ID)
	if err != nil {
		t.Fatalf("id: %v", err)
	}
	if _, err := mongo.GetCollection("Slots").UpdateByID(context.Background(), oid, bson.M{"$set": bson.M{"is_booked": true}}); err != nil {
		t.Fatalf("book: %v", err)
	}

	resp = slots.DELETE(t, "/api/v1/slots/id/"+created.Data.ID)
	testutil.AssertStatusCode(t, resp, http.StatusConflict)

	testutil.AssertStatusCode(t, slots.POST(t, "/api/v1/slots/id/"+created.Data.ID+"/release", nil), http.StatusOK)
	testutil.AssertStatusCode(t, slots.DELETE(t, "/api/v1/slots/id/"+created.Data.ID), http.StatusOK)
}

func TestRequestsWithoutSessionAreRejected(t *testing.T) {
	env := testutil.NewTestEnv()
	mongo, schedules, _ := env.Setup(t)
	defer env.Cleanup(t, mongo)

	anonymous := testutil.NewClient(schedules.BaseURL, "")
	resp := anonymous.GET(t, "/api/v1/schedules")
	testutil.AssertStatusCode(t, resp, http.StatusUnauthorized)
	if code := testutil.GetErrorCode(t, resp); code != "UNAUTHORIZED" {
		t.Errorf("code = %s", code)
	}
}
