package model

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestTimeSlot_MarshalJSONWritesCalendarDate(t *testing.T) {
	slot := TimeSlot{
		ID:              "65a000000000000000000001",
		Date:            time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC),
		Time:            "14:00",
		DurationMinutes: 60,
		Category:        "asesoria",
		IsAvailable:     true,
		Source:          SlotSourceBulk,
	}

	data, err := json.Marshal(slot)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if decoded["date"] != "2025-01-06" {
		t.Errorf("date = %v, want 2025-01-06", decoded["date"])
	}
	if decoded["time"] != "14:00" || decoded["isBooked"] != false || decoded["source"] != "bulk" {
		t.Errorf("unexpected payload: %s", data)
	}
}

func TestScheduleValidation_EmptyListsEncodeAsArrays(t *testing.T) {
	v := ScheduleValidation{IsValid: true, Conflicts: []RecurringSchedule{}, Suggestions: []string{}}
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if !strings.Contains(string(data), `"conflicts":[]`) || !strings.Contains(string(data), `"suggestions":[]`) {
		t.Errorf("got %s", data)
	}
}

func TestUpdates_IsEmpty(t *testing.T) {
	if !(&SlotUpdate{}).IsEmpty() {
		t.Error("zero SlotUpdate should be empty")
	}
	avail := false
	if (&SlotUpdate{IsAvailable: &avail}).IsEmpty() {
		t.Error("SlotUpdate with isAvailable should not be empty")
	}

	if !(&ScheduleUpdate{Force: true}).IsEmpty() {
		t.Error("force alone changes no field")
	}
	day := 2
	if (&ScheduleUpdate{DayOfWeek: &day}).IsEmpty() {
		t.Error("ScheduleUpdate with dayOfWeek should not be empty")
	}
}

func TestPrincipal_IsAdmin(t *testing.T) {
	var nilPrincipal *Principal
	if nilPrincipal.IsAdmin() {
		t.Error("nil principal is not an admin")
	}
	if (&Principal{Role: "student"}).IsAdmin() {
		t.Error("student is not an admin")
	}
	if !(&Principal{Role: RoleAdmin}).IsAdmin() {
		t.Error("admin role should be admin")
	}
}
