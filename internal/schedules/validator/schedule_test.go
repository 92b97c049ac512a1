package validator

import (
	"errors"
	"strings"
	"testing"

	"agenda/pkg/logger"
	"agenda/pkg/model"
)

func intPtr(v int) *int { return &v }

func strPtr(v string) *string { return &v }

func validRequest() *model.ScheduleRequest {
	return &model.ScheduleRequest{
		Title:           "Morning training",
		DayOfWeek:       intPtr(1),
		StartTime:       "09:00",
		EndTime:         "10:00",
		Category:        "entrenamiento",
		MaxParticipants: 10,
	}
}

func TestValidateRequest(t *testing.T) {
	v := NewScheduleValidator(logger.Discard())

	tests := []struct {
		name      string
		modify    func(r *model.ScheduleRequest)
		wantField string
		wantMsg   string
	}{
		{"valid", func(r *model.ScheduleRequest) {}, "", ""},
		{"sunday is a valid day", func(r *model.ScheduleRequest) { r.DayOfWeek = intPtr(0) }, "", ""},
		{"missing day", func(r *model.ScheduleRequest) { r.DayOfWeek = nil }, "dayOfWeek", "dayOfWeek is required"},
		{"missing start", func(r *model.ScheduleRequest) { r.StartTime = "" }, "startTime", "startTime is required"},
		{"short category", func(r *model.ScheduleRequest) { r.Category = "a" }, "category", "at least 2 characters"},
		{"zero participants", func(r *model.ScheduleRequest) { r.MaxParticipants = 0 }, "maxParticipants", "maxParticipants is required"},
		{"too many participants", func(r *model.ScheduleRequest) { r.MaxParticipants = 501 }, "maxParticipants", "at most 500"},
		{"long title", func(r *model.ScheduleRequest) { r.Title = strings.Repeat("x", 101) }, "title", "at most 100 characters"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRequest()
			tt.modify(req)

			err := v.ValidateRequest(req)
			if tt.wantField == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}

			var verrs ValidationErrors
			if !errors.As(err, &verrs) {
				t.Fatalf("error = %v, want ValidationErrors", err)
			}
			if verrs[0].Field != tt.wantField {
				t.Errorf("field = %q, want %q", verrs[0].Field, tt.wantField)
			}
			if !strings.Contains(verrs[0].Message, tt.wantMsg) {
				t.Errorf("message = %q, want it to contain %q", verrs[0].Message, tt.wantMsg)
			}
		})
	}
}

func TestValidateUpdate(t *testing.T) {
	v := NewScheduleValidator(logger.Discard())

	if err := v.ValidateUpdate(&model.ScheduleUpdate{StartTime: strPtr("10:00")}); err != nil {
		t.Errorf("partial update rejected: %v", err)
	}
	if err := v.ValidateUpdate(&model.ScheduleUpdate{MaxParticipants: intPtr(0)}); err == nil {
		t.Error("expected error for zero participants")
	}
	if err := v.ValidateUpdate(&model.ScheduleUpdate{Category: strPtr("x")}); err == nil {
		t.Error("expected error for one-letter category")
	}
}
