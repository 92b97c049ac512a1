package model

import "time"

type RecurringSchedule struct {
	ID              string    `json:"id,omitempty" bson:"_id,omitempty"`
	Title           string    `json:"title,omitempty" bson:"title,omitempty"`
	DayOfWeek       int       `json:"dayOfWeek" bson:"day_of_week"`
	StartTime       string    `json:"startTime" bson:"start_time"`
	EndTime         string    `json:"endTime" bson:"end_time"`
	Category        string    `json:"category" bson:"category"`
	MaxParticipants int       `json:"maxParticipants" bson:"max_participants"`
	IsActive        bool      `json:"isActive" bson:"is_active"`
	CreatedAt       time.Time `json:"createdAt" bson:"created_at"`
	UpdatedAt       time.Time `json:"updatedAt" bson:"updated_at"`
}

// ScheduleRequest is the create and validate body. DayOfWeek, the times and
// GraceMinutes are range-checked by the conflict validator, not by tags.
type ScheduleRequest struct {
	Title           string `json:"title,omitempty" validate:"omitempty,max=100"`
	DayOfWeek       *int   `json:"dayOfWeek" validate:"required"`
	StartTime       string `json:"startTime" validate:"required"`
	EndTime         string `json:"endTime" validate:"required"`
	Category        string `json:"category" validate:"required,min=2,max=50"`
	MaxParticipants int    `json:"maxParticipants" validate:"required,min=1,max=500"`
	GraceMinutes    *int   `json:"graceMinutes,omitempty"`
	IsActive        *bool  `json:"isActive,omitempty"`
	Force           bool   `json:"force,omitempty"`
}

type ScheduleUpdate struct {
	Title           *string `json:"title,omitempty" validate:"omitempty,max=100"`
	DayOfWeek       *int    `json:"dayOfWeek,omitempty"`
	StartTime       *string `json:"startTime,omitempty"`
	EndTime         *string `json:"endTime,omitempty"`
	Category        *string `json:"category,omitempty" validate:"omitempty,min=2,max=50"`
	MaxParticipants *int    `json:"maxParticipants,omitempty" validate:"omitempty,min=1,max=500"`
	IsActive        *bool   `json:"isActive,omitempty"`
	GraceMinutes    *int    `json:"graceMinutes,omitempty"`
	Force           bool    `json:"force,omitempty"`
}

func (u *ScheduleUpdate) IsEmpty() bool {
	return u.Title == nil && u.DayOfWeek == nil && u.StartTime == nil && u.EndTime == nil &&
		u.Category == nil && u.MaxParticipants == nil && u.IsActive == nil
}

type ScheduleFilter struct {
	DayOfWeek *int
	Category  string
	Active    *bool
}

// ScheduleValidation is the advisory result of checking a proposed schedule.
// Conflicts and Suggestions are never nil so they encode as [].
type ScheduleValidation struct {
	IsValid     bool                `json:"isValid"`
	Message     string              `json:"message"`
	Conflicts   []RecurringSchedule `json:"conflicts"`
	Suggestions []string            `json:"suggestions"`
}
