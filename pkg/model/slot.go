package model

import (
	"encoding/json"
	"time"

	"agenda/pkg/timeofday"
)

const (
	SlotSourceManual = "manual"
	SlotSourceBulk   = "bulk"
)

// TimeSlot is a concrete bookable unit. Date is always UTC midnight and Time
// is a normalized HH:MM string; (Date, Time, Category) is unique.
type TimeSlot struct {
	ID              string    `json:"id,omitempty" bson:"_id,omitempty"`
	Date            time.Time `json:"date" bson:"date"`
	Time            string    `json:"time" bson:"time"`
	DurationMinutes int       `json:"durationMinutes" bson:"duration_minutes"`
	Category        string    `json:"category" bson:"category"`
	IsAvailable     bool      `json:"isAvailable" bson:"is_available"`
	IsBooked        bool      `json:"isBooked" bson:"is_booked"`
	Source          string    `json:"source" bson:"source"`
	CreatedAt       time.Time `json:"createdAt" bson:"created_at"`
	UpdatedAt       time.Time `json:"updatedAt" bson:"updated_at"`
}

// MarshalJSON writes Date as YYYY-MM-DD.
func (s TimeSlot) MarshalJSON() ([]byte, error) {
	type plain TimeSlot
	return json.Marshal(struct {
		plain
		Date string `json:"date"`
	}{plain: plain(s), Date: timeofday.FormatDate(s.Date)})
}

type SlotRequest struct {
	Date            string `json:"date" validate:"required"`
	Time            string `json:"time" validate:"required"`
	DurationMinutes int    `json:"durationMinutes,omitempty" validate:"omitempty,min=5,max=1440"`
	Category        string `json:"category" validate:"required,min=2,max=50"`
	IsAvailable     *bool  `json:"isAvailable,omitempty"`
}

type SlotUpdate struct {
	Date            *string `json:"date,omitempty"`
	Time            *string `json:"time,omitempty"`
	DurationMinutes *int    `json:"durationMinutes,omitempty" validate:"omitempty,min=5,max=1440"`
	Category        *string `json:"category,omitempty" validate:"omitempty,min=2,max=50"`
	IsAvailable     *bool   `json:"isAvailable,omitempty"`
}

func (u *SlotUpdate) IsEmpty() bool {
	return u.Date == nil && u.Time == nil && u.DurationMinutes == nil && u.Category == nil && u.IsAvailable == nil
}

// SlotFilter narrows slot listings. From and To are inclusive UTC dates.
type SlotFilter struct {
	From      *time.Time
	To        *time.Time
	Category  string
	Available *bool
	Booked    *bool
}

type BulkSlotRequest struct {
	StartDate       string   `json:"startDate" validate:"required"`
	EndDate         string   `json:"endDate" validate:"required"`
	TimesOfDay      []string `json:"timesOfDay"`
	Category        string   `json:"category" validate:"required,min=2,max=50"`
	DurationMinutes int      `json:"durationMinutes,omitempty" validate:"omitempty,min=5,max=1440"`
	SkipWeekends    bool     `json:"skipWeekends"`
	SkipExisting    bool     `json:"skipExisting"`
	CheckConflicts  bool     `json:"checkConflicts"`
}

const (
	BulkStatusCreated = "created"
	BulkStatusSkipped = "skipped"
	BulkStatusError   = "error"
)

type BulkSlotDetail struct {
	Date   string `json:"date"`
	Time   string `json:"time"`
	Status string `json:"status"`
	ID     string `json:"id,omitempty"`
	Reason string `json:"reason,omitempty"`
}

type BulkSlotResult struct {
	Created int              `json:"created"`
	Skipped int              `json:"skipped"`
	Errors  int              `json:"errors"`
	Details []BulkSlotDetail `json:"details"`
}
