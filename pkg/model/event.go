package model

const (
	EventScheduleCreated   = "schedule.created"
	EventSlotCreated       = "slot.created"
	EventSlotsGenerated    = "slots.generated"
	EventEnrollmentCreated = "enrollment.created"
)

type ScheduleCreated struct {
	ScheduleID string `json:"scheduleId"`
	Title      string `json:"title,omitempty"`
	DayOfWeek  int    `json:"dayOfWeek"`
	StartTime  string `json:"startTime"`
	EndTime    string `json:"endTime"`
	Category   string `json:"category"`
	CreatedBy  string `json:"createdBy,omitempty"`
}

type SlotCreated struct {
	SlotID    string `json:"slotId"`
	Date      string `json:"date"`
	Time      string `json:"time"`
	Category  string `json:"category"`
	CreatedBy string `json:"createdBy,omitempty"`
}

type SlotsGenerated struct {
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
	Category  string `json:"category"`
	Created   int    `json:"created"`
	Skipped   int    `json:"skipped"`
	Errors    int    `json:"errors"`
	CreatedBy string `json:"createdBy,omitempty"`
}

// EnrollmentCreated is published by the booking flow when a user takes a
// slot or joins a schedule.
type EnrollmentCreated struct {
	EnrollmentID string `json:"enrollmentId"`
	UserID       string `json:"userId"`
	UserEmail    string `json:"userEmail,omitempty"`
	UserName     string `json:"userName,omitempty"`
	ScheduleID   string `json:"scheduleId,omitempty"`
	SlotID       string `json:"slotId,omitempty"`
	Category     string `json:"category"`
	Date         string `json:"date,omitempty"`
	Time         string `json:"time,omitempty"`
}
