package model

import "time"

const (
	AudienceAdmins = "admins"
	AudienceUser   = "user"
)

// Notification is an in-app message derived from one event. (EventID,
// Audience, RecipientID) is unique, so replaying an event is harmless.
type Notification struct {
	ID          string    `json:"id,omitempty" bson:"_id,omitempty"`
	EventID     string    `json:"eventId" bson:"event_id"`
	Type        string    `json:"type" bson:"type"`
	Audience    string    `json:"audience" bson:"audience"`
	RecipientID string    `json:"recipientId" bson:"recipient_id"`
	Title       string    `json:"title" bson:"title"`
	Message     string    `json:"message" bson:"message"`
	Read        bool      `json:"read" bson:"read"`
	CreatedAt   time.Time `json:"createdAt" bson:"created_at"`
}

type NotificationFilter struct {
	Audience    string
	RecipientID string
	UnreadOnly  bool
}

// Email is the payload queued for the mail relay.
type Email struct {
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	Body    string   `json:"body"`
	EventID string   `json:"eventId"`
}
