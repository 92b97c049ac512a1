package errors

import "errors"

var (
	ErrNotFound = errors.New("slot not found")

	ErrInvalidID = errors.New("invalid slot ID format")

	// ErrBooked guards edits and deletes of a slot a user holds.
	ErrBooked = errors.New("slot is booked")

	ErrDuplicate = errors.New("slot already exists")
)
