package errors

import "errors"

var (
	ErrSessionNotFound = errors.New("session not found")

	ErrUserNotFound = errors.New("user not found")
)
