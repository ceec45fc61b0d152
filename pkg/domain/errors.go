package domain

import "errors"

var (
	// ErrNotFound is reported when the API does not know a record.
	ErrNotFound = errors.New("record not found")

	// ErrUnauthorized is reported when the session token is missing or expired.
	// Callers should send the user back to sign-in.
	ErrUnauthorized = errors.New("not authenticated")
)
