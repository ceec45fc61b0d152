package client

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/naveenspark/roster/pkg/domain"
)

// HTTPError is a non-2xx response from the API: the server answered and
// rejected the request.
type HTTPError struct {
	StatusCode int
	// Message is the envelope's message, empty when the body had none.
	Message string
	// Fields holds server-side validation errors keyed by form field.
	Fields domain.FieldErrors
	// Body is the raw response body, kept for non-JSON error pages.
	Body string
}

func (e *HTTPError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = e.Body
	}
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, msg)
}

// Is maps status codes onto the domain sentinels so callers can write
// errors.Is(err, domain.ErrUnauthorized).
func (e *HTTPError) Is(target error) bool {
	switch target {
	case domain.ErrUnauthorized:
		// 419 is the "session expired" status some frameworks send.
		return e.StatusCode == http.StatusUnauthorized || e.StatusCode == 419
	case domain.ErrNotFound:
		return e.StatusCode == http.StatusNotFound
	}
	return false
}

// TransportError means no response reached the client: dial failure,
// timeout or cancellation.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// IsStatus returns true if err (or any wrapped error) is an HTTPError with the given status code.
func IsStatus(err error, code int) bool {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode == code
	}
	return false
}

// IsTransport reports whether err is a TransportError.
func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}
