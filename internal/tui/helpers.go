package tui

import (
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"

	"github.com/naveenspark/roster/pkg/client"
	"github.com/naveenspark/roster/pkg/domain"
	"github.com/naveenspark/roster/pkg/paging"
)

const unexpectedError = "unexpected error, please try again"

// truncStr truncates a string to maxLen runes, appending an ellipsis if needed.
func truncStr(s string, maxLen int) string {
	if maxLen <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= maxLen {
		return s
	}
	runes := []rune(s)
	return string(runes[:maxLen-1]) + "…"
}

// padCell truncates or pads s to exactly width display cells.
func padCell(s string, width int) string {
	s = truncStr(s, width)
	if gap := width - lipgloss.Width(s); gap > 0 {
		s += strings.Repeat(" ", gap)
	}
	return s
}

// describeErr turns an action error into the line shown to the user.
func describeErr(err error) string {
	var (
		httpErr *client.HTTPError
		fields  domain.FieldErrors
	)
	switch {
	case err == nil:
		return ""
	case errors.As(err, &fields):
		return "please fix the highlighted fields"
	case errors.Is(err, domain.ErrUnauthorized):
		return "session expired, please sign in again"
	case errors.Is(err, domain.ErrNotFound):
		return "record not found, it may have been deleted"
	case errors.Is(err, paging.ErrPageOutOfRange):
		return "no such page"
	case client.IsTransport(err):
		return "could not reach the server"
	case errors.As(err, &httpErr) && httpErr.Message != "":
		return httpErr.Message
	default:
		return unexpectedError
	}
}

// fieldErrorsOf extracts per-field messages from a local validation failure
// or a server-side 422.
func fieldErrorsOf(err error) domain.FieldErrors {
	var fields domain.FieldErrors
	if errors.As(err, &fields) {
		return fields
	}
	var httpErr *client.HTTPError
	if errors.As(err, &httpErr) && len(httpErr.Fields) > 0 {
		return httpErr.Fields
	}
	return nil
}
