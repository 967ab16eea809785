package application

import (
	"errors"

	"github.com/ericfisherdev/streamhub/internal/domain/port/driven"
)

// ErrNotAuthenticated is returned by operations that need a session user when
// none is stored. No network call is made.
var ErrNotAuthenticated = errors.New("not authenticated")

// ValidationError is a pre-flight input error. Message is shown to the user
// as is; Field names the offending form field, or is empty for form-level errors.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

func invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// IsSessionExpired reports whether err means the session ended while handling
// the call. The user has already been told.
func IsSessionExpired(err error) bool {
	return errors.Is(err, driven.ErrSessionExpired)
}

// UserMessage returns the text to show the user for err: the validation
// message, the backend's own message, or fallback.
func UserMessage(err error, fallback string) string {
	if err == nil {
		return ""
	}

	var vErr *ValidationError
	if errors.As(err, &vErr) {
		return vErr.Message
	}
	if errors.Is(err, ErrNotAuthenticated) {
		return MessageSignIn
	}
	var uErr driven.UserFacingError
	if errors.As(err, &uErr) && uErr.UserMessage() != "" {
		return uErr.UserMessage()
	}
	return fallback
}
