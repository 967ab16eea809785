package driven

import "errors"

// ErrSessionExpired is matched by errors returned when the backend rejected the
// session and it could not be refreshed. The local session is already cleared
// and the user already notified when it is returned.
var ErrSessionExpired = errors.New("session expired")

// UserFacingError is implemented by backend errors whose message can be shown
// to the user as is.
type UserFacingError interface {
	error
	UserMessage() string
}

// FieldErrorer is implemented by backend errors carrying per-field validation
// messages.
type FieldErrorer interface {
	FieldError(field string) string
}
