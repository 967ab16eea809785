package backend

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"

	"github.com/ericfisherdev/streamhub/internal/domain/port/driven"
)

// MessageSessionExpired is the notification emitted when a session cannot be refreshed.
const MessageSessionExpired = "Session expired. Please log in again."

var (
	// ErrNoRefreshCredential is returned when a refresh is needed but none is stored.
	ErrNoRefreshCredential = errors.New("no refresh credential available")
	// ErrRefreshRejected is returned when the backend does not issue a new access credential.
	ErrRefreshRejected = errors.New("refresh rejected by backend")
	// ErrSessionExpired matches every *SessionExpiredError.
	ErrSessionExpired = driven.ErrSessionExpired
	// ErrLoginFailed is returned when a login response carries no credentials.
	ErrLoginFailed = errors.New("login failed")
)

// SessionExpiredError is returned when a 401 could not be recovered by a
// refresh. The local session has already been cleared when it is returned.
type SessionExpiredError struct {
	Cause error
}

func (e *SessionExpiredError) Error() string {
	return "session expired: " + e.Cause.Error()
}

func (e *SessionExpiredError) Unwrap() error { return e.Cause }

// Is makes errors.Is(err, ErrSessionExpired) true for every SessionExpiredError.
func (e *SessionExpiredError) Is(target error) bool { return target == ErrSessionExpired }

var (
	_ driven.UserFacingError = (*APIError)(nil)
	_ driven.FieldErrorer    = (*APIError)(nil)
)

// APIError is a non-2xx backend response.
type APIError struct {
	StatusCode  int
	Message     string
	FieldErrors map[string][]string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("backend returned %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("backend returned %d %s", e.StatusCode, http.StatusText(e.StatusCode))
}

// UserMessage returns the backend's own message, which may be empty.
func (e *APIError) UserMessage() string { return e.Message }

// FieldError returns the first message for field, or "".
func (e *APIError) FieldError(field string) string {
	if msgs := e.FieldErrors[field]; len(msgs) > 0 {
		return msgs[0]
	}
	return ""
}

// StatusCode returns the HTTP status of an *APIError in err's chain, or 0.
func StatusCode(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}

const maxErrorBody = 64 << 10

// messageKeys are the top-level keys the backend uses for a general message.
var messageKeys = []string{"message", "error", "detail"}

// newAPIError reads the response body and extracts a message and per-field
// validation errors. Field errors may be nested under "errors" or sit at the
// top level as {"field": ["msg", ...]}.
func newAPIError(resp *http.Response) *APIError {
	apiErr := &APIError{StatusCode: resp.StatusCode}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil || len(data) == 0 {
		return apiErr
	}

	var top map[string]json.RawMessage
	if err := json.Unmarshal(data, &top); err != nil {
		if !strings.HasPrefix(strings.TrimSpace(string(data)), "<") {
			apiErr.Message = strings.TrimSpace(string(data))
		}
		return apiErr
	}

	for _, key := range messageKeys {
		var s string
		if raw, ok := top[key]; ok && json.Unmarshal(raw, &s) == nil && s != "" {
			apiErr.Message = s
			break
		}
	}

	fields := map[string][]string{}
	if raw, ok := top["errors"]; ok {
		var nested map[string]json.RawMessage
		if json.Unmarshal(raw, &nested) == nil {
			collectFieldErrors(nested, fields)
		}
	}
	collectFieldErrors(top, fields)
	if len(fields) > 0 {
		apiErr.FieldErrors = fields
	}

	if apiErr.Message == "" && len(fields) > 0 {
		apiErr.Message = firstFieldError(fields)
	}
	return apiErr
}

func collectFieldErrors(src map[string]json.RawMessage, dst map[string][]string) {
	for key, raw := range src {
		if key == "errors" || key == "message" || key == "error" || key == "detail" {
			continue
		}
		var msgs []string
		if json.Unmarshal(raw, &msgs) == nil && len(msgs) > 0 {
			if _, exists := dst[key]; !exists {
				dst[key] = msgs
			}
		}
	}
}

func firstFieldError(fields map[string][]string) string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys[0] + ": " + fields[keys[0]][0]
}
