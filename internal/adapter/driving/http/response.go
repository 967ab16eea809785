package httphandler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/ericfisherdev/streamhub/internal/domain/model"
)

// writeJSON marshals v to JSON and writes it to the response with the given
// status code. If marshaling fails, a 500 error is written instead.
func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"internal server error"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

// writeError writes a JSON error response with the given status code and message.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

type errorResponse struct {
	Error string `json:"error"`
}

// HealthResponse is the JSON representation of the health check endpoint.
type HealthResponse struct {
	Status string `json:"status"`
	Time   string `json:"time"`
}

// UserResponse is the JSON representation of the session user.
type UserResponse struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// SessionResponse is the JSON representation of the stored session.
// Credentials themselves are never exposed.
type SessionResponse struct {
	Active          bool          `json:"active"`
	User            *UserResponse `json:"user"`
	TokenSecret     string        `json:"token_secret"`
	AccessSubject   string        `json:"access_subject,omitempty"`
	AccessExpiresAt string        `json:"access_expires_at,omitempty"`
	AccessExpired   bool          `json:"access_expired"`
}

func toSessionResponse(s model.SessionStatus) SessionResponse {
	resp := SessionResponse{
		Active:      s.Active,
		TokenSecret: s.SecretState.String(),
	}
	if s.User != nil {
		resp.User = &UserResponse{
			ID:       s.User.ID.String(),
			Username: s.User.Username,
			Email:    s.User.Email,
		}
	}
	if s.Access != nil {
		resp.AccessSubject = s.Access.Subject
		if s.Access.ExpiresAt != nil {
			resp.AccessExpiresAt = s.Access.ExpiresAt.UTC().Format(time.RFC3339)
			resp.AccessExpired = time.Now().After(*s.Access.ExpiresAt)
		}
	}
	return resp
}
