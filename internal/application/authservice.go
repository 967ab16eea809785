package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ericfisherdev/streamhub/internal/domain/model"
	"github.com/ericfisherdev/streamhub/internal/domain/port/driven"
)

// User-visible messages for session operations.
const (
	MessageLoginSuccess    = "Login successful!"
	MessageLoginFailed     = "Login failed"
	MessageLoginMissing    = "Please fill in both email and password fields"
	MessageRegisterSuccess = "Registration successful! Please login."
	MessageRegisterFailed  = "Registration failed. Please try again."
	MessageRegisterMissing = "Please fill in all fields"
	MessagePasswordShort   = "Password must be at least 8 characters long"
	MessagePasswordMatch   = "Passwords do not match!"
	MessageLogoutSuccess   = "Logged out successfully"
	MessageLogoutFailed    = "Logout failed. Please try again."
	MessageSignIn          = "Please sign in to continue."
)

// MinPasswordLength is the shortest password accepted at registration.
const MinPasswordLength = 8

// registerFieldLabels maps backend field names to the label shown to the user,
// in the order they are reported.
var registerFieldLabels = []struct{ field, label string }{
	{"email", "Email"},
	{"username", "Username"},
	{"password", "Password"},
	{"password2", "Confirm Password"},
}

// AuthService handles login, registration and logout. Successful outcomes are
// announced through the notifier; failures are returned to the caller.
type AuthService struct {
	backend  driven.VideoBackend
	notifier driven.Notifier
	logger   *slog.Logger
}

// NewAuthService creates a new AuthService with the required dependencies.
func NewAuthService(backend driven.VideoBackend, notifier driven.Notifier, logger *slog.Logger) *AuthService {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthService{backend: backend, notifier: notifier, logger: logger}
}

// Login checks that both fields are present before contacting the backend.
func (s *AuthService) Login(ctx context.Context, email, password string) (*model.User, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, invalid("", MessageLoginMissing)
	}

	user, err := s.backend.Login(ctx, email, password)
	if err != nil {
		s.logger.Warn("login failed", "email", email, "error", err)
		return nil, err
	}

	s.notify(ctx, model.NotificationSuccess, MessageLoginSuccess)
	return user, nil
}

// Register validates the form, creates the account and leaves the user logged out.
func (s *AuthService) Register(ctx context.Context, reg model.Registration) error {
	reg.Username = strings.TrimSpace(reg.Username)
	reg.Email = strings.TrimSpace(reg.Email)

	switch {
	case reg.Username == "" || reg.Email == "" || reg.Password == "" || reg.Password2 == "":
		return invalid("", MessageRegisterMissing)
	case len(reg.Password) < MinPasswordLength:
		return invalid("password", MessagePasswordShort)
	case reg.Password != reg.Password2:
		return invalid("password2", MessagePasswordMatch)
	}

	if err := s.backend.Register(ctx, reg); err != nil {
		s.logger.Warn("registration failed", "username", reg.Username, "error", err)
		return registrationError(err)
	}

	s.notify(ctx, model.NotificationSuccess, MessageRegisterSuccess)
	return nil
}

// registrationError turns the first backend field error into a labelled
// ValidationError so the form can show it next to the field.
func registrationError(err error) error {
	var fe driven.FieldErrorer
	if errors.As(err, &fe) {
		for _, f := range registerFieldLabels {
			if msg := fe.FieldError(f.field); msg != "" {
				return fmt.Errorf("%w: %w", &ValidationError{Field: f.field, Message: f.label + ": " + msg}, err)
			}
		}
	}
	return err
}

// Logout ends the session. The backend call is best effort and the local
// session is always cleared. Either outcome is announced.
func (s *AuthService) Logout(ctx context.Context) error {
	if err := s.backend.Logout(ctx); err != nil {
		s.notify(ctx, model.NotificationError, MessageLogoutFailed)
		return fmt.Errorf("logout: %w", err)
	}
	s.notify(ctx, model.NotificationSuccess, MessageLogoutSuccess)
	return nil
}

// CurrentUser returns the stored session user, or nil.
func (s *AuthService) CurrentUser(ctx context.Context) (*model.User, error) {
	return s.backend.CurrentUser(ctx)
}

// Status summarises the stored session.
func (s *AuthService) Status(ctx context.Context) (model.SessionStatus, error) {
	return s.backend.SessionStatus(ctx)
}

// RequireUser returns the session user or ErrNotAuthenticated.
func (s *AuthService) RequireUser(ctx context.Context) (*model.User, error) {
	return requireUser(ctx, s.backend)
}

func requireUser(ctx context.Context, backend driven.VideoBackend) (*model.User, error) {
	user, err := backend.CurrentUser(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading session user: %w", err)
	}
	if user == nil {
		return nil, ErrNotAuthenticated
	}
	return user, nil
}

func (s *AuthService) notify(ctx context.Context, level model.NotificationLevel, msg string) {
	if s.notifier != nil {
		s.notifier.Notify(ctx, model.Notification{Level: level, Message: msg})
	}
}
