package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/ericfisherdev/streamhub/internal/domain/model"
)

const (
	pathLogin    = "auth/login/"
	pathRegister = "auth/register/"
	pathLogout   = "auth/logout/"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	User   json.RawMessage `json:"user"`
	Tokens *struct {
		Access  string `json:"access"`
		Refresh string `json:"refresh"`
	} `json:"tokens"`
	Error string `json:"error"`
}

type registerResponse struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

type logoutRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// Login authenticates with email and password and persists the user record
// and both credentials. A 401 here means bad credentials, so the refresh
// protocol is not applied.
func (c *Client) Login(ctx context.Context, email, password string) (*model.User, error) {
	var out loginResponse
	status, err := c.doJSON(withoutRefresh(ctx), http.MethodPost, pathLogin, loginRequest{Email: email, Password: password}, &out)
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}

	if out.Tokens == nil || out.Tokens.Access == "" || out.Tokens.Refresh == "" {
		msg := out.Error
		if msg == "" {
			msg = "Login failed"
		}
		return nil, fmt.Errorf("%w: %w", ErrLoginFailed, &APIError{StatusCode: status, Message: msg})
	}

	var user model.User
	if len(out.User) > 0 && string(out.User) != "null" {
		if user, err = model.ParseUser(out.User); err != nil {
			return nil, fmt.Errorf("login: %w", err)
		}
	}

	tokens := model.TokenPair{Access: out.Tokens.Access, Refresh: out.Tokens.Refresh}
	if err := c.sessions.SaveLogin(ctx, user, tokens); err != nil {
		return nil, fmt.Errorf("persisting session: %w", err)
	}
	c.flushCache("login")

	c.logger.Info("logged in", "user", user.DisplayName())
	return &user, nil
}

// Register creates an account. Success is exactly 201 Created; the new
// account still has to log in.
func (c *Client) Register(ctx context.Context, reg model.Registration) error {
	var out registerResponse
	status, err := c.doJSON(withoutRefresh(ctx), http.MethodPost, pathRegister, reg, &out)
	if err != nil {
		return fmt.Errorf("register: %w", err)
	}
	if status != http.StatusCreated {
		msg := out.Message
		if msg == "" {
			msg = out.Error
		}
		return fmt.Errorf("register: %w", &APIError{StatusCode: status, Message: msg})
	}
	return nil
}

// Logout revokes the refresh credential on a best-effort basis and then
// clears the local session. Only a failure to clear local state is returned.
func (c *Client) Logout(ctx context.Context) error {
	refreshToken, err := c.sessions.RefreshToken(ctx)
	switch {
	case err != nil:
		c.logger.Warn("refresh credential unreadable, skipping backend logout", "error", err)
	case refreshToken != "":
		// The session is being discarded, so a 401 is not worth a refresh.
		if _, err := c.doJSON(withoutRefresh(ctx), http.MethodPost, pathLogout, logoutRequest{RefreshToken: refreshToken}, nil); err != nil {
			c.logger.Warn("backend logout failed, clearing local session anyway", "error", err)
		}
	}

	c.flushCache("logout")
	if err := c.sessions.Clear(ctx); err != nil {
		return fmt.Errorf("clearing session: %w", err)
	}
	c.logger.Info("logged out")
	return nil
}

// CurrentUser returns the stored session user, or nil when logged out.
func (c *Client) CurrentUser(ctx context.Context) (*model.User, error) {
	return c.sessions.User(ctx)
}

// SessionStatus summarises the stored session without a network call.
func (c *Client) SessionStatus(ctx context.Context) (model.SessionStatus, error) {
	return c.sessions.Status(ctx)
}
