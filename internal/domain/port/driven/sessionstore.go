package driven

import (
	"context"

	"github.com/ericfisherdev/streamhub/internal/domain/model"
)

// SessionStore is the only reader and writer of persisted credentials and the
// session user record. The adapter handles encryption; values cross this
// interface as plaintext.
type SessionStore interface {
	// AccessToken returns the access credential, or "" when none is stored.
	AccessToken(ctx context.Context) (string, error)

	// RefreshToken returns the refresh credential, or "" when none is stored.
	RefreshToken(ctx context.Context) (string, error)

	// SaveLogin persists the user record and both credentials together.
	SaveLogin(ctx context.Context, user model.User, tokens model.TokenPair) error

	// SaveTokens persists a refreshed access credential. When tokens.Refresh is
	// empty the stored refresh credential is kept; both are still written together.
	SaveTokens(ctx context.Context, tokens model.TokenPair) error

	// User returns the session user record, or nil when no session is active.
	User(ctx context.Context) (*model.User, error)

	// Status summarises the stored session without contacting the backend.
	Status(ctx context.Context) (model.SessionStatus, error)

	// Clear removes both credentials and the user record.
	Clear(ctx context.Context) error
}
