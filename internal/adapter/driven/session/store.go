// Package session implements the SessionStore port: encrypted credentials and
// the plain session user record kept in an injectable key-value backend.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/ericfisherdev/streamhub/internal/adapter/driven/tokencrypt"
	"github.com/ericfisherdev/streamhub/internal/domain/model"
	"github.com/ericfisherdev/streamhub/internal/domain/port/driven"
)

// Persisted key names.
const (
	KeyAccessToken  = "access_token"
	KeyRefreshToken = "refresh_token"
	KeyUser         = "user"
)

// ErrIncompleteTokens is returned when a login result lacks either credential.
var ErrIncompleteTokens = errors.New("session: access and refresh credentials are both required")

var _ driven.SessionStore = (*Store)(nil)

// Store reads and writes the three session keys. Credentials are encrypted
// with the cipher; the user record is stored as plain JSON.
type Store struct {
	kv     driven.KeyValueStore
	cipher *tokencrypt.Cipher
	logger *slog.Logger
}

// NewStore creates a Store over the given backend.
func NewStore(kv driven.KeyValueStore, cipher *tokencrypt.Cipher, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{kv: kv, cipher: cipher, logger: logger}
}

// SecretState reports whether credentials are encrypted at rest.
func (s *Store) SecretState() model.SecretState {
	return s.cipher.State()
}

// AccessToken returns the decrypted access credential, or "" when absent.
func (s *Store) AccessToken(ctx context.Context) (string, error) {
	return s.readCredential(ctx, KeyAccessToken)
}

// RefreshToken returns the decrypted refresh credential, or "" when absent.
func (s *Store) RefreshToken(ctx context.Context) (string, error) {
	return s.readCredential(ctx, KeyRefreshToken)
}

// SaveLogin writes both credentials and the user record in one operation.
func (s *Store) SaveLogin(ctx context.Context, user model.User, tokens model.TokenPair) error {
	if tokens.Access == "" || tokens.Refresh == "" {
		return ErrIncompleteTokens
	}

	values, err := s.encryptPair(tokens.Access, tokens.Refresh)
	if err != nil {
		return err
	}

	userJSON, err := user.JSON()
	if err != nil {
		return err
	}
	values[KeyUser] = string(userJSON)

	if err := s.kv.SetMany(ctx, values); err != nil {
		return fmt.Errorf("save login: %w", err)
	}
	return nil
}

// SaveTokens writes a refreshed access credential together with the refresh
// credential: the rotated one when given, otherwise the one already stored.
func (s *Store) SaveTokens(ctx context.Context, tokens model.TokenPair) error {
	if tokens.Access == "" {
		return ErrIncompleteTokens
	}

	refresh := tokens.Refresh
	if refresh == "" {
		current, err := s.RefreshToken(ctx)
		if err != nil {
			return fmt.Errorf("read current refresh credential: %w", err)
		}
		if current == "" {
			return ErrIncompleteTokens
		}
		refresh = current
	}

	values, err := s.encryptPair(tokens.Access, refresh)
	if err != nil {
		return err
	}
	if err := s.kv.SetMany(ctx, values); err != nil {
		return fmt.Errorf("save tokens: %w", err)
	}
	return nil
}

// User returns the session user record, or nil when none is stored.
func (s *Store) User(ctx context.Context) (*model.User, error) {
	raw, ok, err := s.kv.Get(ctx, KeyUser)
	if err != nil {
		return nil, fmt.Errorf("read user record: %w", err)
	}
	if !ok || raw == "" {
		return nil, nil
	}
	user, err := model.ParseUser([]byte(raw))
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// Status reports the stored session. The access credential is inspected
// without verification; it is only used for display.
func (s *Store) Status(ctx context.Context) (model.SessionStatus, error) {
	status := model.SessionStatus{SecretState: s.cipher.State()}

	user, err := s.User(ctx)
	if err != nil {
		return status, err
	}
	status.User = user
	status.Active = user != nil

	access, err := s.AccessToken(ctx)
	if err != nil {
		s.logger.Warn("access credential unreadable", "error", err)
		return status, nil
	}
	if access != "" {
		status.Access = inspectToken(access)
	}
	return status, nil
}

// Clear removes both credentials and the user record together.
func (s *Store) Clear(ctx context.Context) error {
	if err := s.kv.Delete(ctx, KeyAccessToken, KeyRefreshToken, KeyUser); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

func (s *Store) readCredential(ctx context.Context, key string) (string, error) {
	stored, ok, err := s.kv.Get(ctx, key)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", key, err)
	}
	if !ok || stored == "" {
		return "", nil
	}
	plaintext, err := s.cipher.Decrypt(stored)
	if err != nil {
		return "", fmt.Errorf("decrypt %s: %w", key, err)
	}
	return plaintext, nil
}

func (s *Store) encryptPair(access, refresh string) (map[string]string, error) {
	encAccess, err := s.cipher.Encrypt(access)
	if err != nil {
		return nil, fmt.Errorf("encrypt access credential: %w", err)
	}
	encRefresh, err := s.cipher.Encrypt(refresh)
	if err != nil {
		return nil, fmt.Errorf("encrypt refresh credential: %w", err)
	}
	return map[string]string{
		KeyAccessToken:  encAccess,
		KeyRefreshToken: encRefresh,
	}, nil
}

// inspectToken reads subject and expiry from a JWT access credential.
// Opaque credentials yield nil.
func inspectToken(raw string) *model.TokenInfo {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, claims); err != nil {
		return nil
	}

	info := &model.TokenInfo{}
	if sub, err := claims.GetSubject(); err == nil {
		info.Subject = sub
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		t := exp.Time.UTC().Truncate(time.Second)
		info.ExpiresAt = &t
	}
	return info
}
