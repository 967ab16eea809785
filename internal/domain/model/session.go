package model

import "time"

// TokenPair holds an access credential and its refresh credential.
// An empty Refresh in a refresh result means the backend did not rotate it.
type TokenPair struct {
	Access  string
	Refresh string
}

// SecretState reports whether credential encryption has a secret to work with.
type SecretState int

const (
	// SecretMissing means no secret is configured; credentials are stored as-is.
	SecretMissing SecretState = iota
	// SecretConfigured means credentials are encrypted before storage.
	SecretConfigured
)

// String returns the lowercase name of the state.
func (s SecretState) String() string {
	if s == SecretConfigured {
		return "configured"
	}
	return "missing"
}

// TokenInfo is what can be read from an access credential without verifying it.
// It is informational only.
type TokenInfo struct {
	Subject   string
	ExpiresAt *time.Time
}

// SessionStatus summarises the locally persisted session.
type SessionStatus struct {
	Active      bool
	User        *User
	SecretState SecretState
	Access      *TokenInfo
}
