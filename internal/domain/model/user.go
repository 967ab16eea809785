package model

import (
	"encoding/json"
	"fmt"
)

// User is the session user record returned by the backend on login.
// Raw keeps the profile exactly as the backend sent it so that fields this
// client does not model survive a round trip through local storage.
type User struct {
	ID       ID     `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`

	Raw json.RawMessage `json:"-"`
}

// DisplayName returns the username, falling back to the email address.
func (u User) DisplayName() string {
	if u.Username != "" {
		return u.Username
	}
	return u.Email
}

// ParseUser decodes a user record and retains the raw JSON.
func ParseUser(data []byte) (User, error) {
	var u User
	if err := json.Unmarshal(data, &u); err != nil {
		return User{}, fmt.Errorf("decode user: %w", err)
	}
	u.Raw = append(json.RawMessage(nil), data...)
	return u, nil
}

// JSON returns the plain JSON form persisted as the session user record.
func (u User) JSON() ([]byte, error) {
	if len(u.Raw) > 0 {
		return u.Raw, nil
	}
	data, err := json.Marshal(u)
	if err != nil {
		return nil, fmt.Errorf("encode user: %w", err)
	}
	return data, nil
}

// Registration holds the fields submitted to the register endpoint.
type Registration struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	Password2 string `json:"password2"`
}
