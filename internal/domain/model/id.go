package model

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// ID is a backend identifier. The backend may encode identifiers as JSON
// numbers or strings; both decode to the same textual form.
type ID string

// UnmarshalJSON accepts a JSON string, number, or null.
func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("decode id: %w", err)
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("decode id: %w", err)
	}
	*id = ID(n.String())
	return nil
}

// String returns the identifier as used in URL paths.
func (id ID) String() string { return string(id) }
