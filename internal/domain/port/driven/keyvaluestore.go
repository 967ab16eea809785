package driven

import "context"

// KeyValueStore is the persisted key space backing the local session.
// Multi-key writes and deletes are atomic: either every key changes or none does.
type KeyValueStore interface {
	// Get returns the value stored under key and whether it exists.
	Get(ctx context.Context, key string) (string, bool, error)

	// SetMany stores every key/value pair in one atomic operation.
	SetMany(ctx context.Context, values map[string]string) error

	// Delete removes the given keys in one atomic operation. Missing keys are ignored.
	Delete(ctx context.Context, keys ...string) error
}
