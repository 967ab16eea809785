package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ericfisherdev/streamhub/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.KeyValueStore = (*LocalStorage)(nil)

// LocalStorage is the SQLite implementation of the KeyValueStore port.
// Values are stored as given; encryption happens in the session store above it.
type LocalStorage struct {
	db *DB
}

// NewLocalStorage creates a new LocalStorage.
func NewLocalStorage(db *DB) *LocalStorage {
	return &LocalStorage{db: db}
}

// Get retrieves the value for key. Returns ("", false, nil) if it does not exist.
func (s *LocalStorage) Get(ctx context.Context, key string) (string, bool, error) {
	const query = `SELECT value FROM local_storage WHERE key = ?`
	var value string
	err := s.db.Reader.QueryRowContext(ctx, query, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get %q: %w", key, err)
	}
	return value, true, nil
}

// SetMany upserts every pair inside a single transaction.
func (s *LocalStorage) SetMany(ctx context.Context, values map[string]string) error {
	if len(values) == 0 {
		return nil
	}

	const query = `INSERT INTO local_storage (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`

	return s.inTx(ctx, func(tx *sql.Tx) error {
		for key, value := range values {
			if _, err := tx.ExecContext(ctx, query, key, value); err != nil {
				return fmt.Errorf("set %q: %w", key, err)
			}
		}
		return nil
	})
}

// Delete removes the given keys inside a single transaction.
func (s *LocalStorage) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}

	const query = `DELETE FROM local_storage WHERE key = ?`

	return s.inTx(ctx, func(tx *sql.Tx) error {
		for _, key := range keys {
			if _, err := tx.ExecContext(ctx, query, key); err != nil {
				return fmt.Errorf("delete %q: %w", key, err)
			}
		}
		return nil
	})
}

func (s *LocalStorage) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.Writer.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}
