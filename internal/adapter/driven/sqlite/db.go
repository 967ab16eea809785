// Package sqlite implements the persistent local key space on SQLite.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"

	_ "modernc.org/sqlite"
)

const (
	maxReaders = 4

	// pragmas shared by file and in-memory databases. WAL is added for files only.
	pragmas = "_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)&_pragma=foreign_keys(ON)"
)

// DB holds a single-connection writer and a small reader pool over the same
// database, so writes serialise without "database is locked" errors while
// reads proceed concurrently.
type DB struct {
	Writer *sql.DB
	Reader *sql.DB
	path   string
}

// Open opens the session database at path and applies pending migrations.
func Open(ctx context.Context, path string) (*DB, error) {
	db, err := NewDB(ctx, path)
	if err != nil {
		return nil, err
	}
	if _, err := db.Migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// NewDB opens the database file at path in WAL mode without migrating it.
func NewDB(ctx context.Context, path string) (*DB, error) {
	return open(ctx, fileDSN(path), path)
}

func fileDSN(path string) string {
	return fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&%s", path, pragmas)
}

// memoryDSN names a shared-cache in-memory database so the writer and the
// readers see the same data. WAL does not apply in memory.
func memoryDSN(name string) string {
	return fmt.Sprintf("file:%s?mode=memory&cache=shared&%s", url.PathEscape(name), pragmas)
}

func open(ctx context.Context, dsn, path string) (*DB, error) {
	writer, err := connect(ctx, dsn, 1)
	if err != nil {
		return nil, fmt.Errorf("writer: %w", err)
	}

	reader, err := connect(ctx, dsn, maxReaders)
	if err != nil {
		_ = writer.Close()
		return nil, fmt.Errorf("reader: %w", err)
	}

	return &DB{Writer: writer, Reader: reader, path: path}, nil
}

func connect(ctx context.Context, dsn string, maxOpen int) (*sql.DB, error) {
	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	conn.SetMaxOpenConns(maxOpen)

	if err := conn.PingContext(ctx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	return conn, nil
}

// Path returns the database file path.
func (db *DB) Path() string { return db.path }

// Close closes both connections and returns the first error.
func (db *DB) Close() error {
	var firstErr error

	if err := db.Reader.Close(); err != nil {
		firstErr = fmt.Errorf("close reader: %w", err)
	}
	if err := db.Writer.Close(); err != nil && firstErr == nil {
		firstErr = fmt.Errorf("close writer: %w", err)
	}

	return firstErr
}
