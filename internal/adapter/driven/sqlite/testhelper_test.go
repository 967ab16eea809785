package sqlite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

// setupTestDB opens a migrated in-memory database named after the test, so
// parallel tests never share rows.
func setupTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := open(context.Background(), memoryDSN(t.Name()), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	version, err := db.Migrate()
	require.NoError(t, err)
	require.Equal(t, uint(1), version)

	return db
}
