package sqlite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStorage_SetManyAndGet(t *testing.T) {
	db := setupTestDB(t)
	store := NewLocalStorage(db)
	ctx := context.Background()

	err := store.SetMany(ctx, map[string]string{
		"access_token":  "enc-A1",
		"refresh_token": "enc-R1",
	})
	require.NoError(t, err)

	val, ok, err := store.Get(ctx, "access_token")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "enc-A1", val)

	val, ok, err = store.Get(ctx, "refresh_token")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "enc-R1", val)
}

func TestLocalStorage_GetMissing(t *testing.T) {
	db := setupTestDB(t)
	store := NewLocalStorage(db)

	val, ok, err := store.Get(context.Background(), "user")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, "", val)
}

func TestLocalStorage_SetManyOverwrites(t *testing.T) {
	db := setupTestDB(t)
	store := NewLocalStorage(db)
	ctx := context.Background()

	require.NoError(t, store.SetMany(ctx, map[string]string{"access_token": "old"}))
	require.NoError(t, store.SetMany(ctx, map[string]string{"access_token": "new"}))

	val, _, err := store.Get(ctx, "access_token")
	require.NoError(t, err)
	assert.Equal(t, "new", val)
}

func TestLocalStorage_DeleteMany(t *testing.T) {
	db := setupTestDB(t)
	store := NewLocalStorage(db)
	ctx := context.Background()

	require.NoError(t, store.SetMany(ctx, map[string]string{
		"access_token":  "a",
		"refresh_token": "r",
		"user":          `{"id":1}`,
		"unrelated":     "keep",
	}))

	require.NoError(t, store.Delete(ctx, "access_token", "refresh_token", "user"))

	for _, key := range []string{"access_token", "refresh_token", "user"} {
		_, ok, err := store.Get(ctx, key)
		require.NoError(t, err)
		assert.False(t, ok, key)
	}

	val, ok, err := store.Get(ctx, "unrelated")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "keep", val)
}

func TestLocalStorage_DeleteNonexistent(t *testing.T) {
	db := setupTestDB(t)
	store := NewLocalStorage(db)

	err := store.Delete(context.Background(), "nonexistent")
	assert.NoError(t, err, "deleting a missing key should not error")
}

func TestLocalStorage_SetManyCanceledContextWritesNothing(t *testing.T) {
	db := setupTestDB(t)
	store := NewLocalStorage(db)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := store.SetMany(ctx, map[string]string{"access_token": "a", "refresh_token": "r"})
	require.Error(t, err)

	for _, key := range []string{"access_token", "refresh_token"} {
		_, ok, err := store.Get(context.Background(), key)
		require.NoError(t, err)
		assert.False(t, ok, key)
	}
}
