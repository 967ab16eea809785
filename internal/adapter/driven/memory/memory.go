// Package memory implements an in-process KeyValueStore for tests and
// ephemeral runs. Nothing survives a restart.
package memory

import (
	"context"
	"sync"

	gocache "github.com/patrickmn/go-cache"

	"github.com/ericfisherdev/streamhub/internal/domain/port/driven"
)

var _ driven.KeyValueStore = (*Store)(nil)

// Store keeps values in a go-cache instance with expiry disabled. The extra
// mutex makes multi-key writes atomic with respect to readers.
type Store struct {
	mu sync.RWMutex
	c  *gocache.Cache
}

// New creates an empty Store.
func New() *Store {
	return &Store{c: gocache.New(gocache.NoExpiration, 0)}
}

func (s *Store) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.c.Get(key)
	if !ok {
		return "", false, nil
	}
	str, _ := v.(string)
	return str, true, nil
}

func (s *Store) SetMany(ctx context.Context, values map[string]string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for k, v := range values {
		s.c.Set(k, v, gocache.NoExpiration)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, keys ...string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, k := range keys {
		s.c.Delete(k)
	}
	return nil
}

// Len returns the number of stored keys.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.c.ItemCount()
}
