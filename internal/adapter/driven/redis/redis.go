// Package redis implements the KeyValueStore port on Redis, for deployments
// where several streamhub processes share one session.
package redis

import (
	"context"
	"errors"
	"fmt"

	goredis "github.com/redis/go-redis/v9"

	"github.com/ericfisherdev/streamhub/internal/domain/port/driven"
)

var _ driven.KeyValueStore = (*Store)(nil)

// Store namespaces every key with prefix.
type Store struct {
	rdb    goredis.UniversalClient
	prefix string
}

// New wraps an existing client.
func New(rdb goredis.UniversalClient, prefix string) *Store {
	return &Store{rdb: rdb, prefix: prefix}
}

// Dial connects to addr and verifies the connection.
func Dial(ctx context.Context, addr, prefix string) (*Store, error) {
	rdb := goredis.NewClient(&goredis.Options{Addr: addr})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("ping redis %s: %w", addr, err)
	}
	return New(rdb, prefix), nil
}

// Close closes the underlying client.
func (s *Store) Close() error {
	return s.rdb.Close()
}

func (s *Store) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := s.rdb.Get(ctx, s.prefix+key).Result()
	if errors.Is(err, goredis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get %q: %w", key, err)
	}
	return v, true, nil
}

// SetMany writes all pairs in one MULTI/EXEC transaction.
func (s *Store) SetMany(ctx context.Context, values map[string]string) error {
	if len(values) == 0 {
		return nil
	}
	_, err := s.rdb.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		for k, v := range values {
			pipe.Set(ctx, s.prefix+k, v, 0)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("set keys: %w", err)
	}
	return nil
}

// Delete removes all keys with a single DEL.
func (s *Store) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	prefixed := make([]string, len(keys))
	for i, k := range keys {
		prefixed[i] = s.prefix + k
	}
	if err := s.rdb.Del(ctx, prefixed...).Err(); err != nil {
		return fmt.Errorf("delete keys: %w", err)
	}
	return nil
}
