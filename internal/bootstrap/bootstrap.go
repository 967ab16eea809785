// Package bootstrap assembles the session storage and backend client from
// configuration. Both binaries share it so they read and write the same session.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/ericfisherdev/streamhub/internal/adapter/driven/backend"
	"github.com/ericfisherdev/streamhub/internal/adapter/driven/memory"
	redisadapter "github.com/ericfisherdev/streamhub/internal/adapter/driven/redis"
	"github.com/ericfisherdev/streamhub/internal/adapter/driven/session"
	sqliteadapter "github.com/ericfisherdev/streamhub/internal/adapter/driven/sqlite"
	"github.com/ericfisherdev/streamhub/internal/adapter/driven/tokencrypt"
	"github.com/ericfisherdev/streamhub/internal/config"
	"github.com/ericfisherdev/streamhub/internal/domain/port/driven"
)

// Stack is the wired backend side of the application.
type Stack struct {
	Sessions *session.Store
	Backend  *backend.Client
	Metrics  *backend.Metrics

	closers []func() error
}

// Options tunes Build.
type Options struct {
	Notifier driven.Notifier
	Logger   *slog.Logger
	// Registerer receives the client metrics. Nil disables them.
	Registerer prometheus.Registerer
}

// Build opens the configured session backend and creates the client.
// The caller must Close the returned Stack.
func Build(ctx context.Context, cfg *config.Config, opts Options) (*Stack, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	s := &Stack{}

	kv, err := s.openStore(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	cipher := tokencrypt.New(cfg.TokenSecret, logger)
	s.Sessions = session.NewStore(kv, cipher, logger)

	if opts.Registerer != nil {
		if s.Metrics, err = backend.NewMetrics(opts.Registerer); err != nil {
			_ = s.Close()
			return nil, err
		}
	}

	s.Backend, err = backend.NewClient(cfg.APIURL, s.Sessions, opts.Notifier, cfg.HTTPTimeout,
		backend.WithLogger(logger.With("component", "backend")),
		backend.WithMetrics(s.Metrics),
	)
	if err != nil {
		_ = s.Close()
		return nil, err
	}

	logger.Info("backend client ready",
		"api_url", cfg.APIURL,
		"session_backend", cfg.SessionBackend,
		"token_secret", cipher.State().String(),
		"stages", s.Backend.StageNames(),
	)
	return s, nil
}

func (s *Stack) openStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (driven.KeyValueStore, error) {
	switch cfg.SessionBackend {
	case config.BackendMemory:
		logger.Warn("session storage is in memory, sessions end when the process exits")
		return memory.New(), nil

	case config.BackendRedis:
		store, err := redisadapter.Dial(ctx, cfg.RedisAddr, cfg.RedisPrefix)
		if err != nil {
			return nil, err
		}
		s.closers = append(s.closers, store.Close)
		logger.Info("session storage opened", "backend", "redis", "addr", cfg.RedisAddr)
		return store, nil

	case config.BackendSQLite, "":
		db, err := sqliteadapter.Open(ctx, cfg.DBPath)
		if err != nil {
			return nil, err
		}
		s.closers = append(s.closers, db.Close)
		logger.Info("session storage opened", "backend", "sqlite", "path", cfg.DBPath)
		return sqliteadapter.NewLocalStorage(db), nil

	default:
		return nil, fmt.Errorf("unknown session backend %q", cfg.SessionBackend)
	}
}

// Close releases the session backend.
func (s *Stack) Close() error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	s.closers = nil
	return errors.Join(errs...)
}
