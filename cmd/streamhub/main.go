package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	_ "golang.org/x/crypto/x509roots/fallback" // Embed CA certs for scratch container

	"github.com/ericfisherdev/streamhub/internal/adapter/driven/notify"
	httphandler "github.com/ericfisherdev/streamhub/internal/adapter/driving/http"
	webhandler "github.com/ericfisherdev/streamhub/internal/adapter/driving/web"
	"github.com/ericfisherdev/streamhub/internal/application"
	"github.com/ericfisherdev/streamhub/internal/bootstrap"
	"github.com/ericfisherdev/streamhub/internal/config"
)

// flashQueueSize bounds the notifications waiting for the next page render.
const flashQueueSize = 20

func main() {
	if err := run(); err != nil {
		slog.Error("fatal error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Load configuration. A missing .env is fine.
	_ = godotenv.Load()
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)

	banner := figure.NewFigure("StreamHub", "", true)
	banner.Print()
	fmt.Println()

	slog.Info("config loaded",
		"listen_addr", cfg.ListenAddr,
		"api_url", cfg.APIURL,
		"session_backend", cfg.SessionBackend,
		"token_secret", cfg.HasTokenSecret(),
	)

	// 2. Setup signal-based context (SIGINT, SIGTERM).
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Metrics registry with runtime collectors.
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	// 4. Session storage and backend client. Notifications go to the log and
	// to the flash queue shown on the next page.
	flashes := notify.NewQueue(flashQueueSize)
	notifier := notify.Multi{flashes, notify.NewLog(logger)}

	stack, err := bootstrap.Build(ctx, cfg, bootstrap.Options{
		Notifier:   notifier,
		Logger:     logger,
		Registerer: registry,
	})
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := stack.Close(); closeErr != nil {
			slog.Error("error closing session storage", "error", closeErr)
		}
	}()

	// 5. Application services.
	authSvc := application.NewAuthService(stack.Backend, notifier, logger)
	videoSvc := application.NewVideoService(stack.Backend, notifier, logger)

	// 6. API and GUI routes.
	mux := http.NewServeMux()
	httphandler.RegisterAPIRoutes(mux, httphandler.NewHandler(authSvc, registry, logger))
	webhandler.RegisterRoutes(mux, webhandler.NewHandler(authSvc, videoSvc, flashes, logger))

	handler := httphandler.ApplyMiddleware(mux, logger)

	// Uploads of up to 500 MB pass through the GUI, so reads get more time
	// than the API default. The stream proxy lifts the write deadline itself.
	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Minute,
		WriteTimeout:      10 * time.Minute,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		slog.Info("http server starting", "addr", cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("http server error", "error", err)
			stop()
		}
	}()

	slog.Info("streamhub started", "url", "http://"+cfg.ListenAddr)

	// 7. Wait for shutdown signal.
	<-ctx.Done()
	slog.Info("shutting down")

	// 8. Graceful shutdown. Open streams are cut when the timeout expires.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("http server shutdown error", "error", err)
	}

	slog.Info("shutdown complete")
	return nil
}
