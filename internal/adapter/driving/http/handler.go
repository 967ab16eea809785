// Package httphandler serves the JSON API: health, session status and
// Prometheus metrics.
package httphandler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ericfisherdev/streamhub/internal/application"
)

// Handler is the HTTP driving adapter that serves the REST API.
type Handler struct {
	authSvc  *application.AuthService
	gatherer prometheus.Gatherer
	logger   *slog.Logger
}

// NewHandler creates a Handler with all required dependencies. gatherer may
// be nil, in which case /metrics is not registered.
func NewHandler(authSvc *application.AuthService, gatherer prometheus.Gatherer, logger *slog.Logger) *Handler {
	return &Handler{
		authSvc:  authSvc,
		gatherer: gatherer,
		logger:   logger,
	}
}

// RegisterAPIRoutes registers the JSON API routes on mux.
func RegisterAPIRoutes(mux *http.ServeMux, h *Handler) {
	mux.HandleFunc("GET /api/v1/health", h.Health)
	mux.HandleFunc("GET /api/v1/session", h.Session)
	if h.gatherer != nil {
		mux.Handle("GET /metrics", promhttp.HandlerFor(h.gatherer, promhttp.HandlerOpts{
			ErrorLog: slog.NewLogLogger(h.logger.Handler(), slog.LevelError),
		}))
	}
}

// ApplyMiddleware wraps handler with logging and panic recovery.
func ApplyMiddleware(handler http.Handler, logger *slog.Logger) http.Handler {
	// Recovery innermost so panics are caught before logging.
	wrapped := recoveryMiddleware(logger, handler)
	return loggingMiddleware(logger, wrapped)
}

// Health reports that the process is serving.
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status: "ok",
		Time:   time.Now().UTC().Format(time.RFC3339),
	})
}

// Session reports the stored session without contacting the backend.
func (h *Handler) Session(w http.ResponseWriter, r *http.Request) {
	status, err := h.authSvc.Status(r.Context())
	if err != nil {
		h.logger.Error("failed to read session", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	writeJSON(w, http.StatusOK, toSessionResponse(status))
}
