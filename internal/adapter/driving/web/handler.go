// Package web implements the HTML GUI driving adapter using templ components.
package web

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/a-h/templ"

	"github.com/ericfisherdev/streamhub/internal/adapter/driving/web/templates"
	"github.com/ericfisherdev/streamhub/internal/adapter/driving/web/templates/pages"
	vm "github.com/ericfisherdev/streamhub/internal/adapter/driving/web/viewmodel"
	"github.com/ericfisherdev/streamhub/internal/application"
	"github.com/ericfisherdev/streamhub/internal/domain/model"
	"github.com/ericfisherdev/streamhub/internal/domain/port/driven"
)

// FlashQueue collects notifications until the next page render drains them.
type FlashQueue interface {
	driven.Notifier
	Drain() []model.Notification
}

// Handler is the web GUI driving adapter that serves HTML via templ components.
type Handler struct {
	authSvc  *application.AuthService
	videoSvc *application.VideoService
	flashes  FlashQueue
	logger   *slog.Logger
}

// NewHandler creates a Handler with all required dependencies. flashes must
// be the queue the services notify into.
func NewHandler(
	authSvc *application.AuthService,
	videoSvc *application.VideoService,
	flashes FlashQueue,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		authSvc:  authSvc,
		videoSvc: videoSvc,
		flashes:  flashes,
		logger:   logger,
	}
}

// render wraps body in the layout and writes it with status. The page is
// buffered so a render error still produces a clean 500.
func (h *Handler) render(w http.ResponseWriter, r *http.Request, status int, title, csrf string, body templ.Component) {
	user, err := h.authSvc.CurrentUser(r.Context())
	if err != nil {
		h.logger.Warn("failed to read session user", "error", err)
	}

	page := vm.Page{
		Title:     title,
		User:      toUser(user),
		Flashes:   toFlashes(h.flashes.Drain()),
		CSRFToken: csrf,
	}

	var buf bytes.Buffer
	if err := templates.Layout(page, body).Render(r.Context(), &buf); err != nil {
		h.logger.Error("failed to render page", "title", title, "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func (h *Handler) flash(ctx context.Context, level model.NotificationLevel, msg string) {
	h.flashes.Notify(ctx, model.Notification{Level: level, Message: msg})
}

func redirect(w http.ResponseWriter, r *http.Request, path string) {
	http.Redirect(w, r, path, http.StatusSeeOther)
}

// handleAuthError sends the browser to the login page when err means there
// is no usable session. It reports whether it did.
func (h *Handler) handleAuthError(w http.ResponseWriter, r *http.Request, err error) bool {
	switch {
	case errors.Is(err, application.ErrNotAuthenticated):
		h.flash(r.Context(), model.NotificationInfo, application.MessageSignIn)
	case application.IsSessionExpired(err):
		// The client has already queued the expiry notice.
	default:
		return false
	}
	redirect(w, r, "/login")
	return true
}

// requireUser lets the request through only with a stored session user.
func (h *Handler) requireUser(w http.ResponseWriter, r *http.Request) bool {
	_, err := h.authSvc.RequireUser(r.Context())
	if err == nil {
		return true
	}
	if !h.handleAuthError(w, r, err) {
		h.logger.Error("failed to read session user", "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}
	return false
}

func validationField(err error) string {
	var vErr *application.ValidationError
	if errors.As(err, &vErr) {
		return vErr.Field
	}
	return ""
}

// Index sends visitors to the video listing.
func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	redirect(w, r, "/videos")
}

// NotFound renders the 404 page.
func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusNotFound, "Not found", csrfToken(w, r), pages.NotFound())
}
