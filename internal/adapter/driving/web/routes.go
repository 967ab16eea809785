package web

import (
	"errors"
	"io/fs"
	"net/http"

	"github.com/ericfisherdev/streamhub/internal/application"
	"github.com/ericfisherdev/streamhub/internal/domain/model"
)

const (
	// maxFormBytes bounds a form submission: the largest video, the largest
	// thumbnail and room for the text fields.
	maxFormBytes = application.MaxVideoSize + application.MaxThumbnailSize + 1<<20
	// multipartMemory is kept in memory; larger file parts spill to disk.
	multipartMemory = 32 << 20
)

// RegisterRoutes registers all web GUI routes on the provided mux.
// Static assets are served from the embedded filesystem at /static/*.
func RegisterRoutes(mux *http.ServeMux, h *Handler) {
	// Static assets (embedded via go:embed).
	staticFS, _ := fs.Sub(StaticFS, "static")
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServerFS(staticFS)))

	mux.HandleFunc("GET /{$}", h.Index)

	mux.HandleFunc("GET /login", h.LoginPage)
	mux.HandleFunc("POST /login", h.withForm(h.Login))
	mux.HandleFunc("GET /register", h.RegisterPage)
	mux.HandleFunc("POST /register", h.withForm(h.Register))
	mux.HandleFunc("POST /logout", h.withForm(h.Logout))

	mux.HandleFunc("GET /videos", h.Videos)
	mux.HandleFunc("GET /my-videos", h.MyVideos)
	mux.HandleFunc("GET /upload", h.UploadPage)
	mux.HandleFunc("POST /upload", h.withForm(h.Upload))
	mux.HandleFunc("GET /videos/{id}", h.Player)
	mux.HandleFunc("GET /videos/{id}/edit", h.EditPage)
	mux.HandleFunc("POST /videos/{id}/edit", h.withForm(h.Edit))
	mux.HandleFunc("POST /videos/{id}/delete", h.withForm(h.Delete))
	mux.HandleFunc("GET /videos/{id}/stream", h.Stream)
	mux.HandleFunc("POST /videos/{id}/stream/{action}", h.withForm(h.StreamControl))

	mux.HandleFunc("/", h.NotFound)
}

// withForm parses the submitted form within maxFormBytes and rejects it
// unless the CSRF token matches the cookie.
func (h *Handler) withForm(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
		if err := r.ParseMultipartForm(multipartMemory); err != nil && !errors.Is(err, http.ErrNotMultipart) {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				removeMultipart(r)
				h.flash(r.Context(), model.NotificationError, application.MessageVideoTooLarge)
				redirect(w, r, r.URL.Path)
				return
			}
			h.logger.Warn("failed to parse form", "path", r.URL.Path, "error", err)
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}

		if !validateCSRF(r) {
			removeMultipart(r)
			h.logger.Warn("csrf validation failed", "path", r.URL.Path)
			http.Error(w, "invalid CSRF token", http.StatusForbidden)
			return
		}
		next(w, r)
	}
}
