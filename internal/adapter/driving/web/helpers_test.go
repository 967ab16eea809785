package web_test

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/streamhub/internal/adapter/driven/backend"
	"github.com/ericfisherdev/streamhub/internal/adapter/driven/memory"
	"github.com/ericfisherdev/streamhub/internal/adapter/driven/notify"
	"github.com/ericfisherdev/streamhub/internal/adapter/driven/session"
	"github.com/ericfisherdev/streamhub/internal/adapter/driven/tokencrypt"
	"github.com/ericfisherdev/streamhub/internal/adapter/driving/web"
	"github.com/ericfisherdev/streamhub/internal/application"
)

const (
	testCSRF     = "test-csrf-token"
	testPassword = "secret1234"
)

// fakeVideoAPI is an in-process stand-in for the video backend. It accepts
// the access credentials in valid and rejects every refresh.
type fakeVideoAPI struct {
	mux *http.ServeMux

	mu        sync.Mutex
	valid     map[string]bool
	videos    map[string]map[string]any
	calls     map[string]int
	lastQuery url.Values
	lastAuth  string
	uploads   []string
	deleted   []string
	lastPatch map[string]string
}

func newFakeVideoAPI() *fakeVideoAPI {
	api := &fakeVideoAPI{
		mux:   http.NewServeMux(),
		valid: map[string]bool{"A1": true},
		videos: map[string]map[string]any{
			"1": {"id": 1, "title": "Sunset <b>timelapse</b>", "description": "**bold** <script>alert(1)</script>", "username": "ana", "views": 42},
			"2": {"id": 2, "title": "Harbour", "description": "", "username": "ben", "views": 7},
		},
		calls: map[string]int{},
	}

	api.mux.HandleFunc("POST /auth/login/", func(w http.ResponseWriter, r *http.Request) {
		api.count("login")
		var body struct {
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body.Password != testPassword {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Invalid credentials"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"user":   map[string]any{"id": 1, "username": "ana", "email": body.Email},
			"tokens": map[string]string{"access": "A1", "refresh": "R1"},
		})
	})

	api.mux.HandleFunc("POST /auth/register/", func(w http.ResponseWriter, r *http.Request) {
		api.count("register")
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["username"] == "taken" {
			writeJSON(w, http.StatusBadRequest, map[string]any{"username": []string{"A user with that username already exists."}})
			return
		}
		writeJSON(w, http.StatusCreated, map[string]string{"message": "User created"})
	})

	api.mux.HandleFunc("POST /auth/logout/", func(w http.ResponseWriter, _ *http.Request) {
		api.count("logout")
		w.WriteHeader(http.StatusResetContent)
	})

	api.mux.HandleFunc("POST /auth/refresh/", func(w http.ResponseWriter, _ *http.Request) {
		api.count("refresh")
		writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Token is invalid or expired"})
	})

	api.mux.HandleFunc("GET /api/videos/", api.public(func(w http.ResponseWriter, r *http.Request) {
		api.mu.Lock()
		api.lastQuery = r.URL.Query()
		api.mu.Unlock()
		writeJSON(w, http.StatusOK, api.list())
	}))

	api.mux.HandleFunc("GET /api/videos/my_videos/{$}", api.protected(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, api.list())
	}))

	api.mux.HandleFunc("GET /api/videos/{id}/", api.public(func(w http.ResponseWriter, r *http.Request) {
		api.mu.Lock()
		v, ok := api.videos[r.PathValue("id")]
		api.mu.Unlock()
		if !ok {
			writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Not found."})
			return
		}
		writeJSON(w, http.StatusOK, v)
	}))

	api.mux.HandleFunc("POST /api/videos/", api.protected(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		api.mu.Lock()
		api.uploads = append(api.uploads, r.FormValue("title"))
		api.mu.Unlock()
		writeJSON(w, http.StatusCreated, map[string]any{"id": 3, "title": r.FormValue("title")})
	}))

	api.mux.HandleFunc("PATCH /api/videos/{id}/", api.protected(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		api.mu.Lock()
		api.lastPatch = map[string]string{"title": r.FormValue("title"), "description": r.FormValue("description")}
		api.mu.Unlock()
		writeJSON(w, http.StatusOK, map[string]any{"id": r.PathValue("id"), "title": r.FormValue("title")})
	}))

	api.mux.HandleFunc("DELETE /api/videos/{id}/", api.protected(func(w http.ResponseWriter, r *http.Request) {
		api.mu.Lock()
		api.deleted = append(api.deleted, r.PathValue("id"))
		api.mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	}))

	api.mux.HandleFunc("POST /api/videos/{id}/start-stream/", api.protected(func(w http.ResponseWriter, _ *http.Request) {
		api.count("start")
		writeJSON(w, http.StatusOK, map[string]string{"status": "started"})
	}))

	api.mux.HandleFunc("POST /api/videos/{id}/stop-stream/", api.protected(func(w http.ResponseWriter, _ *http.Request) {
		api.count("stop")
		writeJSON(w, http.StatusOK, map[string]string{"status": "stopped"})
	}))

	api.mux.HandleFunc("GET /api/videos/{id}/stream/", api.protected(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "multipart/x-mixed-replace; boundary=frame")
		for _, frame := range []string{"one", "two"} {
			_, _ = io.WriteString(w, "--frame\r\nContent-Type: image/jpeg\r\n\r\n"+frame+"\r\n")
			w.(http.Flusher).Flush()
		}
	}))

	return api
}

func (api *fakeVideoAPI) count(name string) {
	api.mu.Lock()
	defer api.mu.Unlock()
	api.calls[name]++
}

func (api *fakeVideoAPI) callCount(name string) int {
	api.mu.Lock()
	defer api.mu.Unlock()
	return api.calls[name]
}

func (api *fakeVideoAPI) setValid(tokens ...string) {
	api.mu.Lock()
	defer api.mu.Unlock()
	api.valid = map[string]bool{}
	for _, t := range tokens {
		api.valid[t] = true
	}
}

func (api *fakeVideoAPI) list() []map[string]any {
	api.mu.Lock()
	defer api.mu.Unlock()
	return []map[string]any{api.videos["1"], api.videos["2"]}
}

// public rejects only a credential that is present and invalid.
func (api *fakeVideoAPI) public(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "" && !api.authorized(r) {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Given token not valid for any token type"})
			return
		}
		next(w, r)
	}
}

func (api *fakeVideoAPI) protected(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !api.authorized(r) {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Authentication credentials were not provided."})
			return
		}
		next(w, r)
	}
}

func (api *fakeVideoAPI) authorized(r *http.Request) bool {
	api.mu.Lock()
	defer api.mu.Unlock()
	api.lastAuth = r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(api.lastAuth, "Bearer ")
	return ok && api.valid[token]
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// setupGUI wires the web handler to the fake backend through the real
// client, session store and flash queue.
func setupGUI(t *testing.T) (http.Handler, *fakeVideoAPI) {
	t.Helper()

	api := newFakeVideoAPI()
	srv := httptest.NewServer(api.mux)
	t.Cleanup(srv.Close)

	logger := discardLogger()
	store := session.NewStore(memory.New(), tokencrypt.New("secret", logger), logger)
	flashes := notify.NewQueue(16)

	client, err := backend.NewClientWithHTTPClient(srv.Client(), srv.URL+"/", store, flashes, backend.WithLogger(logger))
	require.NoError(t, err)

	h := web.NewHandler(
		application.NewAuthService(client, flashes, logger),
		application.NewVideoService(client, flashes, logger),
		flashes,
		logger,
	)
	mux := http.NewServeMux()
	web.RegisterRoutes(mux, h)
	return mux, api
}

func get(h http.Handler, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

// postForm submits an urlencoded form with a matching CSRF cookie and field.
func postForm(h http.Handler, path string, values url.Values) *httptest.ResponseRecorder {
	if values == nil {
		values = url.Values{}
	}
	values.Set("csrf_token", testCSRF)
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.AddCookie(&http.Cookie{Name: "csrf_token", Value: testCSRF})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

type upload struct {
	field, name, content string
}

// postMultipart submits a multipart form with a matching CSRF token.
func postMultipart(t *testing.T, h http.Handler, path string, fields map[string]string, files ...upload) *httptest.ResponseRecorder {
	t.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("csrf_token", testCSRF))
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	for _, f := range files {
		part, err := mw.CreateFormFile(f.field, f.name)
		require.NoError(t, err)
		_, err = io.WriteString(part, f.content)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.AddCookie(&http.Cookie{Name: "csrf_token", Value: testCSRF})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func signIn(t *testing.T, h http.Handler) {
	t.Helper()
	rec := postForm(h, "/login", url.Values{"email": {"ana@example.com"}, "password": {testPassword}})
	require.Equal(t, http.StatusSeeOther, rec.Code, rec.Body.String())
	require.Equal(t, "/videos", rec.Header().Get("Location"))
}
