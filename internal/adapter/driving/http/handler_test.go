package httphandler_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/streamhub/internal/adapter/driven/backend"
	"github.com/ericfisherdev/streamhub/internal/adapter/driven/memory"
	"github.com/ericfisherdev/streamhub/internal/adapter/driven/session"
	"github.com/ericfisherdev/streamhub/internal/adapter/driven/tokencrypt"
	httphandler "github.com/ericfisherdev/streamhub/internal/adapter/driving/http"
	"github.com/ericfisherdev/streamhub/internal/application"
	"github.com/ericfisherdev/streamhub/internal/domain/model"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// setupServer wires a real session store behind a backend client that never
// needs the network for the endpoints under test.
func setupServer(t *testing.T, reg *prometheus.Registry) (http.Handler, *session.Store) {
	t.Helper()

	store := session.NewStore(memory.New(), tokencrypt.New("secret", discardLogger()), discardLogger())
	client, err := backend.NewClientWithHTTPClient(http.DefaultClient, "http://backend.invalid/", store, nil)
	require.NoError(t, err)

	authSvc := application.NewAuthService(client, nil, discardLogger())

	var gatherer prometheus.Gatherer
	if reg != nil {
		gatherer = reg
	}
	h := httphandler.NewHandler(authSvc, gatherer, discardLogger())

	mux := http.NewServeMux()
	httphandler.RegisterAPIRoutes(mux, h)
	return httphandler.ApplyMiddleware(mux, discardLogger()), store
}

func TestHealth(t *testing.T) {
	handler, _ := setupServer(t, nil)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json; charset=utf-8", rec.Header().Get("Content-Type"))

	var resp httphandler.HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	_, err := time.Parse(time.RFC3339, resp.Time)
	assert.NoError(t, err)
}

func TestSession_Inactive(t *testing.T) {
	handler, _ := setupServer(t, nil)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/session", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp httphandler.SessionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.Active)
	assert.Nil(t, resp.User)
	assert.Equal(t, "configured", resp.TokenSecret)
	assert.Empty(t, resp.AccessExpiresAt)
}

func TestSession_ActiveWithJWT(t *testing.T) {
	handler, store := setupServer(t, nil)

	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	access, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "7",
		"exp": exp.Unix(),
	}).SignedString([]byte("backend-key"))
	require.NoError(t, err)

	user := model.User{ID: "7", Username: "ana", Email: "a@b.com"}
	require.NoError(t, store.SaveLogin(context.Background(), user, model.TokenPair{Access: access, Refresh: "R1"}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/session", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), access, "credentials are never exposed")
	assert.NotContains(t, rec.Body.String(), "R1")

	var resp httphandler.SessionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Active)
	require.NotNil(t, resp.User)
	assert.Equal(t, "ana", resp.User.Username)
	assert.Equal(t, "7", resp.AccessSubject)
	assert.Equal(t, exp.UTC().Format(time.RFC3339), resp.AccessExpiresAt)
	assert.False(t, resp.AccessExpired)
}

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	counter := prometheus.NewCounter(prometheus.CounterOpts{Name: "streamhub_test_total", Help: "test"})
	reg.MustRegister(counter)
	counter.Inc()

	handler, _ := setupServer(t, reg)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "streamhub_test_total 1")
}

func TestMetrics_NotRegisteredWithoutGatherer(t *testing.T) {
	handler, _ := setupServer(t, nil)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMiddleware_RecoversPanics(t *testing.T) {
	handler := httphandler.ApplyMiddleware(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}), discardLogger())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/anything", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"internal server error"}`, rec.Body.String())
}

func TestMiddleware_SupportsFlush(t *testing.T) {
	handler := httphandler.ApplyMiddleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("frame"))
		assert.NoError(t, http.NewResponseController(w).Flush())
	}), discardLogger())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/videos/1/stream", nil))

	assert.True(t, rec.Flushed)
	assert.Equal(t, "frame", rec.Body.String())
}
