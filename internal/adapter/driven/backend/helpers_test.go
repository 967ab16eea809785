package backend_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/streamhub/internal/adapter/driven/backend"
	"github.com/ericfisherdev/streamhub/internal/adapter/driven/memory"
	"github.com/ericfisherdev/streamhub/internal/adapter/driven/notify"
	"github.com/ericfisherdev/streamhub/internal/adapter/driven/session"
	"github.com/ericfisherdev/streamhub/internal/adapter/driven/tokencrypt"
	"github.com/ericfisherdev/streamhub/internal/domain/model"
)

// fakeBackend is a minimal video service. Access credentials listed in valid
// are accepted; refresh exchanges are answered by onRefresh.
type fakeBackend struct {
	mux *http.ServeMux

	valid     atomic.Value // map[string]bool
	onRefresh func(w http.ResponseWriter, refresh string)

	refreshCalls atomic.Int32
	videoCalls   atomic.Int32
	lastAuth     atomic.Value // string
}

func newFakeBackend(validTokens ...string) *fakeBackend {
	fb := &fakeBackend{mux: http.NewServeMux()}
	fb.setValid(validTokens...)
	fb.lastAuth.Store("")

	fb.mux.HandleFunc("POST /auth/refresh/", func(w http.ResponseWriter, r *http.Request) {
		fb.refreshCalls.Add(1)
		var body struct {
			Refresh string `json:"refresh"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		if fb.onRefresh == nil {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Token is invalid or expired"})
			return
		}
		fb.onRefresh(w, body.Refresh)
	})

	fb.mux.HandleFunc("GET /api/videos/", func(w http.ResponseWriter, r *http.Request) {
		fb.videoCalls.Add(1)
		fb.lastAuth.Store(r.Header.Get("Authorization"))
		if !fb.authorized(r) {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Given token not valid for any token type"})
			return
		}
		writeJSON(w, http.StatusOK, []map[string]any{{"id": 1, "title": "Clip"}})
	})
	return fb
}

func (fb *fakeBackend) setValid(tokens ...string) {
	m := make(map[string]bool, len(tokens))
	for _, t := range tokens {
		m[t] = true
	}
	fb.valid.Store(m)
}

func (fb *fakeBackend) authorized(r *http.Request) bool {
	token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	return ok && fb.valid.Load().(map[string]bool)[token]
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type fixture struct {
	client *backend.Client
	store  *session.Store
	kv     *memory.Store
	notes  *notify.Queue
	server *httptest.Server
}

func newFixture(t *testing.T, handler http.Handler) *fixture {
	t.Helper()
	return newFixtureWithSecret(t, handler, "test-secret")
}

func newFixtureWithSecret(t *testing.T, handler http.Handler, secret string) *fixture {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	kv := memory.New()
	store := session.NewStore(kv, tokencrypt.New(secret, nil), nil)
	notes := notify.NewQueue(10)

	client, err := backend.NewClientWithHTTPClient(srv.Client(), srv.URL+"/", store, notes)
	require.NoError(t, err)

	return &fixture{client: client, store: store, kv: kv, notes: notes, server: srv}
}

func (f *fixture) login(t *testing.T, access, refresh string) {
	t.Helper()
	user := model.User{ID: "7", Username: "ana", Email: "a@b.com"}
	require.NoError(t, f.store.SaveLogin(context.Background(), user, model.TokenPair{Access: access, Refresh: refresh}))
}

func (f *fixture) credentials(t *testing.T) (string, string) {
	t.Helper()
	ctx := context.Background()
	access, err := f.store.AccessToken(ctx)
	require.NoError(t, err)
	refresh, err := f.store.RefreshToken(ctx)
	require.NoError(t, err)
	return access, refresh
}

// requireCleared asserts none of the three session keys remain.
func (f *fixture) requireCleared(t *testing.T) {
	t.Helper()
	for _, key := range []string{session.KeyAccessToken, session.KeyRefreshToken, session.KeyUser} {
		_, ok, err := f.kv.Get(context.Background(), key)
		require.NoError(t, err)
		require.False(t, ok, "key %s should be cleared", key)
	}
}
