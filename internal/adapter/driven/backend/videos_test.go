package backend_test

import (
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/streamhub/internal/adapter/driven/backend"
	"github.com/ericfisherdev/streamhub/internal/domain/model"
)

func TestListVideos_QueryParameters(t *testing.T) {
	tests := []struct {
		name       string
		query      model.VideoQuery
		wantSearch string
		hasSearch  bool
		wantSort   string
	}{
		{name: "defaults", query: model.VideoQuery{}, wantSort: "newest"},
		{name: "search and sort", query: model.VideoQuery{Search: "cats & dogs", Sort: model.SortPopular}, wantSearch: "cats & dogs", hasSearch: true, wantSort: "popular"},
		{name: "invalid sort falls back", query: model.VideoQuery{Sort: "random"}, wantSort: "newest"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got atomic.Value
			mux := http.NewServeMux()
			mux.HandleFunc("GET /api/videos/", func(w http.ResponseWriter, r *http.Request) {
				got.Store(r.URL.Query())
				writeJSON(w, http.StatusOK, []any{})
			})
			f := newFixture(t, mux)

			_, err := f.client.ListVideos(context.Background(), tt.query)
			require.NoError(t, err)

			q := got.Load().(url.Values)
			assert.Equal(t, tt.hasSearch, q.Has("search"))
			assert.Equal(t, tt.wantSearch, q.Get("search"))
			assert.Equal(t, tt.wantSort, q.Get("sort"))
		})
	}
}

func TestListVideos_DecodesPaginatedResults(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/videos/", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"count":1,"results":[{"id":4,"title":"Sunset","description":null,"thumbnail":"/media/t.jpg","username":"ana","views":12,"created_at":"2024-05-01T10:00:00.123456Z"}]}`))
	})
	f := newFixture(t, mux)

	videos, err := f.client.ListVideos(context.Background(), model.VideoQuery{})
	require.NoError(t, err)
	require.Len(t, videos, 1)

	v := videos[0]
	assert.Equal(t, model.ID("4"), v.ID)
	assert.Equal(t, "Sunset", v.Title)
	assert.Equal(t, "", v.Description)
	assert.Equal(t, int64(12), v.Views)
	assert.Equal(t, time.Date(2024, 5, 1, 10, 0, 0, 123456000, time.UTC), v.CreatedAt)
}

func TestMyVideos_EmptyList(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/videos/my_videos/{$}", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`null`))
	})
	f := newFixture(t, mux)

	videos, err := f.client.MyVideos(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, videos)
	assert.Empty(t, videos)
}

func TestGetVideo(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/videos/{id}/", func(w http.ResponseWriter, r *http.Request) {
		if r.PathValue("id") != "12" {
			writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Not found."})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"id": 12, "title": "Harbor"})
	})
	f := newFixture(t, mux)

	v, err := f.client.GetVideo(context.Background(), "12")
	require.NoError(t, err)
	assert.Equal(t, "Harbor", v.Title)

	_, err = f.client.GetVideo(context.Background(), "99")
	require.Error(t, err)
	assert.Equal(t, http.StatusNotFound, backend.StatusCode(err))
	assert.Contains(t, err.Error(), "Not found.")
}

func TestUpdateVideo_SendsOnlySetFields(t *testing.T) {
	var form atomic.Value
	mux := http.NewServeMux()
	mux.HandleFunc("PATCH /api/videos/{id}/", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		form.Store(r.MultipartForm)
		writeJSON(w, http.StatusOK, map[string]any{"id": r.PathValue("id"), "title": r.FormValue("title")})
	})
	f := newFixture(t, mux)

	title := "Renamed"
	v, err := f.client.UpdateVideo(context.Background(), "3", model.VideoPatch{
		Title: &title,
		Thumbnail: &model.FileSource{
			Name: "thumb.png",
			Size: 3,
			Open: func() (io.ReadCloser, error) { return io.NopCloser(strings.NewReader("png")), nil },
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", v.Title)

	got := form.Load().(*multipart.Form)
	assert.Equal(t, []string{"Renamed"}, got.Value["title"])
	assert.NotContains(t, got.Value, "description")
	require.Len(t, got.File["thumbnail"], 1)
	assert.Equal(t, "thumb.png", got.File["thumbnail"][0].Filename)
	assert.Equal(t, "image/png", got.File["thumbnail"][0].Header.Get("Content-Type"))
}

func TestDeleteVideo(t *testing.T) {
	var deleted atomic.Value
	mux := http.NewServeMux()
	mux.HandleFunc("DELETE /api/videos/{id}/", func(w http.ResponseWriter, r *http.Request) {
		deleted.Store(r.PathValue("id"))
		w.WriteHeader(http.StatusNoContent)
	})
	f := newFixture(t, mux)

	require.NoError(t, f.client.DeleteVideo(context.Background(), "8"))
	assert.Equal(t, "8", deleted.Load())
}

func TestStreamControl(t *testing.T) {
	var calls []string
	done := make(chan struct{}, 2)
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/videos/{id}/{action}/", func(w http.ResponseWriter, r *http.Request) {
		calls = append(calls, r.PathValue("id")+" "+r.PathValue("action"))
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		done <- struct{}{}
	})
	f := newFixture(t, mux)
	ctx := context.Background()

	require.NoError(t, f.client.StartStream(ctx, "5"))
	<-done
	require.NoError(t, f.client.StopStream(ctx, "5"))
	<-done

	assert.Equal(t, []string{"5 start-stream", "5 stop-stream"}, calls)
}

func TestOpenStream_AttachesCredential(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/videos/{id}/stream/", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer A1" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "multipart/x-mixed-replace; boundary=frame")
		_, _ = w.Write([]byte("--frame\r\nContent-Type: image/jpeg\r\n\r\nJPEG\r\n"))
	})
	f := newFixture(t, mux)
	f.login(t, "A1", "R1")

	stream, err := f.client.OpenStream(context.Background(), "5")
	require.NoError(t, err)
	defer stream.Body.Close()

	assert.Equal(t, "multipart/x-mixed-replace; boundary=frame", stream.ContentType)
	data, err := io.ReadAll(stream.Body)
	require.NoError(t, err)
	assert.Contains(t, string(data), "JPEG")
}

func TestOpenStream_ErrorStatus(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/videos/{id}/stream/", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Stream not running"})
	})
	f := newFixture(t, mux)

	_, err := f.client.OpenStream(context.Background(), "5")
	require.Error(t, err)
	assert.Equal(t, http.StatusNotFound, backend.StatusCode(err))
	assert.Contains(t, err.Error(), "Stream not running")
}
