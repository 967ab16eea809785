package application

import (
	"context"
	"io"
	"strings"
	"sync"

	"github.com/ericfisherdev/streamhub/internal/domain/model"
	"github.com/ericfisherdev/streamhub/internal/domain/port/driven"
)

// --- Mock VideoBackend ---

type mockBackend struct {
	mu    sync.Mutex
	calls []string

	user *model.User

	loginErr    error
	registerErr error
	logoutErr   error
	createErr   error
	updateErr   error
	deleteErr   error
	stopErr     error
	startErr    error

	lastQuery  model.VideoQuery
	lastUpload model.VideoUpload
	lastPatch  model.VideoPatch
	lastReg    model.Registration
}

var _ driven.VideoBackend = (*mockBackend)(nil)

func (m *mockBackend) record(call string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, call)
}

func (m *mockBackend) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

func (m *mockBackend) Login(_ context.Context, email, _ string) (*model.User, error) {
	m.record("Login")
	if m.loginErr != nil {
		return nil, m.loginErr
	}
	m.user = &model.User{ID: "1", Username: "ana", Email: email}
	return m.user, nil
}

func (m *mockBackend) Register(_ context.Context, reg model.Registration) error {
	m.record("Register")
	m.lastReg = reg
	return m.registerErr
}

func (m *mockBackend) Logout(context.Context) error {
	m.record("Logout")
	m.user = nil
	return m.logoutErr
}

func (m *mockBackend) CurrentUser(context.Context) (*model.User, error) {
	return m.user, nil
}

func (m *mockBackend) SessionStatus(context.Context) (model.SessionStatus, error) {
	return model.SessionStatus{Active: m.user != nil, User: m.user}, nil
}

func (m *mockBackend) ListVideos(_ context.Context, q model.VideoQuery) ([]model.Video, error) {
	m.record("ListVideos")
	m.lastQuery = q
	return []model.Video{{ID: "1", Title: "Clip"}}, nil
}

func (m *mockBackend) MyVideos(context.Context) ([]model.Video, error) {
	m.record("MyVideos")
	return []model.Video{}, nil
}

func (m *mockBackend) GetVideo(_ context.Context, id model.ID) (*model.Video, error) {
	m.record("GetVideo")
	return &model.Video{ID: id}, nil
}

func (m *mockBackend) CreateVideo(_ context.Context, up model.VideoUpload, _ model.ProgressFunc) (*model.Video, error) {
	m.record("CreateVideo")
	m.lastUpload = up
	if m.createErr != nil {
		return nil, m.createErr
	}
	return &model.Video{ID: "9", Title: up.Title}, nil
}

func (m *mockBackend) UpdateVideo(_ context.Context, id model.ID, patch model.VideoPatch) (*model.Video, error) {
	m.record("UpdateVideo")
	m.lastPatch = patch
	if m.updateErr != nil {
		return nil, m.updateErr
	}
	return &model.Video{ID: id}, nil
}

func (m *mockBackend) DeleteVideo(context.Context, model.ID) error {
	m.record("DeleteVideo")
	return m.deleteErr
}

func (m *mockBackend) StreamURL(id model.ID) string {
	return "http://backend.test/api/videos/" + id.String() + "/stream/"
}

func (m *mockBackend) OpenStream(context.Context, model.ID) (*model.Stream, error) {
	m.record("OpenStream")
	return &model.Stream{ContentType: "image/jpeg", Body: io.NopCloser(strings.NewReader("jpeg"))}, nil
}

func (m *mockBackend) StartStream(context.Context, model.ID) error {
	m.record("StartStream")
	return m.startErr
}

func (m *mockBackend) StopStream(context.Context, model.ID) error {
	m.record("StopStream")
	return m.stopErr
}

// --- Mock Notifier ---

type mockNotifier struct {
	mu    sync.Mutex
	notes []model.Notification
}

func (m *mockNotifier) Notify(_ context.Context, n model.Notification) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notes = append(m.notes, n)
}

func (m *mockNotifier) Messages() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.notes))
	for i, n := range m.notes {
		out[i] = n.Message
	}
	return out
}

// --- API error double ---

type fakeAPIError struct {
	message string
	fields  map[string]string
}

func (e *fakeAPIError) Error() string { return "backend: " + e.message }

func (e *fakeAPIError) UserMessage() string { return e.message }

func (e *fakeAPIError) FieldError(f string) string { return e.fields[f] }

func loggedIn() *mockBackend {
	return &mockBackend{user: &model.User{ID: "1", Username: "ana"}}
}

func videoFile(name string, size int64) model.FileSource {
	return model.FileSource{
		Name: name,
		Size: size,
		Open: func() (io.ReadCloser, error) { return io.NopCloser(strings.NewReader("")), nil },
	}
}
