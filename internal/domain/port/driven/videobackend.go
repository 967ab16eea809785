package driven

import (
	"context"

	"github.com/ericfisherdev/streamhub/internal/domain/model"
)

// VideoBackend defines the driven port for the external video API.
// Implementations attach and refresh credentials themselves; callers never
// see an expired access credential unless the session cannot be recovered.
type VideoBackend interface {
	// Session methods

	// Login authenticates and persists the resulting session.
	Login(ctx context.Context, email, password string) (*model.User, error)
	Register(ctx context.Context, reg model.Registration) error
	// Logout revokes the refresh credential on a best-effort basis and always
	// clears the local session.
	Logout(ctx context.Context) error
	CurrentUser(ctx context.Context) (*model.User, error)
	SessionStatus(ctx context.Context) (model.SessionStatus, error)

	// Video methods

	ListVideos(ctx context.Context, query model.VideoQuery) ([]model.Video, error)
	MyVideos(ctx context.Context) ([]model.Video, error)
	GetVideo(ctx context.Context, id model.ID) (*model.Video, error)
	CreateVideo(ctx context.Context, upload model.VideoUpload, progress model.ProgressFunc) (*model.Video, error)
	UpdateVideo(ctx context.Context, id model.ID, patch model.VideoPatch) (*model.Video, error)
	DeleteVideo(ctx context.Context, id model.ID) error

	// Stream methods

	// StreamURL returns the backend URL of the continuously-updating image stream.
	StreamURL(id model.ID) string
	// OpenStream opens the stream with credentials attached. The caller closes Body.
	OpenStream(ctx context.Context, id model.ID) (*model.Stream, error)
	StartStream(ctx context.Context, id model.ID) error
	StopStream(ctx context.Context, id model.ID) error
}
