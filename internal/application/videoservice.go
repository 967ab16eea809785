package application

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"slices"
	"strings"

	"github.com/ericfisherdev/streamhub/internal/domain/model"
	"github.com/ericfisherdev/streamhub/internal/domain/port/driven"
)

// Upload limits.
const (
	MaxVideoSize     int64 = 500 << 20 // 524288000 bytes
	MaxThumbnailSize int64 = 5 << 20
)

// VideoExtensions lists the accepted video file extensions.
var VideoExtensions = []string{".mp4", ".avi", ".mov", ".mkv"}

// User-visible messages for video operations.
const (
	MessageUploadMissing     = "Please provide a video file and title"
	MessageVideoTooLarge     = "File size too large. Maximum size is 500MB"
	MessageVideoType         = "Unsupported file type. Allowed: mp4, avi, mov, mkv"
	MessageUploadSuccess     = "Video uploaded successfully!"
	MessageUploadFailed      = "Upload failed. Please try again."
	MessageThumbnailTooLarge = "Thumbnail size should be less than 5MB"
	MessageTitleRequired     = "Title cannot be empty"
	MessageNothingToUpdate   = "Nothing to update"
	MessageUpdateSuccess     = "Video updated successfully"
	MessageUpdateFailed      = "Failed to update video"
	MessageDeleteSuccess     = "Video deleted successfully"
	MessageDeleteFailed      = "Failed to delete video"
	MessageVideoLoadFailed   = "Failed to load video details"
	MessageVideosLoadFailed  = "Failed to load videos"
	MessageStreamLoadFailed  = "Failed to load video stream"
	MessageStreamStartFailed = "Failed to start video stream"
	MessageStreamStopFailed  = "Failed to stop video stream"
)

// VideoService lists, uploads, edits and streams videos. Input is validated
// before any network call.
type VideoService struct {
	backend  driven.VideoBackend
	notifier driven.Notifier
	logger   *slog.Logger
}

// NewVideoService creates a new VideoService with the required dependencies.
func NewVideoService(backend driven.VideoBackend, notifier driven.Notifier, logger *slog.Logger) *VideoService {
	if logger == nil {
		logger = slog.Default()
	}
	return &VideoService{backend: backend, notifier: notifier, logger: logger}
}

// List returns videos matching q. An unknown sort order becomes newest.
func (s *VideoService) List(ctx context.Context, q model.VideoQuery) ([]model.Video, error) {
	q.Search = strings.TrimSpace(q.Search)
	if !q.Sort.Valid() {
		q.Sort = model.SortNewest
	}
	return s.backend.ListVideos(ctx, q)
}

// Mine returns the session user's videos.
func (s *VideoService) Mine(ctx context.Context) ([]model.Video, error) {
	if _, err := requireUser(ctx, s.backend); err != nil {
		return nil, err
	}
	return s.backend.MyVideos(ctx)
}

// Get returns a single video.
func (s *VideoService) Get(ctx context.Context, id model.ID) (*model.Video, error) {
	return s.backend.GetVideo(ctx, id)
}

// Upload validates and sends a new video. progress may be nil.
func (s *VideoService) Upload(ctx context.Context, up model.VideoUpload, progress model.ProgressFunc) (*model.Video, error) {
	if _, err := requireUser(ctx, s.backend); err != nil {
		return nil, err
	}
	up.Title = strings.TrimSpace(up.Title)
	if err := ValidateUpload(up); err != nil {
		return nil, err
	}

	video, err := s.backend.CreateVideo(ctx, up, progress)
	if err != nil {
		s.logger.Warn("upload failed", "title", up.Title, "error", err)
		return nil, err
	}

	s.logger.Info("video uploaded", "id", video.ID, "title", video.Title, "bytes", up.File.Size)
	s.notify(ctx, model.NotificationSuccess, MessageUploadSuccess)
	return video, nil
}

// ValidateUpload applies the upload limits: a title and a file are required,
// the file must be at most MaxVideoSize with an accepted extension.
func ValidateUpload(up model.VideoUpload) error {
	if strings.TrimSpace(up.Title) == "" || up.File.Name == "" || up.File.Open == nil {
		return invalid("", MessageUploadMissing)
	}
	if up.File.Size > MaxVideoSize {
		return invalid("file", MessageVideoTooLarge)
	}
	if !slices.Contains(VideoExtensions, strings.ToLower(filepath.Ext(up.File.Name))) {
		return invalid("file", MessageVideoType)
	}
	if up.Thumbnail != nil {
		if err := validateThumbnail(*up.Thumbnail); err != nil {
			return err
		}
	}
	return nil
}

func validateThumbnail(f model.FileSource) error {
	if f.Size > MaxThumbnailSize {
		return invalid("thumbnail", MessageThumbnailTooLarge)
	}
	return nil
}

// Update applies a partial edit.
func (s *VideoService) Update(ctx context.Context, id model.ID, patch model.VideoPatch) (*model.Video, error) {
	if _, err := requireUser(ctx, s.backend); err != nil {
		return nil, err
	}
	if patch.Empty() {
		return nil, invalid("", MessageNothingToUpdate)
	}
	if patch.Title != nil && strings.TrimSpace(*patch.Title) == "" {
		return nil, invalid("title", MessageTitleRequired)
	}
	if patch.Thumbnail != nil {
		if err := validateThumbnail(*patch.Thumbnail); err != nil {
			return nil, err
		}
	}

	video, err := s.backend.UpdateVideo(ctx, id, patch)
	if err != nil {
		s.logger.Warn("update failed", "id", id, "error", err)
		return nil, err
	}

	s.notify(ctx, model.NotificationSuccess, MessageUpdateSuccess)
	return video, nil
}

// Delete removes a video.
func (s *VideoService) Delete(ctx context.Context, id model.ID) error {
	if _, err := requireUser(ctx, s.backend); err != nil {
		return err
	}
	if err := s.backend.DeleteVideo(ctx, id); err != nil {
		s.logger.Warn("delete failed", "id", id, "error", err)
		return err
	}

	s.logger.Info("video deleted", "id", id)
	s.notify(ctx, model.NotificationSuccess, MessageDeleteSuccess)
	return nil
}

// StreamURL returns the backend URL of a video's image stream.
func (s *VideoService) StreamURL(id model.ID) string {
	return s.backend.StreamURL(id)
}

// OpenStream opens the authenticated image stream. The caller closes Body.
func (s *VideoService) OpenStream(ctx context.Context, id model.ID) (*model.Stream, error) {
	return s.backend.OpenStream(ctx, id)
}

// StartStream starts the backend stream for id.
func (s *VideoService) StartStream(ctx context.Context, id model.ID) error {
	return s.backend.StartStream(ctx, id)
}

// StopStream stops the backend stream for id.
func (s *VideoService) StopStream(ctx context.Context, id model.ID) error {
	return s.backend.StopStream(ctx, id)
}

// RestartStream stops and then starts the stream. A failed stop is logged and
// the start is attempted anyway, unless the session has expired.
func (s *VideoService) RestartStream(ctx context.Context, id model.ID) error {
	if err := s.backend.StopStream(ctx, id); err != nil {
		if IsSessionExpired(err) {
			return err
		}
		s.logger.Warn("stop before restart failed", "id", id, "error", err)
	}
	if err := s.backend.StartStream(ctx, id); err != nil {
		return fmt.Errorf("restarting stream: %w", err)
	}
	return nil
}

func (s *VideoService) notify(ctx context.Context, level model.NotificationLevel, msg string) {
	if s.notifier != nil {
		s.notifier.Notify(ctx, model.Notification{Level: level, Message: msg})
	}
}
