package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/ericfisherdev/streamhub/internal/domain/model"
)

const (
	pathVideos   = "api/videos/"
	pathMyVideos = "api/videos/my_videos/"
)

func videoPath(id model.ID) string {
	return pathVideos + url.PathEscape(id.String()) + "/"
}

// ListVideos returns all videos matching q. An invalid sort falls back to newest.
func (c *Client) ListVideos(ctx context.Context, q model.VideoQuery) ([]model.Video, error) {
	values := url.Values{}
	if q.Search != "" {
		values.Set("search", q.Search)
	}
	sort := q.Sort
	if !sort.Valid() {
		sort = model.SortNewest
	}
	values.Set("sort", string(sort))

	videos, err := c.fetchVideos(ctx, pathVideos+"?"+values.Encode())
	if err != nil {
		return nil, fmt.Errorf("listing videos: %w", err)
	}
	return videos, nil
}

// MyVideos returns the videos uploaded by the session user.
func (c *Client) MyVideos(ctx context.Context) ([]model.Video, error) {
	videos, err := c.fetchVideos(ctx, pathMyVideos)
	if err != nil {
		return nil, fmt.Errorf("listing own videos: %w", err)
	}
	return videos, nil
}

func (c *Client) fetchVideos(ctx context.Context, path string) ([]model.Video, error) {
	var raw json.RawMessage
	if _, err := c.doJSON(ctx, http.MethodGet, path, nil, &raw); err != nil {
		return nil, err
	}
	return decodeVideoList(raw)
}

// decodeVideoList accepts a bare array or a paginated {"results": [...]} page.
func decodeVideoList(data []byte) ([]model.Video, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return []model.Video{}, nil
	}

	var videos []model.Video
	if data[0] == '{' {
		var page struct {
			Results []model.Video `json:"results"`
		}
		if err := json.Unmarshal(data, &page); err != nil {
			return nil, fmt.Errorf("decoding video page: %w", err)
		}
		videos = page.Results
	} else if err := json.Unmarshal(data, &videos); err != nil {
		return nil, fmt.Errorf("decoding video list: %w", err)
	}

	if videos == nil {
		videos = []model.Video{}
	}
	return videos, nil
}

// GetVideo returns a single video.
func (c *Client) GetVideo(ctx context.Context, id model.ID) (*model.Video, error) {
	var v model.Video
	if _, err := c.doJSON(ctx, http.MethodGet, videoPath(id), nil, &v); err != nil {
		return nil, fmt.Errorf("fetching video %s: %w", id, err)
	}
	return &v, nil
}

// CreateVideo uploads a new video as multipart/form-data. progress may be nil.
func (c *Client) CreateVideo(ctx context.Context, up model.VideoUpload, progress model.ProgressFunc) (*model.Video, error) {
	form := multipartForm{
		fields: []formField{
			{name: "title", value: up.Title},
			{name: "description", value: up.Description},
		},
		files: []formFile{{field: "file_path", src: up.File}},
	}
	if up.Thumbnail != nil {
		form.files = append(form.files, formFile{field: "thumbnail", src: *up.Thumbnail})
	}

	var v model.Video
	if err := c.doMultipart(ctx, http.MethodPost, pathVideos, form, progress, &v); err != nil {
		return nil, fmt.Errorf("uploading video: %w", err)
	}
	return &v, nil
}

// UpdateVideo sends only the fields set in patch.
func (c *Client) UpdateVideo(ctx context.Context, id model.ID, patch model.VideoPatch) (*model.Video, error) {
	var form multipartForm
	if patch.Title != nil {
		form.fields = append(form.fields, formField{name: "title", value: *patch.Title})
	}
	if patch.Description != nil {
		form.fields = append(form.fields, formField{name: "description", value: *patch.Description})
	}
	if patch.Thumbnail != nil {
		form.files = append(form.files, formFile{field: "thumbnail", src: *patch.Thumbnail})
	}

	var v model.Video
	if err := c.doMultipart(ctx, http.MethodPatch, videoPath(id), form, nil, &v); err != nil {
		return nil, fmt.Errorf("updating video %s: %w", id, err)
	}
	return &v, nil
}

// DeleteVideo removes a video owned by the session user.
func (c *Client) DeleteVideo(ctx context.Context, id model.ID) error {
	if _, err := c.doJSON(ctx, http.MethodDelete, videoPath(id), nil, nil); err != nil {
		return fmt.Errorf("deleting video %s: %w", id, err)
	}
	c.flushCache("video deleted")
	return nil
}

func (c *Client) doMultipart(ctx context.Context, method, path string, form multipartForm, progress model.ProgressFunc, out any) error {
	body, err := form.encode(progress)
	if err != nil {
		return fmt.Errorf("encoding form: %w", err)
	}
	rc, err := body.open()
	if err != nil {
		return err
	}

	req, err := c.newRequest(ctx, method, path, rc)
	if err != nil {
		_ = rc.Close()
		return err
	}
	req.ContentLength = body.length
	req.GetBody = body.open
	req.Header.Set("Content-Type", body.contentType)

	if _, err := c.sendVia(c.upload, req, out); err != nil {
		return err
	}
	c.flushCache("video changed")
	return nil
}
