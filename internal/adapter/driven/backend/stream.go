package backend

import (
	"context"
	"fmt"
	"net/http"

	"github.com/ericfisherdev/streamhub/internal/domain/model"
)

func streamPath(id model.ID, action string) string {
	return videoPath(id) + action + "/"
}

// StreamURL returns the backend URL of the video's image stream.
func (c *Client) StreamURL(id model.ID) string {
	return c.URL(streamPath(id, "stream"))
}

// OpenStream opens the stream with credentials attached. The response is not
// buffered or cached; the caller reads Body until done and closes it.
func (c *Client) OpenStream(ctx context.Context, id model.ID) (*model.Stream, error) {
	req, err := c.newRequest(ctx, http.MethodGet, streamPath(id, "stream"), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "multipart/x-mixed-replace, image/*")

	resp, err := c.stream.Do(req)
	if err != nil {
		return nil, fmt.Errorf("opening stream %s: %w", id, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer drainAndClose(resp.Body)
		return nil, fmt.Errorf("opening stream %s: %w", id, newAPIError(resp))
	}

	return &model.Stream{ContentType: resp.Header.Get("Content-Type"), Body: resp.Body}, nil
}

// StartStream asks the backend to start producing the stream.
func (c *Client) StartStream(ctx context.Context, id model.ID) error {
	if _, err := c.doJSON(ctx, http.MethodPost, streamPath(id, "start-stream"), nil, nil); err != nil {
		return fmt.Errorf("starting stream %s: %w", id, err)
	}
	return nil
}

// StopStream asks the backend to stop the stream.
func (c *Client) StopStream(ctx context.Context, id model.ID) error {
	if _, err := c.doJSON(ctx, http.MethodPost, streamPath(id, "stop-stream"), nil, nil); err != nil {
		return fmt.Errorf("stopping stream %s: %w", id, err)
	}
	return nil
}
