package web

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/ericfisherdev/streamhub/internal/application"
	"github.com/ericfisherdev/streamhub/internal/domain/model"
)

const streamBufferSize = 32 << 10

// Stream proxies the backend image stream with the session credential, so
// the page's <img> never sees it. The copy ends when either side closes.
func (h *Handler) Stream(w http.ResponseWriter, r *http.Request) {
	id := model.ID(r.PathValue("id"))

	stream, err := h.videoSvc.OpenStream(r.Context(), id)
	if err != nil {
		h.logger.Warn("failed to open stream", "id", id, "error", err)
		http.Error(w, application.MessageStreamLoadFailed, http.StatusBadGateway)
		return
	}
	defer stream.Body.Close()

	rc := http.NewResponseController(w)
	// The server's write timeout would otherwise cut a long-running stream.
	if err := rc.SetWriteDeadline(time.Time{}); err != nil && !errors.Is(err, http.ErrNotSupported) {
		h.logger.Debug("could not clear write deadline", "error", err)
	}

	contentType := stream.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)

	if err := copyFlushing(w, rc, stream.Body); err != nil && r.Context().Err() == nil {
		h.logger.Debug("stream ended", "id", id, "error", err)
	}
}

// copyFlushing copies src to w, flushing after every chunk so frames reach
// the browser as they arrive.
func copyFlushing(w io.Writer, rc *http.ResponseController, src io.Reader) error {
	buf := make([]byte, streamBufferSize)
	for {
		n, err := src.Read(buf)
		if n > 0 {
			if _, werr := w.Write(buf[:n]); werr != nil {
				return werr
			}
			if ferr := rc.Flush(); ferr != nil && !errors.Is(ferr, http.ErrNotSupported) {
				return ferr
			}
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
	}
}
