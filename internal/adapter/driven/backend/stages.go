package backend

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

const headerRequestID = "X-Request-ID"

// requestIDStage tags each logical call with an X-Request-ID. A retry keeps
// the ID of the call it repeats.
func requestIDStage() Stage {
	return Stage{Name: StageRequestID, Wrap: func(next Doer) Doer {
		return DoerFunc(func(req *http.Request) (*http.Response, error) {
			if req.Header.Get(headerRequestID) == "" {
				req = req.Clone(req.Context())
				req.Header.Set(headerRequestID, uuid.NewString())
			}
			return next.Do(req)
		})
	}}
}

// observeStage logs and measures each logical call, including any refresh
// and retry that happened inside it.
func (c *Client) observeStage() Stage {
	return Stage{Name: StageObserve, Wrap: func(next Doer) Doer {
		return DoerFunc(func(req *http.Request) (*http.Response, error) {
			start := time.Now()
			resp, err := next.Do(req)
			elapsed := time.Since(start)

			route := routeLabel(req.URL.Path, c.baseURL.Path)
			status := "error"
			if resp != nil {
				status = strconv.Itoa(resp.StatusCode)
			}
			c.metrics.observeRequest(req.Method, route, status, elapsed)

			attrs := []any{
				"method", req.Method,
				"route", route,
				"status", status,
				"duration", elapsed,
				"request_id", req.Header.Get(headerRequestID),
			}
			if err != nil {
				c.logger.Debug("backend request failed", append(attrs, "error", err)...)
			} else {
				c.logger.Debug("backend request", attrs...)
			}
			return resp, err
		})
	}}
}

// authorizeStage attaches the access credential. A credential pinned on the
// context by a retry wins over the stored one. Without a credential the
// request is sent unauthenticated.
func (c *Client) authorizeStage() Stage {
	return Stage{Name: StageAuthorize, Wrap: func(next Doer) Doer {
		return DoerFunc(func(req *http.Request) (*http.Response, error) {
			ctx := req.Context()

			token, pinned := accessTokenFrom(ctx)
			if !pinned {
				var err error
				token, err = c.sessions.AccessToken(ctx)
				if err != nil {
					c.logger.Warn("access credential unreadable, sending request unauthenticated", "error", err)
					token = ""
				}
			}
			if a := attemptFrom(ctx); a != nil {
				a.token = token
			}
			if token == "" {
				return next.Do(req)
			}

			req = req.Clone(ctx)
			req.Header.Set("Authorization", "Bearer "+token)
			return next.Do(req)
		})
	}}
}

// routeLabel turns a request path into a bounded metric label by replacing
// video IDs with ":id".
func routeLabel(path, basePath string) string {
	rel := strings.TrimPrefix(path, strings.TrimSuffix(basePath, "/"))
	segs := strings.Split(rel, "/")
	for i := 1; i < len(segs); i++ {
		if segs[i-1] == "videos" && segs[i] != "" && segs[i] != "my_videos" {
			segs[i] = ":id"
		}
	}
	return strings.Join(segs, "/")
}
