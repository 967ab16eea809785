package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/ericfisherdev/streamhub/internal/domain/model"
)

const (
	pathRefresh = "auth/refresh/"
	refreshKey  = "refresh"
)

type refreshRequest struct {
	Refresh string `json:"refresh"`
}

type refreshResponse struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// refreshStage recovers from one 401 per logical call. On a 401 it obtains a
// new access credential (or reuses one another call already obtained) and
// re-sends the request once through the rest of the pipeline. The retry never
// re-enters this stage, so a second 401 is returned to the caller as is.
func (c *Client) refreshStage() Stage {
	return Stage{Name: StageRefresh, Wrap: func(next Doer) Doer {
		return DoerFunc(func(req *http.Request) (*http.Response, error) {
			ctx := req.Context()
			if refreshDisabled(ctx) || IsRetried(req) {
				return next.Do(req)
			}

			sent := &attempt{}
			resp, err := next.Do(req.WithContext(withAttempt(ctx, sent)))
			if err != nil || resp.StatusCode != http.StatusUnauthorized {
				return resp, err
			}
			if !replayable(req) {
				c.logger.Warn("401 on a request whose body cannot be re-sent, not refreshing",
					"method", req.Method, "path", req.URL.Path)
				return resp, nil
			}
			drainAndClose(resp.Body)

			ctx = MarkRetried(ctx)
			access, err := c.currentOrRefreshed(ctx, sent.token)
			if err != nil {
				return nil, err
			}

			retry, err := rewind(withAccessToken(ctx, access), req)
			if err != nil {
				return nil, err
			}
			return next.Do(retry)
		})
	}}
}

// currentOrRefreshed returns the access credential to retry with. If the
// stored credential already differs from the one that was rejected, another
// call has refreshed in the meantime and no new refresh is needed.
// Concurrent refreshes share one exchange.
func (c *Client) currentOrRefreshed(ctx context.Context, rejected string) (string, error) {
	if rejected != "" {
		current, err := c.sessions.AccessToken(ctx)
		if err == nil && current != "" && current != rejected {
			c.logger.Debug("access credential already refreshed, retrying with it")
			return current, nil
		}
	}

	v, err, shared := c.refreshGroup.Do(refreshKey, func() (any, error) {
		// Detached so one caller's cancellation does not fail the others.
		return c.refresh(context.WithoutCancel(ctx))
	})
	if shared {
		c.logger.Debug("joined in-flight credential refresh")
	}
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// refresh exchanges the refresh credential for a new access credential.
// Any failure ends the session.
func (c *Client) refresh(ctx context.Context) (string, error) {
	tokens, err := c.exchange(ctx)
	if err == nil {
		err = c.sessions.SaveTokens(ctx, tokens)
		if err != nil {
			err = fmt.Errorf("persisting refreshed credentials: %w", err)
		}
	}
	if err != nil {
		c.metrics.observeRefresh("failure")
		c.expireSession(ctx, err)
		return "", &SessionExpiredError{Cause: err}
	}

	c.metrics.observeRefresh("success")
	c.flushCache("credential refreshed")
	c.logger.Info("access credential refreshed", "rotated", tokens.Refresh != "")
	return tokens.Access, nil
}

func (c *Client) exchange(ctx context.Context) (model.TokenPair, error) {
	refreshToken, err := c.sessions.RefreshToken(ctx)
	if err != nil {
		return model.TokenPair{}, fmt.Errorf("reading refresh credential: %w", err)
	}
	if refreshToken == "" {
		return model.TokenPair{}, ErrNoRefreshCredential
	}

	data, err := json.Marshal(refreshRequest{Refresh: refreshToken})
	if err != nil {
		return model.TokenPair{}, fmt.Errorf("encoding refresh request: %w", err)
	}
	req, err := c.newRequest(ctx, http.MethodPost, pathRefresh, bytes.NewReader(data))
	if err != nil {
		return model.TokenPair{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.auth.Do(req)
	if err != nil {
		return model.TokenPair{}, fmt.Errorf("refresh request: %w", err)
	}
	defer drainAndClose(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return model.TokenPair{}, fmt.Errorf("%w: %w", ErrRefreshRejected, newAPIError(resp))
	}

	var out refreshResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return model.TokenPair{}, fmt.Errorf("%w: decoding response: %w", ErrRefreshRejected, err)
	}
	if out.Access == "" {
		return model.TokenPair{}, fmt.Errorf("%w: response carries no access credential", ErrRefreshRejected)
	}
	return model.TokenPair{Access: out.Access, Refresh: out.Refresh}, nil
}

// expireSession clears the stored session and tells the user once.
func (c *Client) expireSession(ctx context.Context, cause error) {
	c.logger.Warn("session expired", "error", cause)
	c.flushCache("session expired")
	if err := c.sessions.Clear(ctx); err != nil {
		c.logger.Error("failed to clear expired session", "error", err)
	}
	if c.notifier != nil {
		c.notifier.Notify(ctx, model.Notification{Level: model.NotificationError, Message: MessageSessionExpired})
	}
}

// replayable reports whether req's body can be sent again.
func replayable(req *http.Request) bool {
	return req.Body == nil || req.Body == http.NoBody || req.GetBody != nil
}

// rewind returns a copy of req bound to ctx with a fresh body.
func rewind(ctx context.Context, req *http.Request) (*http.Request, error) {
	retry := req.Clone(ctx)
	if req.GetBody != nil && req.Body != nil && req.Body != http.NoBody {
		body, err := req.GetBody()
		if err != nil {
			return nil, fmt.Errorf("rewinding request body: %w", err)
		}
		retry.Body = body
	}
	return retry, nil
}
