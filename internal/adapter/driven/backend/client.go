// Package backend implements the VideoBackend port over the video service's
// REST API. Every request passes through a pipeline of named stages that
// attaches the stored access credential and transparently refreshes it once
// when the backend answers 401.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gofri/go-github-ratelimit/v2/github_ratelimit"
	"github.com/gregjones/httpcache"
	"golang.org/x/sync/singleflight"

	"github.com/ericfisherdev/streamhub/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.VideoBackend = (*Client)(nil)

// Client implements the driven.VideoBackend port.
type Client struct {
	baseURL  *url.URL
	sessions driven.SessionStore
	notifier driven.Notifier
	logger   *slog.Logger
	metrics  *Metrics

	api    *Pipeline    // JSON calls, cached when the backend allows it
	upload *Pipeline    // multipart calls, bounded by the header wait only
	stream *Pipeline    // long-lived stream responses, never cached
	auth   *http.Client // refresh exchange, outside the pipelines
	cache  *responseCache

	refreshGroup singleflight.Group
}

// transports are the HTTP clients behind each pipeline.
type transports struct {
	api, upload, stream, auth *http.Client
	cache                     *responseCache
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// WithMetrics records request and refresh metrics. A nil *Metrics disables them.
func WithMetrics(m *Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// NewClient creates a backend client. Below the stage pipeline (request-id,
// observe, refresh, authorize), API calls go through:
//  1. go-github-ratelimit (backs off while the backend throttles)
//  2. httpcache (conditional request caching, keyed per credential)
//
// timeout bounds a whole API call. Uploads are bounded only while waiting for
// the response headers, so large files are not cut off mid-transfer. Stream
// requests skip the cache and end with the caller's context.
func NewClient(baseURL string, sessions driven.SessionStore, notifier driven.Notifier, timeout time.Duration, opts ...Option) (*Client, error) {
	responses := newResponseCache()
	cacheTransport := &httpcache.Transport{
		Transport:           varyOnCredential{next: http.DefaultTransport},
		Cache:               responses,
		MarkCachedResponses: true,
	}

	uploadTransport := http.DefaultTransport.(*http.Transport).Clone()
	uploadTransport.ResponseHeaderTimeout = timeout

	return newClient(baseURL, transports{
		api:    &http.Client{Transport: github_ratelimit.NewClient(cacheTransport).Transport, Timeout: timeout},
		upload: &http.Client{Transport: github_ratelimit.NewClient(uploadTransport).Transport},
		stream: &http.Client{},
		auth:   &http.Client{Timeout: timeout},
		cache:  responses,
	}, sessions, notifier, opts)
}

// NewClientWithHTTPClient creates a Client that uses httpClient for every
// outbound call, without a response cache. This constructor is intended for
// testing, allowing injection of an httptest server.
func NewClientWithHTTPClient(httpClient *http.Client, baseURL string, sessions driven.SessionStore, notifier driven.Notifier, opts ...Option) (*Client, error) {
	return newClient(baseURL, transports{
		api:    httpClient,
		upload: httpClient,
		stream: httpClient,
		auth:   httpClient,
	}, sessions, notifier, opts)
}

func newClient(baseURL string, t transports, sessions driven.SessionStore, notifier driven.Notifier, opts []Option) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing base URL: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("parsing base URL: %q is not absolute", baseURL)
	}
	if !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}

	c := &Client{
		baseURL:  u,
		sessions: sessions,
		notifier: notifier,
		logger:   slog.Default(),
		auth:     t.auth,
		cache:    t.cache,
	}
	for _, opt := range opts {
		opt(c)
	}

	stages := c.stages()
	c.api = NewPipeline(t.api, stages...)
	c.upload = NewPipeline(t.upload, stages...)
	c.stream = NewPipeline(t.stream, stages...)
	return c, nil
}

// stages returns the default pipeline, outermost first.
func (c *Client) stages() []Stage {
	return []Stage{
		requestIDStage(),
		c.observeStage(),
		c.refreshStage(),
		c.authorizeStage(),
	}
}

// StageNames returns the names of the request pipeline stages in order.
func (c *Client) StageNames() []string {
	return c.api.StageNames()
}

// Do sends an arbitrary request through the API pipeline. The request URL
// should come from URL so it points at the configured backend.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	return c.api.Do(req)
}

// URL resolves an endpoint path relative to the base URL.
func (c *Client) URL(path string) string {
	return c.endpoint(path).String()
}

func (c *Client) endpoint(path string) *url.URL {
	ref, err := url.Parse(strings.TrimPrefix(path, "/"))
	if err != nil {
		return c.baseURL.JoinPath(path)
	}
	return c.baseURL.ResolveReference(ref)
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.endpoint(path).String(), body)
	if err != nil {
		return nil, fmt.Errorf("building %s %s: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	return req, nil
}

// doJSON sends in (if non-nil) as a JSON body and decodes a 2xx response into
// out (if non-nil). Non-2xx responses become *APIError. The response status
// is returned in both cases.
func (c *Client) doJSON(ctx context.Context, method, path string, in, out any) (int, error) {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return 0, fmt.Errorf("encoding request body: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := c.newRequest(ctx, method, path, body)
	if err != nil {
		return 0, err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.send(req, out)
}

func (c *Client) send(req *http.Request, out any) (int, error) {
	return c.sendVia(c.api, req, out)
}

func (c *Client) sendVia(p *Pipeline, req *http.Request, out any) (int, error) {
	resp, err := p.Do(req)
	if err != nil {
		return 0, err
	}
	defer drainAndClose(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return resp.StatusCode, newAPIError(resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return resp.StatusCode, nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return resp.StatusCode, fmt.Errorf("decoding response: %w", err)
	}
	return resp.StatusCode, nil
}

// drainAndClose consumes a bounded amount of the body so the connection can be reused.
func drainAndClose(body io.ReadCloser) {
	if body == nil {
		return
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(body, 64<<10))
	_ = body.Close()
}
