package backend

import (
	"context"
	"net/http"
)

// Stage names, outermost first in the default pipeline.
const (
	StageRequestID = "request-id"
	StageObserve   = "observe"
	StageRefresh   = "refresh"
	StageAuthorize = "authorize"
)

// Doer sends a request and returns its response. *http.Client satisfies it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// DoerFunc adapts a function to the Doer interface.
type DoerFunc func(req *http.Request) (*http.Response, error)

// Do calls f(req).
func (f DoerFunc) Do(req *http.Request) (*http.Response, error) { return f(req) }

// Stage is a named step of the request pipeline. Wrap receives the rest of the
// pipeline and returns a Doer that may pass the request through, transform
// the request or response, or short-circuit without calling next.
type Stage struct {
	Name string
	Wrap func(next Doer) Doer
}

// Pipeline is an ordered list of stages in front of a terminal Doer.
// The first stage sees the request first and the response last.
type Pipeline struct {
	names []string
	head  Doer
}

// NewPipeline composes stages around terminal.
func NewPipeline(terminal Doer, stages ...Stage) *Pipeline {
	head := terminal
	for i := len(stages) - 1; i >= 0; i-- {
		head = stages[i].Wrap(head)
	}

	names := make([]string, len(stages))
	for i, s := range stages {
		names[i] = s.Name
	}
	return &Pipeline{names: names, head: head}
}

// Do sends req through every stage.
func (p *Pipeline) Do(req *http.Request) (*http.Response, error) {
	return p.head.Do(req)
}

// StageNames returns the stage names in execution order.
func (p *Pipeline) StageNames() []string {
	return append([]string(nil), p.names...)
}

type ctxKey int

const (
	retriedKey ctxKey = iota
	skipRefreshKey
	accessTokenKey
	attemptKey
)

// MarkRetried returns a context whose requests are treated as already retried:
// a 401 response on them is passed through without a refresh attempt.
func MarkRetried(ctx context.Context) context.Context {
	return context.WithValue(ctx, retriedKey, true)
}

// IsRetried reports whether req carries the retry marker.
func IsRetried(req *http.Request) bool {
	v, _ := req.Context().Value(retriedKey).(bool)
	return v
}

// withoutRefresh disables the refresh protocol for requests where a 401
// means bad input rather than an expired session (login, register, logout).
func withoutRefresh(ctx context.Context) context.Context {
	return context.WithValue(ctx, skipRefreshKey, true)
}

func refreshDisabled(ctx context.Context) bool {
	v, _ := ctx.Value(skipRefreshKey).(bool)
	return v
}

// withAccessToken pins the credential the authorize stage attaches, so a
// retry uses the credential its refresh produced.
func withAccessToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, accessTokenKey, token)
}

func accessTokenFrom(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(accessTokenKey).(string)
	return v, ok
}

// attempt records which credential the authorize stage sent.
type attempt struct {
	token string
}

func withAttempt(ctx context.Context, a *attempt) context.Context {
	return context.WithValue(ctx, attemptKey, a)
}

func attemptFrom(ctx context.Context) *attempt {
	a, _ := ctx.Value(attemptKey).(*attempt)
	return a
}
