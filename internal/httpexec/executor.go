// Package httpexec runs a prepared request through an injectable fetcher and
// folds whatever happens into the result IR. One call, one request: retries,
// pagination and timeouts belong to the caller.
package httpexec

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/oascli/oascli/internal/request"
	"github.com/oascli/oascli/internal/result"
	"github.com/oascli/oascli/internal/version"
)

// Fetcher issues one HTTP request. *http.Client satisfies it; tests swap in
// a stub returning a canned response.
type Fetcher interface {
	Do(*http.Request) (*http.Response, error)
}

// FetcherFunc adapts a function to the Fetcher interface.
type FetcherFunc func(*http.Request) (*http.Response, error)

func (f FetcherFunc) Do(req *http.Request) (*http.Response, error) { return f(req) }

// Executor binds the request builder to a fetcher. Zero value works: the
// default client has no timeout, cancellation comes from the context.
type Executor struct {
	Fetcher   Fetcher
	Logger    *slog.Logger
	UserAgent string
}

// Prepare builds the request without touching the network.
func (e *Executor) Prepare(in request.Input) result.Result {
	p, issues, err := request.Build(in)
	r := e.fold(p, issues, err)
	if r.Kind == "" {
		r = result.Prepared(p)
	}
	return r.WithContext(in.Action.Resource, in.Action.Name)
}

// Execute builds and sends the request. With curl set it returns the curl
// rendering instead of performing I/O.
func (e *Executor) Execute(ctx context.Context, in request.Input, curl bool) result.Result {
	p, issues, err := request.Build(in)
	if r := e.fold(p, issues, err); r.Kind != "" {
		return r.WithContext(in.Action.Resource, in.Action.Name)
	}
	if curl {
		return result.Curl(p).WithContext(in.Action.Resource, in.Action.Name)
	}
	return e.send(ctx, p).WithContext(in.Action.Resource, in.Action.Name)
}

// fold maps builder failures to their variants; Kind stays empty on success.
func (e *Executor) fold(p *request.Prepared, issues []request.Issue, err error) result.Result {
	if err != nil {
		return result.FromError(err)
	}
	if len(issues) > 0 {
		return result.Validation(issues, p)
	}
	return result.Result{}
}

func (e *Executor) send(ctx context.Context, p *request.Prepared) result.Result {
	logger := e.logger()

	if ctx == nil {
		ctx = context.Background()
	}
	if ctx.Err() != nil {
		return cancelled(p)
	}

	var bodyReader io.Reader
	if len(p.Body) > 0 {
		bodyReader = bytes.NewReader(p.Body)
	}
	req, err := http.NewRequestWithContext(ctx, p.Method, p.URL, bodyReader)
	if err != nil {
		r := result.FromError(err)
		r.Request = p
		return r
	}
	p.Headers.Each(func(name, value string) {
		req.Header.Set(name, value)
	})
	if req.Header.Get("User-Agent") == "" {
		ua := e.UserAgent
		if ua == "" {
			ua = version.UserAgent()
		}
		req.Header.Set("User-Agent", ua)
	}
	if req.Header.Get("Accept") == "" {
		req.Header.Set("Accept", "application/json")
	}

	logger.Debug("sending request", "method", p.Method, "url", p.URL)

	started := time.Now()
	resp, err := e.fetcher().Do(req)
	timing := result.Timing{StartedAt: started, DurationMS: time.Since(started).Milliseconds()}

	if err != nil {
		if ctx.Err() != nil || errors.Is(err, context.Canceled) {
			return cancelled(p)
		}
		r := result.FromError(err)
		r.Request = p
		r.Timing = &timing
		return r
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		if ctx.Err() != nil || errors.Is(err, context.Canceled) {
			return cancelled(p)
		}
		r := result.FromError(err)
		r.Request = p
		r.Timing = &timing
		return r
	}

	logger.Debug("response received",
		"status", resp.StatusCode,
		"bytes", len(raw),
		"duration_ms", timing.DurationMS)

	response := &result.Response{
		Status:  resp.StatusCode,
		OK:      resp.StatusCode >= 200 && resp.StatusCode < 300,
		Headers: flattenHeader(resp.Header),
		Body:    parseBody(resp.Header.Get("Content-Type"), raw),
		RawBody: string(raw),
	}
	return result.Success(p, response, timing)
}

func cancelled(p *request.Prepared) result.Result {
	r := result.Error("cancelled")
	r.Request = p
	return r
}

// parseBody decodes JSON leniently: when the content type claims JSON and
// decoding fails, the raw text is kept instead of failing the invocation.
func parseBody(contentType string, raw []byte) any {
	if len(raw) == 0 {
		return nil
	}
	if strings.Contains(strings.ToLower(contentType), "json") {
		var v any
		if err := json.Unmarshal(raw, &v); err == nil {
			return v
		}
	}
	return string(raw)
}

func flattenHeader(h http.Header) map[string]string {
	out := make(map[string]string, len(h))
	for name, values := range h {
		out[name] = strings.Join(values, ", ")
	}
	return out
}

func (e *Executor) fetcher() Fetcher {
	if e.Fetcher != nil {
		return e.Fetcher
	}
	return http.DefaultClient
}

func (e *Executor) logger() *slog.Logger {
	if e.Logger != nil {
		return e.Logger
	}
	return slog.Default().With("component", "httpexec")
}
