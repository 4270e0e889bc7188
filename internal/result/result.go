// Package result is the tagged outcome of one invocation: success, error,
// validation, prepared, curl or data. The pipeline never unwinds past this
// point; the renderer projects it to text or JSON and an exit code.
package result

import (
	"fmt"
	"time"

	"github.com/oascli/oascli/internal/request"
)

// Kind discriminates the variants.
type Kind string

const (
	KindSuccess    Kind = "success"
	KindError      Kind = "error"
	KindValidation Kind = "validation"
	KindPrepared   Kind = "prepared"
	KindCurl       Kind = "curl"
	KindData       Kind = "data"
)

// Response captures what came back over the wire.
type Response struct {
	Status  int
	OK      bool // 2xx
	Headers map[string]string
	Body    any    // parsed JSON when possible, else the raw string
	RawBody string
}

// Timing is wall-clock start and elapsed milliseconds.
type Timing struct {
	StartedAt  time.Time
	DurationMS int64
}

// Result is one variant plus optional command context.
type Result struct {
	Kind Kind

	// Resource and Action are set when the invocation context is known; the
	// renderer uses them for help hints.
	Resource string
	Action   string

	Request  *request.Prepared
	Response *Response
	Timing   *Timing

	Message string          // error variant
	Issues  []request.Issue // validation variant

	DataKind string // data variant discriminator (schema, login, ...)
	Data     any
}

func Success(req *request.Prepared, resp *Response, timing Timing) Result {
	return Result{Kind: KindSuccess, Request: req, Response: resp, Timing: &timing}
}

func Error(message string) Result {
	return Result{Kind: KindError, Message: message}
}

func Errorf(format string, args ...any) Result {
	return Error(fmt.Sprintf(format, args...))
}

// FromError wraps a pipeline error.
func FromError(err error) Result {
	return Error(err.Error())
}

func Validation(issues []request.Issue, req *request.Prepared) Result {
	return Result{Kind: KindValidation, Issues: issues, Request: req}
}

func Prepared(req *request.Prepared) Result {
	return Result{Kind: KindPrepared, Request: req}
}

func Curl(req *request.Prepared) Result {
	return Result{Kind: KindCurl, Request: req}
}

func Data(kind string, data any) Result {
	return Result{Kind: KindData, DataKind: kind, Data: data}
}

// WithContext attaches the resource/action pair for help hints.
func (r Result) WithContext(resource, action string) Result {
	r.Resource = resource
	r.Action = action
	return r
}

// OK reports whether the variant counts as a successful invocation.
func (r Result) OK() bool {
	switch r.Kind {
	case KindSuccess:
		return r.Response != nil && r.Response.OK
	case KindPrepared, KindCurl, KindData:
		return true
	}
	return false
}

// ExitCode is 0 for OK results and 1 otherwise.
func (r Result) ExitCode() int {
	if r.OK() {
		return 0
	}
	return 1
}
