// Package render projects a result onto output streams: human text or a
// stable JSON envelope, stdout for outcomes, stderr for failures, and the
// process exit code.
package render

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"

	"golang.org/x/term"

	"github.com/oascli/oascli/internal/request"
	"github.com/oascli/oascli/internal/result"
	"github.com/oascli/oascli/internal/spec"
)

// Options shape the rendering.
type Options struct {
	JSON        bool // machine envelope instead of human text
	ForcePretty bool // indent JSON bodies even when stdout is not a terminal
	CLIName     string
}

type Renderer struct {
	out     io.Writer
	errOut  io.Writer
	json    bool
	pretty  bool
	cliName string
}

func New(out, errOut io.Writer, opts Options) *Renderer {
	pretty := opts.ForcePretty
	if !pretty {
		if f, ok := out.(*os.File); ok {
			pretty = term.IsTerminal(int(f.Fd()))
		}
	}
	name := opts.CLIName
	if name == "" {
		name = "oascli"
	}
	return &Renderer{
		out:     out,
		errOut:  errOut,
		json:    opts.JSON,
		pretty:  pretty,
		cliName: name,
	}
}

// Render writes the result and returns the exit code.
func (r *Renderer) Render(res result.Result) int {
	if r.json {
		r.renderJSON(res)
	} else {
		r.renderText(res)
	}
	return res.ExitCode()
}

func (r *Renderer) renderText(res result.Result) {
	switch res.Kind {
	case result.KindSuccess:
		if res.Response.OK {
			r.writeBody(r.out, res.Response.RawBody)
			return
		}
		status := http.StatusText(res.Response.Status)
		if status != "" {
			fmt.Fprintf(r.errOut, "HTTP %d %s\n", res.Response.Status, status)
		} else {
			fmt.Fprintf(r.errOut, "HTTP %d\n", res.Response.Status)
		}
		r.writeBody(r.errOut, res.Response.RawBody)
		r.hint(res)

	case result.KindError:
		fmt.Fprintf(r.errOut, "error: %s\n", res.Message)
		r.hint(res)

	case result.KindValidation:
		fmt.Fprintln(r.errOut, "validation error:")
		for _, issue := range res.Issues {
			line := fmt.Sprintf("  - %s: %s", issue.Path, issue.Message)
			if issue.Path == "" {
				line = fmt.Sprintf("  - %s", issue.Message)
			}
			if issue.Value != nil {
				line += fmt.Sprintf(" (got %v)", issue.Value)
			}
			fmt.Fprintln(r.errOut, line)
		}
		r.hint(res)

	case result.KindPrepared:
		p := res.Request
		fmt.Fprintf(r.out, "%s %s\n", p.Method, p.URL)
		p.Headers.Each(func(name, value string) {
			fmt.Fprintf(r.out, "%s: %s\n", name, value)
		})
		if len(p.Body) > 0 {
			fmt.Fprintln(r.out)
			r.writeBody(r.out, string(p.Body))
		}

	case result.KindCurl:
		fmt.Fprintln(r.out, res.Request.Curl)

	case result.KindData:
		r.renderDataText(res)
	}
}

func (r *Renderer) renderJSON(res result.Result) {
	switch res.Kind {
	case result.KindSuccess:
		env := map[string]any{
			"ok":      res.Response.OK,
			"status":  res.Response.Status,
			"headers": res.Response.Headers,
			"body":    res.Response.Body,
		}
		if res.Timing != nil {
			env["durationMs"] = res.Timing.DurationMS
		}
		r.writeEnvelope(r.out, env)

	case result.KindError:
		env := map[string]any{"ok": false, "error": res.Message}
		if res.Response != nil {
			env["status"] = res.Response.Status
			env["body"] = res.Response.Body
		}
		r.writeEnvelope(r.errOut, env)

	case result.KindValidation:
		r.writeEnvelope(r.errOut, map[string]any{"ok": false, "errors": res.Issues})

	case result.KindPrepared:
		r.writeEnvelope(r.out, map[string]any{"ok": true, "request": requestMap(res.Request)})

	case result.KindCurl:
		r.writeEnvelope(r.out, map[string]any{"ok": true, "curl": res.Request.Curl})

	case result.KindData:
		// The schema payload is its own canonical document; everything else
		// rides the envelope.
		if res.DataKind == "schema" {
			r.writeEnvelope(r.out, res.Data)
			return
		}
		r.writeEnvelope(r.out, map[string]any{"ok": true, "kind": res.DataKind, "data": res.Data})
	}
}

func (r *Renderer) renderDataText(res result.Result) {
	data, _ := res.Data.(map[string]any)
	get := func(key string) string {
		s, _ := data[key].(string)
		return s
	}

	switch res.DataKind {
	case "login":
		fmt.Fprintf(r.out, "token stored for profile %q\n", get("profile"))
	case "logout":
		fmt.Fprintf(r.out, "token removed for profile %q\n", get("profile"))
	case "whoami":
		fmt.Fprintf(r.out, "profile: %s\n", get("profile"))
		if s := get("server"); s != "" {
			fmt.Fprintf(r.out, "server: %s\n", s)
		}
		if s := get("authScheme"); s != "" {
			fmt.Fprintf(r.out, "auth scheme: %s\n", s)
		}
		if stored, _ := data["tokenStored"].(bool); stored {
			fmt.Fprintln(r.out, "token: stored")
		} else {
			fmt.Fprintln(r.out, "token: none")
		}
	default:
		canonical, err := spec.CanonicalJSON(res.Data)
		if err != nil {
			fmt.Fprintf(r.errOut, "error: %v\n", err)
			return
		}
		var buf bytes.Buffer
		if err := json.Indent(&buf, canonical, "", "  "); err != nil {
			buf.Write(canonical)
		}
		buf.WriteByte('\n')
		_, _ = r.out.Write(buf.Bytes())
	}
}

// writeEnvelope emits one canonical, compact JSON document per line.
func (r *Renderer) writeEnvelope(w io.Writer, v any) {
	data, err := spec.CanonicalJSON(v)
	if err != nil {
		fmt.Fprintf(r.errOut, "error: %v\n", err)
		return
	}
	data = append(data, '\n')
	_, _ = w.Write(data)
}

// writeBody prints a response or request body, pretty-indenting valid JSON
// when the output is a terminal.
func (r *Renderer) writeBody(w io.Writer, body string) {
	if body == "" {
		return
	}
	out := []byte(body)
	if r.pretty && json.Valid(out) {
		var buf bytes.Buffer
		if err := json.Indent(&buf, out, "", "  "); err == nil {
			out = buf.Bytes()
		}
	}
	_, _ = w.Write(out)
	if out[len(out)-1] != '\n' {
		_, _ = w.Write([]byte("\n"))
	}
}

func (r *Renderer) hint(res result.Result) {
	if res.Resource == "" || res.Action == "" {
		return
	}
	fmt.Fprintf(r.errOut, "Run '%s %s %s --help' for usage.\n", r.cliName, res.Resource, res.Action)
}

// requestMap is the JSON shape of a prepared request.
func requestMap(p *request.Prepared) map[string]any {
	m := map[string]any{
		"method":  p.Method,
		"url":     p.URL,
		"headers": p.Headers,
	}
	if len(p.Body) > 0 {
		m["body"] = string(p.Body)
	}
	return m
}
