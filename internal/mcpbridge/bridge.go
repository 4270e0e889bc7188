// Package mcpbridge serves the command model as MCP tools over stdio. Every
// action becomes one tool whose input schema is assembled from the action's
// positionals, flags, and body flags; the handler runs the same build/execute
// pipeline as the CLI and returns the JSON envelope as the tool result.
package mcpbridge

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/oascli/oascli/internal/command"
	"github.com/oascli/oascli/internal/httpexec"
	"github.com/oascli/oascli/internal/naming"
	"github.com/oascli/oascli/internal/profile"
	"github.com/oascli/oascli/internal/render"
	"github.com/oascli/oascli/internal/request"
	"github.com/oascli/oascli/internal/result"
	"github.com/oascli/oascli/internal/version"
)

// Config wires the bridge to an already-built model and executor. Globals,
// Defaults, Store, and Profile carry the same values the CLI root resolved,
// so a tool call behaves exactly like the equivalent command invocation.
type Config struct {
	Model    *command.Model
	Executor *httpexec.Executor
	Globals  request.Globals
	Defaults request.Defaults
	Store    profile.Store
	Profile  string
	Logger   *slog.Logger
}

// NewServer builds an MCP server with one tool registered per action.
func NewServer(cfg Config) *server.MCPServer {
	b := &bridge{cfg: cfg, log: cfg.Logger}
	if b.log == nil {
		b.log = slog.Default()
	}

	srv := server.NewMCPServer(cfg.Model.SpecID, serverVersion(cfg.Model))

	used := map[string]bool{}
	actions := cfg.Model.Actions()
	for _, act := range actions {
		name := uniqueToolName(toolName(act), used)
		tool := mcp.Tool{
			Name:        name,
			Description: toolDescription(act),
			InputSchema: inputSchema(act, b.log),
		}
		srv.AddTool(tool, b.handler(act))
		b.log.Debug("registered tool",
			slog.String("tool", name),
			slog.String("method", act.Method),
			slog.String("path", act.Path))
	}
	b.log.Info("mcp server ready",
		slog.String("name", cfg.Model.SpecID),
		slog.Int("tools", len(actions)))
	return srv
}

// ServeStdio runs the bridge over the given streams until the client
// disconnects or ctx is cancelled.
func ServeStdio(ctx context.Context, cfg Config, in io.Reader, out io.Writer) error {
	return server.NewStdioServer(NewServer(cfg)).Listen(ctx, in, out)
}

type bridge struct {
	cfg Config
	log *slog.Logger
}

// handler executes the action with the tool arguments mapped onto the same
// positional/flag inputs the CLI would pass.
func (b *bridge) handler(act *command.Action) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := req.GetArguments()
		positionals, flags, issues := splitArguments(act, args)
		if len(issues) > 0 {
			return b.toolResult(result.Validation(issues, nil).WithContext(act.Resource, act.Name)), nil
		}

		in := request.Input{
			Model:       b.cfg.Model,
			Action:      act,
			Positionals: positionals,
			Flags:       flags,
			Globals:     b.cfg.Globals,
			Defaults:    b.cfg.Defaults,
			Store:       b.cfg.Store,
			ProfileName: b.cfg.Profile,
		}
		return b.toolResult(b.cfg.Executor.Execute(ctx, in, false)), nil
	}
}

// toolResult renders the JSON envelope and maps the exit status onto the MCP
// error flag: anything that would exit non-zero becomes an error result.
func (b *bridge) toolResult(res result.Result) *mcp.CallToolResult {
	var buf bytes.Buffer
	render.New(&buf, &buf, render.Options{JSON: true}).Render(res)
	text := strings.TrimSuffix(buf.String(), "\n")
	if !res.OK() {
		return mcp.NewToolResultError(text)
	}
	return mcp.NewToolResultText(text)
}

// splitArguments maps the tool's argument object back onto ordered positional
// values and the flag value map. Null arguments count as not provided.
func splitArguments(act *command.Action, args map[string]any) ([]string, map[string]any, []request.Issue) {
	var issues []request.Issue
	positionals := make([]string, 0, len(act.Positionals))
	for _, p := range act.Positionals {
		v, ok := args[argKey(p)]
		if !ok || v == nil {
			issues = append(issues, request.Issue{Path: argKey(p), Message: "missing required argument"})
			continue
		}
		positionals = append(positionals, scalarString(v))
	}
	if len(issues) > 0 {
		return nil, nil, issues
	}

	flags := map[string]any{}
	for _, p := range act.Flags {
		v, ok := args[p.Key]
		if !ok || v == nil {
			continue
		}
		flags[p.Key] = flagValue(v)
	}
	for _, f := range act.BodyFlags {
		v, ok := args[f.Flag]
		if !ok || v == nil {
			continue
		}
		flags[f.Flag] = v
	}
	return positionals, flags, nil
}

// flagValue converts decoded JSON arrays into the []string form the request
// builder expects from the flag layer. Scalars pass through unchanged.
func flagValue(v any) any {
	arr, ok := v.([]any)
	if !ok {
		return v
	}
	out := make([]string, len(arr))
	for i, e := range arr {
		out[i] = scalarString(e)
	}
	return out
}

func scalarString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return ""
	}
}

// toolName is sanitize(resource)_sanitize(action), lowercase snake form.
func toolName(act *command.Action) string {
	return sanitizeToolName(act.Resource) + "_" + sanitizeToolName(act.Name)
}

var toolNameReplacer = strings.NewReplacer(" ", "_", "-", "_", "/", "_", ".", "_")

func sanitizeToolName(s string) string {
	s = toolNameReplacer.Replace(strings.ToLower(s))
	for strings.Contains(s, "__") {
		s = strings.ReplaceAll(s, "__", "_")
	}
	return strings.Trim(s, "_")
}

// uniqueToolName suffixes _2, _3, ... when two actions sanitize to the same
// tool name.
func uniqueToolName(name string, used map[string]bool) string {
	if !used[name] {
		used[name] = true
		return name
	}
	for n := 2; ; n++ {
		cand := name + "_" + strconv.Itoa(n)
		if !used[cand] {
			used[cand] = true
			return cand
		}
	}
}

func toolDescription(act *command.Action) string {
	desc := act.Summary
	if desc == "" {
		desc, _, _ = strings.Cut(act.Description, "\n")
	}
	if desc == "" {
		desc = act.Method + " " + act.Path
	} else {
		desc += " (" + act.Method + " " + act.Path + ")"
	}
	if act.Deprecated {
		desc += " (deprecated)"
	}
	return desc
}

// inputSchema flattens positionals, flags, and body flags into one object
// schema. Positional keys win on collision; a shadowed flag is dropped with a
// warning since the argument object has a single namespace.
func inputSchema(act *command.Action, log *slog.Logger) mcp.ToolInputSchema {
	props := map[string]any{}
	var required []string

	for _, p := range act.Positionals {
		key := argKey(p)
		props[key] = paramSchema(p)
		required = append(required, key)
	}
	for _, p := range act.Flags {
		if _, exists := props[p.Key]; exists {
			log.Warn("tool argument name collision", slog.String("argument", p.Key))
			continue
		}
		props[p.Key] = paramSchema(p)
		if p.Required {
			required = append(required, p.Key)
		}
	}
	for _, f := range act.BodyFlags {
		if _, exists := props[f.Flag]; exists {
			log.Warn("tool argument name collision", slog.String("argument", f.Flag))
			continue
		}
		props[f.Flag] = bodyFlagSchema(f)
		if f.Required {
			required = append(required, f.Flag)
		}
	}

	return mcp.ToolInputSchema{
		Type:       "object",
		Properties: props,
		Required:   required,
	}
}

// argKey is the argument object key for a parameter. Flags already carry
// their camelCase key; positionals derive it from the template variable.
func argKey(p command.Param) string {
	if p.Key != "" {
		return p.Key
	}
	return naming.Camel(naming.Kebab(p.Name))
}

func paramSchema(p command.Param) map[string]any {
	s := map[string]any{"type": jsonType(p.Type)}
	if p.Type == command.TypeArray {
		items := map[string]any{"type": jsonType(p.ItemType)}
		if p.ItemFormat != "" {
			items["format"] = p.ItemFormat
		}
		if len(p.ItemEnum) > 0 {
			items["enum"] = p.ItemEnum
		}
		s["items"] = items
	}
	if p.Format != "" {
		s["format"] = p.Format
	}
	if len(p.Enum) > 0 {
		s["enum"] = p.Enum
	}
	if p.Description != "" {
		s["description"] = p.Description
	}
	return s
}

func bodyFlagSchema(f command.BodyFlag) map[string]any {
	s := map[string]any{"type": jsonType(f.Type)}
	if f.Format != "" {
		s["format"] = f.Format
	}
	if len(f.Enum) > 0 {
		s["enum"] = f.Enum
	}
	if f.Description != "" {
		s["description"] = f.Description
	}
	return s
}

func jsonType(t command.ParamType) string {
	switch t {
	case command.TypeNumber:
		return "number"
	case command.TypeInteger:
		return "integer"
	case command.TypeBoolean:
		return "boolean"
	case command.TypeArray:
		return "array"
	case command.TypeObject:
		return "object"
	default:
		return "string"
	}
}

func serverVersion(m *command.Model) string {
	if m.InfoVersion != "" {
		return m.InfoVersion
	}
	return version.Version()
}
