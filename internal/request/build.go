// Package request turns one action invocation into a concrete HTTP request:
// it resolves the server, substitutes the path template, places parameters by
// location, assembles and validates the JSON body, applies auth, and renders
// the curl equivalent. Bad input and schema violations come back as Issues,
// everything else as an error.
package request

import (
	"encoding/json"
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"

	"github.com/oascli/oascli/internal/command"
	"github.com/oascli/oascli/internal/openapi"
	"github.com/oascli/oascli/internal/profile"
)

// Globals are the root-level flag values that shape every request.
type Globals struct {
	Server      string
	ServerVars  []string // raw name=value pairs
	Headers     []string // raw "Name: Value" pairs
	Auth        string   // scheme key
	BearerToken string
	Username    string
	Password    string
	APIKey      string
	AutoAuth    bool
}

// Defaults are the values baked into an embedded build. Empty means none.
type Defaults struct {
	Server     string
	ServerVars map[string]string
	Auth       string
}

// Input is everything Build needs for one invocation.
type Input struct {
	Model       *command.Model
	Action      *command.Action
	Positionals []string
	Flags       map[string]any // camelCase keys; body-flag keys keep dots
	Globals     Globals
	Defaults    Defaults
	Store       profile.Store // nil when no profile store is wired
	ProfileName string
}

// Prepared is the fully assembled request.
type Prepared struct {
	Method  string
	URL     string
	Headers *Headers
	Body    []byte // nil when the request has no body
	Curl    string // masked rendering, safe to print
}

// Issue is one validation or input problem.
type Issue struct {
	Path    string `json:"path"`
	Message string `json:"message"`
	Value   any    `json:"value,omitempty"`
}

type pair struct{ key, value string }

// Build assembles the request. A non-empty issue list means the input failed
// validation; an error means the invocation cannot proceed at all (no server,
// unknown auth scheme, missing credential).
func Build(in Input) (*Prepared, []Issue, error) {
	action := in.Action

	if issues := checkPositionals(action, in.Positionals); len(issues) > 0 {
		return nil, issues, nil
	}

	cliVars, issues := parseServerVars(in.Globals.ServerVars)
	extraHeaders, hissues := parseHeaderPairs(in.Globals.Headers)
	issues = append(issues, hissues...)
	if len(issues) > 0 {
		return nil, issues, nil
	}

	prof, profName, err := lookupProfile(in)
	if err != nil {
		return nil, nil, err
	}

	server, err := resolveServer(in, prof, cliVars)
	if err != nil {
		return nil, nil, err
	}

	path := substitutePath(action, in.Positionals)

	queryPairs, headerPairs, cookiePairs, issues := placeParams(action, in.Flags)
	if len(issues) > 0 {
		return nil, issues, nil
	}

	body, bodyContentType, issues, err := assembleBody(action, in.Flags)
	if err != nil {
		return nil, nil, err
	}
	if len(issues) > 0 {
		return nil, issues, nil
	}

	headers := NewHeaders()
	for _, p := range headerPairs {
		headers.Set(p.key, p.value)
	}
	for _, p := range extraHeaders {
		headers.Set(p.key, p.value)
	}
	if bodyContentType != "" {
		headers.Set("Content-Type", bodyContentType)
	}

	auth, err := applyAuth(in, prof, profName)
	if err != nil {
		return nil, nil, err
	}
	queryPairs = append(queryPairs, auth.query...)
	cookiePairs = append(cookiePairs, auth.cookies...)

	if len(cookiePairs) > 0 {
		parts := make([]string, len(cookiePairs))
		for i, c := range cookiePairs {
			parts[i] = c.key + "=" + c.value
		}
		headers.Set("Cookie", strings.Join(parts, "; "))
	}
	for _, p := range auth.headers {
		headers.Set(p.key, p.value)
	}

	finalURL := server + path
	if qs := encodeQuery(queryPairs); qs != "" {
		finalURL += "?" + qs
	}

	p := &Prepared{
		Method:  action.Method,
		URL:     finalURL,
		Headers: headers,
		Body:    body,
	}
	p.Curl = curlString(p)
	return p, nil, nil
}

func checkPositionals(action *command.Action, got []string) []Issue {
	var issues []Issue
	for i := len(got); i < len(action.Positionals); i++ {
		issues = append(issues, Issue{
			Path:    action.Positionals[i].Name,
			Message: "missing required positional",
		})
	}
	for i := len(action.Positionals); i < len(got); i++ {
		issues = append(issues, Issue{
			Path:    "arg[" + strconv.Itoa(i) + "]",
			Message: "unexpected positional",
			Value:   got[i],
		})
	}
	return issues
}

func parseServerVars(raw []string) (map[string]string, []Issue) {
	out := map[string]string{}
	var issues []Issue
	for _, s := range raw {
		name, value, ok := strings.Cut(s, "=")
		if !ok || strings.TrimSpace(name) == "" {
			issues = append(issues, Issue{
				Path:    "--server-var",
				Message: "expected name=value",
				Value:   s,
			})
			continue
		}
		out[strings.TrimSpace(name)] = value
	}
	return out, issues
}

func parseHeaderPairs(raw []string) ([]pair, []Issue) {
	var out []pair
	var issues []Issue
	for _, s := range raw {
		name, value, ok := strings.Cut(s, ":")
		if !ok || strings.TrimSpace(name) == "" {
			issues = append(issues, Issue{
				Path:    "--header",
				Message: "expected 'Name: Value'",
				Value:   s,
			})
			continue
		}
		out = append(out, pair{strings.TrimSpace(name), strings.TrimSpace(value)})
	}
	return out, issues
}

func lookupProfile(in Input) (profile.Profile, string, error) {
	if in.Store == nil {
		return profile.Profile{}, in.ProfileName, nil
	}
	name := profile.ResolveName(in.Store, in.ProfileName)
	p, ok, err := in.Store.Profile(name)
	if err != nil {
		return profile.Profile{}, name, fmt.Errorf("profile lookup: %w", err)
	}
	if !ok {
		return profile.Profile{}, name, nil
	}
	return p, name, nil
}

// resolveServer picks the base URL (CLI > profile > embedded default >
// servers[0]) and substitutes its template variables (CLI > embedded >
// document default). The result is trimmed of the trailing slash so a path
// template can be appended directly.
func resolveServer(in Input, prof profile.Profile, cliVars map[string]string) (string, error) {
	base := in.Globals.Server
	if base == "" {
		base = prof.Server
	}
	if base == "" {
		base = in.Defaults.Server
	}
	if base == "" && len(in.Model.Servers) > 0 {
		base = in.Model.Servers[0].URL
	}
	if base == "" {
		return "", fmt.Errorf("no server URL; pass --server or add servers to the document")
	}

	var known openapi.Server
	for _, s := range in.Model.Servers {
		if s.URL == base {
			known = s
			break
		}
	}

	for _, name := range openapi.TemplateVars(base) {
		val, ok := cliVars[name]
		if !ok {
			val, ok = in.Defaults.ServerVars[name]
		}
		if !ok {
			if v, found := known.Variable(name); found && v.Default != "" {
				val, ok = v.Default, true
			}
		}
		if !ok {
			return "", fmt.Errorf("unresolved server variable %q in %s", name, base)
		}
		base = strings.Replace(base, "{"+name+"}", val, 1)
	}

	return strings.TrimRight(base, "/"), nil
}

// substitutePath fills the template variables with URL-escaped positional
// values, one occurrence per positional, in template order.
func substitutePath(action *command.Action, positionals []string) string {
	path := action.Path
	for i, name := range action.RawPathArgs {
		path = strings.Replace(path, "{"+name+"}", url.PathEscape(positionals[i]), 1)
	}
	return path
}

// placeParams distributes flag values into per-location pair lists and
// validates each location against its derived schema. Declared order is kept
// so query strings are reproducible.
func placeParams(action *command.Action, flags map[string]any) (query, header, cookie []pair, issues []Issue) {
	values := map[string]map[string]any{
		"query":  {},
		"header": {},
		"cookie": {},
	}
	for _, p := range action.Flags {
		v, ok := flags[p.Key]
		if !ok {
			continue
		}
		coerced, issue := coerceParam(p, v)
		if issue != nil {
			issues = append(issues, *issue)
			continue
		}
		values[p.In][p.Name] = coerced

		switch p.In {
		case "query":
			for _, s := range renderValues(coerced) {
				query = append(query, pair{p.Name, s})
			}
		case "header":
			header = append(header, pair{p.Name, strings.Join(renderValues(coerced), ",")})
		case "cookie":
			cookie = append(cookie, pair{p.Name, strings.Join(renderValues(coerced), ",")})
		}
	}
	if len(issues) > 0 {
		return nil, nil, nil, issues
	}

	issues = append(issues, validateValues(action.Validation.Query, values["query"])...)
	issues = append(issues, validateValues(action.Validation.Header, values["header"])...)
	issues = append(issues, validateValues(action.Validation.Cookie, values["cookie"])...)
	if len(issues) > 0 {
		return nil, nil, nil, issues
	}
	return query, header, cookie, nil
}

// coerceParam normalizes a flag value into JSON shapes for validation and
// rejects non-finite numbers. Array parameters with numeric items parse each
// element so the schema sees numbers, not strings.
func coerceParam(p command.Param, v any) (any, *Issue) {
	switch t := v.(type) {
	case float64:
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return nil, &Issue{Path: p.Name, Message: "non-finite number", Value: fmt.Sprint(t)}
		}
		return t, nil
	case int:
		return float64(t), nil
	case int64:
		return float64(t), nil
	case []string:
		arr := make([]any, len(t))
		for i, s := range t {
			switch p.ItemType {
			case command.TypeInteger:
				n, err := strconv.ParseInt(s, 10, 64)
				if err != nil {
					return nil, &Issue{Path: p.Name, Message: "expected an integer", Value: s}
				}
				arr[i] = float64(n)
			case command.TypeNumber:
				f, err := strconv.ParseFloat(s, 64)
				if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
					return nil, &Issue{Path: p.Name, Message: "expected a number", Value: s}
				}
				arr[i] = f
			case command.TypeBoolean:
				b, err := strconv.ParseBool(s)
				if err != nil {
					return nil, &Issue{Path: p.Name, Message: "expected a boolean", Value: s}
				}
				arr[i] = b
			default:
				arr[i] = s
			}
		}
		return arr, nil
	default:
		return v, nil
	}
}

// renderValues turns a coerced value into its query/header string forms.
// Arrays fan out to one string per element.
func renderValues(v any) []string {
	switch t := v.(type) {
	case []any:
		out := make([]string, len(t))
		for i, e := range t {
			out[i] = renderScalar(e)
		}
		return out
	default:
		return []string{renderScalar(v)}
	}
}

func renderScalar(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int64:
		return strconv.FormatInt(t, 10)
	case nil:
		return ""
	default:
		return fmt.Sprint(t)
	}
}

func encodeQuery(pairs []pair) string {
	if len(pairs) == 0 {
		return ""
	}
	parts := make([]string, len(pairs))
	for i, p := range pairs {
		parts[i] = url.QueryEscape(p.key) + "=" + url.QueryEscape(p.value)
	}
	return strings.Join(parts, "&")
}

// assembleBody builds the JSON body from dot-notation flag values. With no
// values it enforces required fields (listing them as --path) and honors a
// required-but-empty body with "{}".
func assembleBody(action *command.Action, flags map[string]any) (body []byte, contentType string, issues []Issue, err error) {
	if len(action.BodyFlags) == 0 && (action.Body == nil || !action.Body.Required) {
		return nil, "", nil, nil
	}

	provided := map[string]any{}
	for _, f := range action.BodyFlags {
		if v, ok := flags[f.Flag]; ok {
			provided[f.Flag] = v
		}
	}

	if len(provided) == 0 {
		for _, f := range action.BodyFlags {
			if f.Required {
				issues = append(issues, Issue{
					Path:    "--" + f.Flag,
					Message: fmt.Sprintf("missing required property '%s'", f.Path[len(f.Path)-1]),
				})
			}
		}
		if len(issues) > 0 {
			return nil, "", issues, nil
		}
		if action.Body != nil && action.Body.Required {
			return []byte("{}"), action.ContentType, nil, nil
		}
		return nil, "", nil, nil
	}

	if !openapi.IsJSON(action.ContentType) {
		return nil, "", nil, fmt.Errorf("body flags require a JSON request body, content type is %q", action.ContentType)
	}

	root := map[string]any{}
	for _, f := range action.BodyFlags {
		raw, ok := provided[f.Flag]
		if !ok {
			continue
		}
		val, issue := coerceBodyLeaf(f, raw)
		if issue != nil {
			issues = append(issues, *issue)
			continue
		}
		insertPath(root, f.Path, val)
	}
	if len(issues) > 0 {
		return nil, "", issues, nil
	}

	if action.BodySchema != nil && action.BodySchema.Value != nil {
		if issues = validateSchema(action.BodySchema.Value, root); len(issues) > 0 {
			return nil, "", issues, nil
		}
	}

	data, merr := json.Marshal(root)
	if merr != nil {
		return nil, "", nil, fmt.Errorf("encode request body: %w", merr)
	}
	return data, action.ContentType, nil, nil
}

func coerceBodyLeaf(f command.BodyFlag, raw any) (any, *Issue) {
	if b, ok := raw.(bool); ok {
		return b, nil
	}
	s, ok := raw.(string)
	if !ok {
		s = fmt.Sprint(raw)
	}
	switch f.Type {
	case command.TypeInteger:
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, &Issue{Path: f.Flag, Message: "expected an integer", Value: s}
		}
		return n, nil
	case command.TypeNumber:
		v, err := strconv.ParseFloat(s, 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, &Issue{Path: f.Flag, Message: "expected a finite number", Value: s}
		}
		return v, nil
	case command.TypeBoolean:
		b, err := strconv.ParseBool(s)
		if err != nil {
			return nil, &Issue{Path: f.Flag, Message: "expected a boolean", Value: s}
		}
		return b, nil
	default:
		return s, nil
	}
}

// insertPath writes val into root at the dot path, creating intermediate
// objects as needed.
func insertPath(root map[string]any, path []string, val any) {
	cur := root
	for _, seg := range path[:len(path)-1] {
		next, ok := cur[seg].(map[string]any)
		if !ok {
			next = map[string]any{}
			cur[seg] = next
		}
		cur = next
	}
	cur[path[len(path)-1]] = val
}
