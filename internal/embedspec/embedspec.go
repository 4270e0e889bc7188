// Package embedspec surfaces what a packaged build baked in: the spec
// document under embedded/assets plus the name/server/auth defaults set via
// ldflags by `spec pack`. A stock build carries none of it and every function
// returns its zero default.
package embedspec

import (
	"io/fs"
	"path"
	"sort"
	"strings"

	"github.com/oascli/oascli/embedded"
)

// Set at pack time with
// -ldflags "-X github.com/oascli/oascli/internal/embedspec.cliName=...".
var (
	cliName           string
	defaultServer     string
	defaultServerVars string // comma-separated name=value pairs
	defaultAuth       string
)

// CLIName is the packed binary name, "oascli" when not packed.
func CLIName() string {
	if cliName == "" {
		return "oascli"
	}
	return cliName
}

// DefaultServer is the packed server URL, "" when none.
func DefaultServer() string { return defaultServer }

// DefaultAuth is the packed auth scheme key, "" when none.
func DefaultAuth() string { return defaultAuth }

// DefaultServerVars parses the packed server variables.
func DefaultServerVars() map[string]string { return ParseServerVars(defaultServerVars) }

// Document returns the embedded spec text, "" when this build carries none.
func Document() string { return documentFrom(embedded.FS) }

// documentFrom picks the first document (sorted by name) under assets/.
func documentFrom(fsys fs.FS) string {
	entries, err := fs.ReadDir(fsys, "assets")
	if err != nil {
		return ""
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}
		switch strings.ToLower(path.Ext(name)) {
		case ".json", ".yaml", ".yml":
			names = append(names, name)
		}
	}
	if len(names) == 0 {
		return ""
	}
	sort.Strings(names)
	data, err := fs.ReadFile(fsys, "assets/"+names[0])
	if err != nil {
		return ""
	}
	return string(data)
}

// ParseServerVars splits comma-separated name=value pairs. Entries without
// an "=" are dropped.
func ParseServerVars(s string) map[string]string {
	out := map[string]string{}
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		name, value, ok := strings.Cut(part, "=")
		if !ok || strings.TrimSpace(name) == "" {
			continue
		}
		out[strings.TrimSpace(name)] = value
	}
	return out
}
