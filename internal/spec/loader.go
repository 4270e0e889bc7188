package spec

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"unicode"

	"github.com/getkin/kin-openapi/openapi3"
	"gopkg.in/yaml.v3"

	"github.com/oascli/oascli/internal/naming"
	"github.com/oascli/oascli/internal/version"
)

// Input selects the spec source. Exactly one is used, embedded text winning
// over --spec. ReadFile and Client are seams for tests; nil means the real
// filesystem and the default HTTP client.
type Input struct {
	Spec     string // URL or file path from --spec
	Embedded string // embedded document text, "" when the build has none
	ReadFile func(string) ([]byte, error)
	Client   *http.Client
	Logger   *slog.Logger
}

// Load fetches, parses, dereferences and fingerprints the document.
func Load(ctx context.Context, in Input) (*Document, error) {
	logger := in.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "spec")

	var (
		data     []byte
		src      Source
		location string
		err      error
	)
	switch {
	case strings.TrimSpace(in.Embedded) != "":
		data, src = []byte(in.Embedded), SourceEmbedded
	case in.Spec != "":
		location = in.Spec
		if isHTTPURL(in.Spec) {
			src = SourceURL
			data, err = fetch(ctx, in.Client, in.Spec)
		} else {
			src = SourceFile
			readFile := in.ReadFile
			if readFile == nil {
				readFile = os.ReadFile
			}
			if data, err = readFile(in.Spec); err != nil {
				err = fmt.Errorf("%w: %v", ErrFetchFailed, err)
			}
		}
		if err != nil {
			return nil, err
		}
	default:
		return nil, ErrNoSpec
	}

	logger.Debug("spec text loaded", "source", string(src), "bytes", len(data))

	raw, err := parseDocument(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParseFailed, err)
	}
	if v, ok := raw["openapi"].(string); !ok || !strings.HasPrefix(v, "3.") {
		return nil, fmt.Errorf("%w: missing or unsupported 'openapi' version field", ErrInvalidDocument)
	}

	deref := Dereference(raw)
	fp, err := Fingerprint(deref)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParseFailed, err)
	}

	loader := &openapi3.Loader{Context: ctx, IsExternalRefsAllowed: true}
	tdoc, err := loader.LoadFromData(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParseFailed, err)
	}
	if err := tdoc.Validate(ctx); err != nil {
		// Lenient: plenty of real-world specs fail strict validation yet
		// describe their operations perfectly well.
		logger.Warn("spec validation reported problems", "error", err)
	}

	id := naming.Kebab(titleOf(raw))
	if id == "" {
		id = fp[:12]
	}

	logger.Debug("spec ready", "id", id, "fingerprint", fp)

	return &Document{
		Doc:         tdoc,
		Raw:         deref,
		Source:      src,
		Location:    location,
		Fingerprint: fp,
		ID:          id,
	}, nil
}

// parseDocument sniffs JSON vs YAML by the first non-space byte.
func parseDocument(data []byte) (map[string]any, error) {
	trimmed := bytes.TrimLeftFunc(data, unicode.IsSpace)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("empty document")
	}

	if trimmed[0] == '{' || trimmed[0] == '[' {
		var v any
		if err := json.Unmarshal(trimmed, &v); err != nil {
			return nil, err
		}
		m, ok := v.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("document root is not an object")
		}
		return m, nil
	}

	var v any
	if err := yaml.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	m, ok := normalizeYAML(v).(map[string]any)
	if !ok {
		return nil, fmt.Errorf("document root is not an object")
	}
	return m, nil
}

// normalizeYAML rewrites YAML decoding artifacts into JSON shapes: mapping
// keys become strings so the rest of the pipeline sees one tree type.
func normalizeYAML(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = normalizeYAML(val)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[fmt.Sprint(k)] = normalizeYAML(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = normalizeYAML(e)
		}
		return out
	default:
		return v
	}
}

func titleOf(raw map[string]any) string {
	info, _ := raw["info"].(map[string]any)
	title, _ := info["title"].(string)
	return title
}

func isHTTPURL(s string) bool {
	l := strings.ToLower(s)
	return strings.HasPrefix(l, "http://") || strings.HasPrefix(l, "https://")
}

func fetch(ctx context.Context, client *http.Client, rawURL string) ([]byte, error) {
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}
	req.Header.Set("Accept", "application/json, application/yaml, */*")
	req.Header.Set("User-Agent", version.UserAgent())

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: HTTP %d from %s", ErrFetchFailed, resp.StatusCode, rawURL)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}
	return data, nil
}
