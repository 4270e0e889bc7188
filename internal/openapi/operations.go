// Package openapi flattens a typed OpenAPI document into the normalized
// shapes the command pipeline consumes: a sorted operation list with merged
// parameters, the server catalog, and the security scheme registry.
package openapi

import (
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
)

// Operation is one method+path pair with everything merged and resolved.
type Operation struct {
	Key         string // "METHOD path"
	Method      string
	Path        string
	OperationID string
	Tags        []string
	Summary     string
	Description string
	Deprecated  bool
	Security    []Alternative
	Parameters  []Parameter
	RequestBody *RequestBody
	PathVars    []string // template variables in template order
}

// Parameter is a normalized operation parameter.
type Parameter struct {
	In          string // path, query, header, cookie
	Name        string
	Required    bool
	Description string
	Schema      *openapi3.SchemaRef
}

// RequestBody groups the operation's request schemas by content type.
type RequestBody struct {
	Required     bool
	ContentTypes []string // sorted
	Schemas      map[string]*openapi3.SchemaRef
}

// PreferredContentType picks application/json, then anything json-ish, then
// the first content type.
func (b *RequestBody) PreferredContentType() string {
	if b == nil || len(b.ContentTypes) == 0 {
		return ""
	}
	for _, ct := range b.ContentTypes {
		if ct == "application/json" || strings.HasPrefix(ct, "application/json;") {
			return ct
		}
	}
	for _, ct := range b.ContentTypes {
		if strings.Contains(strings.ToLower(ct), "json") {
			return ct
		}
	}
	return b.ContentTypes[0]
}

// IsJSON reports whether the content type carries JSON.
func IsJSON(contentType string) bool {
	return strings.Contains(strings.ToLower(contentType), "json")
}

// IndexOperations flattens every path item into Operations sorted by
// (path, method).
func IndexOperations(doc *openapi3.T) []Operation {
	var out []Operation
	if doc == nil || doc.Paths == nil {
		return out
	}
	for path, item := range doc.Paths.Map() {
		if item == nil {
			continue
		}
		for method, op := range item.Operations() {
			if op == nil {
				continue
			}
			method = strings.ToUpper(method)
			out = append(out, Operation{
				Key:         method + " " + path,
				Method:      method,
				Path:        path,
				OperationID: op.OperationID,
				Tags:        append([]string(nil), op.Tags...),
				Summary:     op.Summary,
				Description: op.Description,
				Deprecated:  op.Deprecated,
				Security:    securityFor(doc, op),
				Parameters:  mergeParameters(item.Parameters, op.Parameters),
				RequestBody: normalizeBody(op.RequestBody),
				PathVars:    TemplateVars(path),
			})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Path != out[j].Path {
			return out[i].Path < out[j].Path
		}
		return out[i].Method < out[j].Method
	})
	return out
}

// mergeParameters combines path-item parameters with operation parameters.
// The operation wins on (in, name) collisions; first-seen order is kept so
// query serialization follows the authored order. Parameters without a name
// or with an unknown location are dropped, and path parameters are always
// required.
func mergeParameters(shared, own openapi3.Parameters) []Parameter {
	type key struct{ in, name string }
	idx := map[key]int{}
	var out []Parameter

	add := func(ref *openapi3.ParameterRef) {
		if ref == nil || ref.Value == nil {
			return
		}
		p := ref.Value
		in := strings.ToLower(p.In)
		switch in {
		case "path", "query", "header", "cookie":
		default:
			return
		}
		if p.Name == "" {
			return
		}
		np := Parameter{
			In:          in,
			Name:        p.Name,
			Required:    p.Required || in == "path",
			Description: p.Description,
			Schema:      p.Schema,
		}
		k := key{in, p.Name}
		if i, ok := idx[k]; ok {
			out[i] = np
			return
		}
		idx[k] = len(out)
		out = append(out, np)
	}

	for _, r := range shared {
		add(r)
	}
	for _, r := range own {
		add(r)
	}
	return out
}

func normalizeBody(ref *openapi3.RequestBodyRef) *RequestBody {
	if ref == nil || ref.Value == nil {
		return nil
	}
	rb := &RequestBody{
		Required: ref.Value.Required,
		Schemas:  map[string]*openapi3.SchemaRef{},
	}
	for ct, mt := range ref.Value.Content {
		rb.ContentTypes = append(rb.ContentTypes, ct)
		if mt != nil {
			rb.Schemas[ct] = mt.Schema
		}
	}
	sort.Strings(rb.ContentTypes)
	if len(rb.ContentTypes) == 0 && !rb.Required {
		return nil
	}
	return rb
}

// TemplateVars returns the {name} placeholders of a path or URL template in
// order of appearance.
func TemplateVars(s string) []string {
	var out []string
	for i := 0; i < len(s); i++ {
		if s[i] != '{' {
			continue
		}
		j := strings.IndexByte(s[i:], '}')
		if j <= 1 {
			continue
		}
		out = append(out, s[i+1:i+j])
		i = i + j
	}
	return out
}
