package openapi

import (
	"sort"

	"github.com/getkin/kin-openapi/openapi3"
)

// Server is one server entry with its template variables.
type Server struct {
	URL         string
	Description string
	Variables   []ServerVariable
	VarNames    []string // {name} placeholders in URL order
}

// ServerVariable carries the metadata for one {name} placeholder.
type ServerVariable struct {
	Name        string
	Default     string
	Description string
	Enum        []string
}

// Variable looks a variable up by name.
func (s Server) Variable(name string) (ServerVariable, bool) {
	for _, v := range s.Variables {
		if v.Name == name {
			return v, true
		}
	}
	return ServerVariable{}, false
}

// CollectServers gathers servers from the document root, every path item and
// every operation, de-duplicated by exact URL. The root entries come first so
// servers[0] stays the spec's default. Variable metadata from the first
// occurrence wins; later duplicates only fill gaps.
func CollectServers(doc *openapi3.T) []Server {
	var out []Server
	seen := map[string]int{}

	add := func(src *openapi3.Server) {
		if src == nil || src.URL == "" {
			return
		}
		if i, ok := seen[src.URL]; ok {
			fillServerGaps(&out[i], src)
			return
		}
		seen[src.URL] = len(out)
		out = append(out, newServer(src))
	}

	if doc == nil {
		return out
	}
	for _, s := range doc.Servers {
		add(s)
	}
	if doc.Paths != nil {
		paths := make([]string, 0, doc.Paths.Len())
		for p := range doc.Paths.Map() {
			paths = append(paths, p)
		}
		sort.Strings(paths)
		for _, p := range paths {
			item := doc.Paths.Find(p)
			if item == nil {
				continue
			}
			for _, s := range item.Servers {
				add(s)
			}
			ops := item.Operations()
			methods := make([]string, 0, len(ops))
			for m := range ops {
				methods = append(methods, m)
			}
			sort.Strings(methods)
			for _, m := range methods {
				op := ops[m]
				if op == nil || op.Servers == nil {
					continue
				}
				for _, s := range *op.Servers {
					add(s)
				}
			}
		}
	}
	return out
}

func newServer(src *openapi3.Server) Server {
	s := Server{
		URL:         src.URL,
		Description: src.Description,
		VarNames:    TemplateVars(src.URL),
	}
	// Variables in placeholder order first, any extras sorted after.
	used := map[string]bool{}
	for _, name := range s.VarNames {
		v := ServerVariable{Name: name}
		if src.Variables != nil {
			if sv := src.Variables[name]; sv != nil {
				v.Default = sv.Default
				v.Description = sv.Description
				v.Enum = append([]string(nil), sv.Enum...)
			}
		}
		s.Variables = append(s.Variables, v)
		used[name] = true
	}
	extra := make([]string, 0)
	for name := range src.Variables {
		if !used[name] {
			extra = append(extra, name)
		}
	}
	sort.Strings(extra)
	for _, name := range extra {
		sv := src.Variables[name]
		if sv == nil {
			continue
		}
		s.Variables = append(s.Variables, ServerVariable{
			Name:        name,
			Default:     sv.Default,
			Description: sv.Description,
			Enum:        append([]string(nil), sv.Enum...),
		})
	}
	return s
}

func fillServerGaps(dst *Server, src *openapi3.Server) {
	if dst.Description == "" {
		dst.Description = src.Description
	}
	if src.Variables == nil {
		return
	}
	for i := range dst.Variables {
		sv := src.Variables[dst.Variables[i].Name]
		if sv == nil {
			continue
		}
		if dst.Variables[i].Default == "" {
			dst.Variables[i].Default = sv.Default
		}
		if dst.Variables[i].Description == "" {
			dst.Variables[i].Description = sv.Description
		}
		if len(dst.Variables[i].Enum) == 0 {
			dst.Variables[i].Enum = append([]string(nil), sv.Enum...)
		}
	}
}
