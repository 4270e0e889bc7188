package command

import (
	"sort"
	"strconv"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/oascli/oascli/internal/naming"
	"github.com/oascli/oascli/internal/openapi"
)

// ParamKind separates path positionals from everything else.
type ParamKind string

const (
	KindPositional ParamKind = "positional"
	KindFlag       ParamKind = "flag"
)

// ParamType is the coarse value type a parameter accepts.
type ParamType string

const (
	TypeString  ParamType = "string"
	TypeNumber  ParamType = "number"
	TypeInteger ParamType = "integer"
	TypeBoolean ParamType = "boolean"
	TypeArray   ParamType = "array"
	TypeObject  ParamType = "object"
	TypeUnknown ParamType = "unknown"
)

// Param is one derived CLI input: a positional (path parameter) or a flag
// (query, header, cookie parameter).
type Param struct {
	Kind        ParamKind
	In          string // path, query, header, cookie
	Name        string // wire name
	Flag        string // kebab-cased long name without the "--"; empty for positionals
	Key         string // camelCase lookup key for the flag value map
	Required    bool
	Description string

	Type   ParamType
	Format string
	Enum   []string // string-valued members only

	ItemType   ParamType
	ItemFormat string
	ItemEnum   []string

	Schema *openapi3.SchemaRef
}

// deriveParams splits an operation's merged parameters into positionals (one
// per path template variable, in template order) and flags sorted by
// (in, name). Template variables without a declared parameter still get a
// positional so the argument arity always matches the template.
func deriveParams(op *openapi.Operation) (positionals, flags []Param) {
	declared := map[string]openapi.Parameter{}
	for _, p := range op.Parameters {
		if p.In == "path" {
			declared[p.Name] = p
		}
	}

	for _, v := range op.PathVars {
		pp := Param{
			Kind:     KindPositional,
			In:       "path",
			Name:     v,
			Required: true,
			Type:     TypeString,
		}
		if d, ok := declared[v]; ok {
			pp.Description = d.Description
			pp.Schema = d.Schema
			fillTypes(&pp)
		}
		positionals = append(positionals, pp)
	}

	taken := map[string]bool{"curl": true}
	for _, p := range op.Parameters {
		if p.In == "path" {
			continue
		}
		fp := Param{
			Kind:        KindFlag,
			In:          p.In,
			Name:        p.Name,
			Required:    p.Required,
			Description: p.Description,
			Schema:      p.Schema,
		}
		fillTypes(&fp)
		fp.Flag = uniqueFlag(naming.Kebab(p.Name), taken)
		fp.Key = naming.Camel(fp.Flag)
		flags = append(flags, fp)
	}

	sort.SliceStable(flags, func(i, j int) bool {
		if flags[i].In != flags[j].In {
			return flags[i].In < flags[j].In
		}
		return flags[i].Name < flags[j].Name
	})
	return positionals, flags
}

// uniqueFlag reserves name in taken, suffixing "-2", "-3", ... when two
// parameters kebab to the same long name.
func uniqueFlag(name string, taken map[string]bool) string {
	if name == "" {
		name = "param"
	}
	if !taken[name] {
		taken[name] = true
		return name
	}
	for n := 2; ; n++ {
		cand := name + "-" + strconv.Itoa(n)
		if !taken[cand] {
			taken[cand] = true
			return cand
		}
	}
}

func fillTypes(p *Param) {
	if p.Schema == nil || p.Schema.Value == nil {
		if p.Type == "" {
			p.Type = TypeUnknown
		}
		return
	}
	s := p.Schema.Value
	p.Type = schemaType(s)
	p.Format = s.Format
	p.Enum = stringEnum(s)

	if p.Type == TypeArray && s.Items != nil && s.Items.Value != nil {
		it := s.Items.Value
		p.ItemType = schemaType(it)
		p.ItemFormat = it.Format
		p.ItemEnum = stringEnum(it)
	}
}

// schemaType maps schema.type to a ParamType. 3.1 type arrays pick the first
// non-"null" entry so nullable parameters keep their useful type.
func schemaType(s *openapi3.Schema) ParamType {
	if s == nil || s.Type == nil {
		return TypeUnknown
	}
	for _, t := range *s.Type {
		switch t {
		case "null":
			continue
		case "string":
			return TypeString
		case "number":
			return TypeNumber
		case "integer":
			return TypeInteger
		case "boolean":
			return TypeBoolean
		case "array":
			return TypeArray
		case "object":
			return TypeObject
		}
	}
	return TypeUnknown
}

func stringEnum(s *openapi3.Schema) []string {
	if s == nil || len(s.Enum) == 0 {
		return nil
	}
	var out []string
	for _, v := range s.Enum {
		if str, ok := v.(string); ok {
			out = append(out, str)
		}
	}
	return out
}
