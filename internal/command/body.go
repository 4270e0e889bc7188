package command

import (
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
)

// BodyFlag is one settable leaf of a JSON request body, addressed by the
// dot-joined property path ("address.city" -> --address.city).
type BodyFlag struct {
	Flag        string // dot-joined path
	Path        []string
	Type        ParamType // scalar types only
	Format      string
	Description string
	Required    bool // required along the whole ancestor chain
	Enum        []string
}

// deriveBodyFlags walks the preferred body schema and emits a flag per scalar
// leaf, recursing through nested objects. Arrays and non-object composites are
// not expanded. Names already claimed by an operation flag or a built-in are
// skipped. Output is sorted by path at every level so the list is stable.
func deriveBodyFlags(ref *openapi3.SchemaRef, reserved map[string]bool) []BodyFlag {
	if ref == nil || ref.Value == nil {
		return nil
	}
	root := ref.Value
	if schemaType(root) != TypeObject && len(root.Properties) == 0 {
		return nil
	}

	var out []BodyFlag
	seen := map[string]bool{}
	walkBody(root, nil, true, map[*openapi3.Schema]bool{}, func(f BodyFlag) {
		if reserved[f.Flag] || seen[f.Flag] {
			return
		}
		seen[f.Flag] = true
		out = append(out, f)
	})
	return out
}

func walkBody(s *openapi3.Schema, path []string, ancestorsRequired bool, visiting map[*openapi3.Schema]bool, emit func(BodyFlag)) {
	if s == nil || visiting[s] {
		return
	}
	visiting[s] = true
	defer delete(visiting, s)

	required := map[string]bool{}
	for _, name := range s.Required {
		required[name] = true
	}

	names := make([]string, 0, len(s.Properties))
	for name := range s.Properties {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		prop := s.Properties[name]
		if prop == nil || prop.Value == nil {
			continue
		}
		child := prop.Value
		childPath := append(append([]string(nil), path...), name)
		childRequired := ancestorsRequired && required[name]

		switch schemaType(child) {
		case TypeString, TypeNumber, TypeInteger, TypeBoolean:
			emit(BodyFlag{
				Flag:        strings.Join(childPath, "."),
				Path:        childPath,
				Type:        schemaType(child),
				Format:      child.Format,
				Description: child.Description,
				Required:    childRequired,
				Enum:        stringEnum(child),
			})
		case TypeObject:
			walkBody(child, childPath, childRequired, visiting, emit)
		default:
			if schemaType(child) == TypeUnknown && len(child.Properties) > 0 {
				walkBody(child, childPath, childRequired, visiting, emit)
			}
		}
	}
}

func reservedFlagNames(flags []Param) map[string]bool {
	out := map[string]bool{"curl": true}
	for _, f := range flags {
		out[f.Flag] = true
	}
	return out
}
