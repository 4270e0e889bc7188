package command

import (
	"sort"

	"github.com/getkin/kin-openapi/openapi3"
)

// Validation holds per-location object schemas used to check flag values
// before a request is built. A location with no declared parameters is nil.
type Validation struct {
	Query  *openapi3.Schema
	Header *openapi3.Schema
	Cookie *openapi3.Schema
}

func deriveValidation(flags []Param) Validation {
	return Validation{
		Query:  locationSchema(flags, "query"),
		Header: locationSchema(flags, "header"),
		Cookie: locationSchema(flags, "cookie"),
	}
}

// locationSchema builds an object schema whose properties are the declared
// parameters of one location, keyed by wire name.
func locationSchema(flags []Param, in string) *openapi3.Schema {
	obj := &openapi3.Schema{
		Type:       &openapi3.Types{openapi3.TypeObject},
		Properties: openapi3.Schemas{},
	}
	for _, f := range flags {
		if f.In != in {
			continue
		}
		if f.Schema != nil && f.Schema.Value != nil {
			obj.Properties[f.Name] = f.Schema
		}
		if f.Required {
			obj.Required = append(obj.Required, f.Name)
		}
	}
	if len(obj.Properties) == 0 && len(obj.Required) == 0 {
		return nil
	}
	sort.Strings(obj.Required)
	return obj
}
