package request

import (
	"errors"
	"fmt"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
)

// validateValues checks one location's value map against its derived object
// schema. A nil schema means the location declares no parameters.
func validateValues(schema *openapi3.Schema, values map[string]any) []Issue {
	if schema == nil {
		return nil
	}
	return validateSchema(schema, values)
}

func validateSchema(schema *openapi3.Schema, value any) []Issue {
	err := schema.VisitJSON(value, openapi3.MultiErrors())
	return issuesFromErr(err)
}

func issuesFromErr(err error) []Issue {
	if err == nil {
		return nil
	}
	var multi openapi3.MultiError
	if errors.As(err, &multi) {
		var out []Issue
		for _, e := range multi {
			out = append(out, issueFrom(e))
		}
		return out
	}
	return []Issue{issueFrom(err)}
}

// issueFrom flattens a kin-openapi SchemaError into the path/message shape.
// Required violations are reported at the missing property's own path.
func issueFrom(err error) Issue {
	var se *openapi3.SchemaError
	if !errors.As(err, &se) {
		return Issue{Message: err.Error()}
	}

	path := strings.Join(se.JSONPointer(), ".")
	if se.SchemaField == "required" {
		if name := missingProperty(se.Reason); name != "" {
			full := name
			if path != "" {
				full = path + "." + name
			}
			return Issue{Path: full, Message: fmt.Sprintf("missing required property '%s'", name)}
		}
	}

	msg := se.Reason
	if msg == "" {
		msg = se.Error()
	}
	return Issue{Path: path, Message: msg, Value: se.Value}
}

// missingProperty pulls the property name out of kin's required-failure
// reason, `property "name" is missing`.
func missingProperty(reason string) string {
	const marker = `property "`
	i := strings.Index(reason, marker)
	if i < 0 {
		return ""
	}
	rest := reason[i+len(marker):]
	j := strings.IndexByte(rest, '"')
	if j < 0 {
		return ""
	}
	return rest[:j]
}
