// Package command turns the flattened operation list into the CLI's command
// model: resources holding actions, each action carrying its positionals,
// flags, body flags, validation schemas and auth requirements. The model is
// built once per process and treated as read-only afterwards.
package command

import (
	"errors"
	"fmt"
	"sort"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/oascli/oascli/internal/naming"
	"github.com/oascli/oascli/internal/openapi"
	"github.com/oascli/oascli/internal/spec"
)

var (
	ErrUnknownResource = errors.New("unknown resource")
	ErrUnknownAction   = errors.New("unknown action")
)

// Action is one executable command: a single HTTP operation addressed as
// "<resource> <action>".
type Action struct {
	ID  string // "{spec_id}:{resource}:{action}:{kebab(operation key)}"
	Key string // "METHOD path"

	Resource      string
	Name          string
	CanonicalName string
	AliasOf       string // canonical name when a collision forced a rename
	Style         naming.Style

	Method      string
	Path        string
	RawPathArgs []string // template variables as written
	PathArgs    []string // kebab-cased

	Summary     string
	Description string
	Tags        []string
	Deprecated  bool

	Positionals []Param
	Flags       []Param
	BodyFlags   []BodyFlag

	Body        *openapi.RequestBody
	ContentType string // preferred content type, "" without a body
	BodySchema  *openapi3.SchemaRef

	Auth       []openapi.Alternative
	Validation Validation
}

// Resource groups the actions that share a resource name.
type Resource struct {
	Name    string
	Actions []*Action
}

// Model is the full command catalog derived from one document.
type Model struct {
	SpecID      string
	Fingerprint string
	Source      string
	Location    string

	OpenAPIVersion string
	Title          string
	InfoVersion    string

	Servers    []openapi.Server
	Schemes    []openapi.Scheme
	Operations []openapi.Operation
	Plans      []naming.Plan

	Resources []*Resource

	byPair map[string]*Action
}

// Build derives the command model from a loaded document. The output is
// deterministic: resources sort alphabetically and actions sort by
// (action, path, method), so the same document always yields the same tree.
func Build(doc *spec.Document) (*Model, error) {
	ops := openapi.IndexOperations(doc.Doc)
	plans := naming.PlanOperations(planInputs(ops))

	m := &Model{
		SpecID:         doc.ID,
		Fingerprint:    doc.Fingerprint,
		Source:         string(doc.Source),
		Location:       doc.Location,
		OpenAPIVersion: doc.OpenAPIVersion(),
		Title:          doc.Title(),
		InfoVersion:    doc.InfoVersion(),
		Servers:        openapi.CollectServers(doc.Doc),
		Schemes:        openapi.CollectSchemes(doc.Doc),
		Operations:     ops,
		Plans:          plans,
		byPair:         map[string]*Action{},
	}

	grouped := map[string]*Resource{}
	for i := range ops {
		action, err := buildAction(doc.ID, &ops[i], &plans[i])
		if err != nil {
			return nil, err
		}
		key := action.Resource + " " + action.Name
		if prev, dup := m.byPair[key]; dup {
			return nil, fmt.Errorf("duplicate command %q (%s conflicts with %s)", key, action.Key, prev.Key)
		}
		m.byPair[key] = action

		res := grouped[action.Resource]
		if res == nil {
			res = &Resource{Name: action.Resource}
			grouped[action.Resource] = res
			m.Resources = append(m.Resources, res)
		}
		res.Actions = append(res.Actions, action)
	}

	sort.Slice(m.Resources, func(i, j int) bool { return m.Resources[i].Name < m.Resources[j].Name })
	for _, res := range m.Resources {
		sort.Slice(res.Actions, func(i, j int) bool {
			a, b := res.Actions[i], res.Actions[j]
			if a.Name != b.Name {
				return a.Name < b.Name
			}
			if a.Path != b.Path {
				return a.Path < b.Path
			}
			return a.Method < b.Method
		})
	}
	return m, nil
}

// Lookup resolves "<resource> <action>" to its Action.
func (m *Model) Lookup(resource, action string) (*Action, error) {
	if a, ok := m.byPair[resource+" "+action]; ok {
		return a, nil
	}
	for _, res := range m.Resources {
		if res.Name == resource {
			return nil, fmt.Errorf("%w: %s %s", ErrUnknownAction, resource, action)
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownResource, resource)
}

// Actions returns every action in model order.
func (m *Model) Actions() []*Action {
	var out []*Action
	for _, res := range m.Resources {
		out = append(out, res.Actions...)
	}
	return out
}

func buildAction(specID string, op *openapi.Operation, plan *naming.Plan) (*Action, error) {
	a := &Action{
		ID:            actionID(specID, plan.Resource, plan.Action, op.Key),
		Key:           op.Key,
		Resource:      plan.Resource,
		Name:          plan.Action,
		CanonicalName: plan.CanonicalAction,
		AliasOf:       plan.AliasOf,
		Style:         plan.Style,
		Method:        op.Method,
		Path:          op.Path,
		RawPathArgs:   plan.RawPathArgs,
		PathArgs:      plan.PathArgs,
		Summary:       op.Summary,
		Description:   op.Description,
		Tags:          op.Tags,
		Deprecated:    op.Deprecated,
		Body:          op.RequestBody,
		Auth:          op.Security,
	}

	a.Positionals, a.Flags = deriveParams(op)
	if len(a.Positionals) != len(a.RawPathArgs) {
		return nil, fmt.Errorf("%s: positional/%d and path template/%d variable counts diverge", op.Key, len(a.Positionals), len(a.RawPathArgs))
	}

	if op.RequestBody != nil {
		a.ContentType = op.RequestBody.PreferredContentType()
		a.BodySchema = op.RequestBody.Schemas[a.ContentType]
		a.BodyFlags = deriveBodyFlags(a.BodySchema, reservedFlagNames(a.Flags))
	}

	a.Validation = deriveValidation(a.Flags)
	return a, nil
}

func actionID(specID, resource, action, opKey string) string {
	return fmt.Sprintf("%s:%s:%s:%s", specID, naming.Kebab(resource), naming.Kebab(action), naming.Kebab(opKey))
}

func planInputs(ops []openapi.Operation) []naming.Op {
	out := make([]naming.Op, len(ops))
	for i, op := range ops {
		out[i] = naming.Op{
			Method:      op.Method,
			Path:        op.Path,
			OperationID: op.OperationID,
			Tags:        op.Tags,
			PathVars:    op.PathVars,
		}
	}
	return out
}
