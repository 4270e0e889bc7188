// Package introspect builds the __schema payload: a deterministic,
// canonically serialized record of the loaded document and the command tree
// derived from it. Consumers diff this output across runs, so every list
// keeps model order and serialization sorts object keys.
package introspect

import (
	"github.com/oascli/oascli/internal/command"
	"github.com/oascli/oascli/internal/openapi"
	"github.com/oascli/oascli/internal/spec"
)

// SchemaVersion is bumped when the payload shape changes.
const SchemaVersion = 1

// Canonical serializes the payload byte-stably.
func Canonical(m *command.Model, minimal bool) ([]byte, error) {
	return spec.CanonicalJSON(Payload(m, minimal))
}

// Payload assembles the full record; minimal drops the operation-level detail
// (operations, planned, commandsIndex) and keeps the command surface.
func Payload(m *command.Model, minimal bool) map[string]any {
	actions := m.Actions()

	p := map[string]any{
		"schemaVersion": SchemaVersion,
		"openapi":       openapiInfo(m),
		"spec": map[string]any{
			"id":          m.SpecID,
			"fingerprint": m.Fingerprint,
			"source":      m.Source,
		},
		"capabilities": map[string]any{
			"servers":    len(m.Servers),
			"auth":       len(m.Schemes),
			"operations": len(m.Operations),
			"commands":   len(actions),
		},
		"servers":     serverList(m.Servers),
		"authSchemes": schemeList(m.Schemes),
		"commands":    commandList(m.Resources),
	}
	if !minimal {
		p["operations"] = operationList(m.Operations)
		p["planned"] = plannedList(m)
		p["commandsIndex"] = commandIndex(actions)
	}
	return p
}

func openapiInfo(m *command.Model) map[string]any {
	info := map[string]any{"version": m.OpenAPIVersion}
	put(info, "title", m.Title)
	put(info, "infoVersion", m.InfoVersion)
	return info
}

func serverList(servers []openapi.Server) []any {
	out := make([]any, 0, len(servers))
	for _, s := range servers {
		entry := map[string]any{"url": s.URL}
		put(entry, "description", s.Description)
		if len(s.VarNames) > 0 {
			entry["variableNames"] = stringList(s.VarNames)
		}
		if len(s.Variables) > 0 {
			vars := make([]any, 0, len(s.Variables))
			for _, v := range s.Variables {
				ve := map[string]any{"name": v.Name}
				put(ve, "default", v.Default)
				put(ve, "description", v.Description)
				if len(v.Enum) > 0 {
					ve["enum"] = stringList(v.Enum)
				}
				vars = append(vars, ve)
			}
			entry["variables"] = vars
		}
		out = append(out, entry)
	}
	return out
}

func schemeList(schemes []openapi.Scheme) []any {
	out := make([]any, 0, len(schemes))
	for _, s := range schemes {
		entry := map[string]any{
			"key":  s.Key,
			"kind": string(s.Kind),
		}
		put(entry, "name", s.Name)
		put(entry, "in", s.In)
		put(entry, "scheme", s.HTTPScheme)
		put(entry, "bearerFormat", s.BearerFormat)
		put(entry, "description", s.Description)
		put(entry, "openIdConnectUrl", s.OpenIDConnectURL)
		if len(s.Flows) > 0 {
			flows := make([]any, 0, len(s.Flows))
			for _, f := range s.Flows {
				fe := map[string]any{"kind": f.Kind}
				put(fe, "authorizationUrl", f.AuthorizationURL)
				put(fe, "tokenUrl", f.TokenURL)
				put(fe, "refreshUrl", f.RefreshURL)
				if len(f.Scopes) > 0 {
					fe["scopes"] = stringList(f.Scopes)
				}
				flows = append(flows, fe)
			}
			entry["flows"] = flows
		}
		out = append(out, entry)
	}
	return out
}

func operationList(ops []openapi.Operation) []any {
	out := make([]any, 0, len(ops))
	for i := range ops {
		op := &ops[i]
		entry := map[string]any{
			"key":    op.Key,
			"method": op.Method,
			"path":   op.Path,
		}
		put(entry, "operationId", op.OperationID)
		put(entry, "summary", op.Summary)
		if len(op.Tags) > 0 {
			entry["tags"] = stringList(op.Tags)
		}
		if op.Deprecated {
			entry["deprecated"] = true
		}
		if len(op.Parameters) > 0 {
			params := make([]any, 0, len(op.Parameters))
			for _, p := range op.Parameters {
				pe := map[string]any{"in": p.In, "name": p.Name, "required": p.Required}
				params = append(params, pe)
			}
			entry["parameters"] = params
		}
		if op.RequestBody != nil {
			entry["requestBody"] = map[string]any{
				"required":     op.RequestBody.Required,
				"contentTypes": stringList(op.RequestBody.ContentTypes),
			}
		}
		if len(op.Security) > 0 {
			entry["security"] = authList(op.Security)
		}
		out = append(out, entry)
	}
	return out
}

func plannedList(m *command.Model) []any {
	out := make([]any, 0, len(m.Plans))
	for i, plan := range m.Plans {
		entry := map[string]any{
			"key":             m.Operations[i].Key,
			"resource":        plan.Resource,
			"action":          plan.Action,
			"canonicalAction": plan.CanonicalAction,
			"style":           string(plan.Style),
		}
		if len(plan.PathArgs) > 0 {
			entry["pathArgs"] = stringList(plan.PathArgs)
		}
		put(entry, "aliasOf", plan.AliasOf)
		out = append(out, entry)
	}
	return out
}

func commandList(resources []*command.Resource) []any {
	out := make([]any, 0, len(resources))
	for _, res := range resources {
		actions := make([]any, 0, len(res.Actions))
		for _, a := range res.Actions {
			actions = append(actions, actionEntry(a))
		}
		out = append(out, map[string]any{
			"resource": res.Name,
			"actions":  actions,
		})
	}
	return out
}

func actionEntry(a *command.Action) map[string]any {
	entry := map[string]any{
		"id":     a.ID,
		"action": a.Name,
		"key":    a.Key,
		"method": a.Method,
		"path":   a.Path,
		"style":  string(a.Style),
	}
	put(entry, "summary", a.Summary)
	put(entry, "aliasOf", a.AliasOf)
	put(entry, "contentType", a.ContentType)
	if a.Deprecated {
		entry["deprecated"] = true
	}
	if len(a.Positionals) > 0 {
		names := make([]any, 0, len(a.Positionals))
		for _, p := range a.Positionals {
			names = append(names, p.Name)
		}
		entry["positionals"] = names
	}
	if len(a.Flags) > 0 {
		flags := make([]any, 0, len(a.Flags))
		for _, f := range a.Flags {
			fe := map[string]any{
				"flag":     f.Flag,
				"in":       f.In,
				"type":     string(f.Type),
				"required": f.Required,
			}
			if len(f.Enum) > 0 {
				fe["enum"] = stringList(f.Enum)
			}
			flags = append(flags, fe)
		}
		entry["flags"] = flags
	}
	if len(a.BodyFlags) > 0 {
		flags := make([]any, 0, len(a.BodyFlags))
		for _, f := range a.BodyFlags {
			flags = append(flags, map[string]any{
				"flag":     f.Flag,
				"type":     string(f.Type),
				"required": f.Required,
			})
		}
		entry["bodyFlags"] = flags
	}
	if len(a.Auth) > 0 {
		entry["auth"] = authList(a.Auth)
	}
	return entry
}

func commandIndex(actions []*command.Action) map[string]any {
	out := make(map[string]any, len(actions))
	for _, a := range actions {
		out[a.ID] = map[string]any{"resource": a.Resource, "action": a.Name}
	}
	return out
}

func authList(alts []openapi.Alternative) []any {
	out := make([]any, 0, len(alts))
	for _, alt := range alts {
		reqs := make([]any, 0, len(alt))
		for _, r := range alt {
			re := map[string]any{"key": r.Key}
			if len(r.Scopes) > 0 {
				re["scopes"] = stringList(r.Scopes)
			}
			reqs = append(reqs, re)
		}
		out = append(out, reqs)
	}
	return out
}

func stringList(in []string) []any {
	out := make([]any, len(in))
	for i, s := range in {
		out[i] = s
	}
	return out
}

func put(m map[string]any, key, value string) {
	if value != "" {
		m[key] = value
	}
}
