package naming

import (
	"strconv"
	"strings"
)

// Style classifies how an operation is addressed.
type Style string

const (
	StyleREST Style = "rest"
	StyleRPC  Style = "rpc"
)

// Op is the slice of a normalized operation the planner needs.
type Op struct {
	Method      string // upper-case HTTP method
	Path        string
	OperationID string
	Tags        []string
	PathVars    []string // template variables in template order
}

// Plan is the naming decision for one operation.
type Plan struct {
	Resource        string
	Action          string
	CanonicalAction string
	PathArgs        []string // kebab-cased
	RawPathArgs     []string // as written in the template
	Style           Style
	AliasOf         string // canonical action when a collision forced a rename
}

var genericTags = map[string]bool{
	"default":  true,
	"defaults": true,
	"api":      true,
}

// PlanOperations assigns (resource, action) to every operation. Output is
// aligned with the input; collisions are resolved across the whole set so the
// same input always yields the same names.
func PlanOperations(ops []Op) []Plan {
	plans := make([]Plan, len(ops))
	for i, op := range ops {
		style := styleOf(op)
		resource := resourceOf(op)
		var action string
		if style == StyleRPC {
			action = rpcAction(op)
		} else {
			action = restAction(op)
		}
		raw := append([]string(nil), op.PathVars...)
		args := make([]string, len(raw))
		for j, v := range raw {
			args[j] = Kebab(v)
		}
		plans[i] = Plan{
			Resource:        resource,
			Action:          action,
			CanonicalAction: action,
			PathArgs:        args,
			RawPathArgs:     raw,
			Style:           style,
		}
	}
	resolveCollisions(ops, plans)
	return plans
}

func styleOf(op Op) Style {
	if strings.Contains(op.Path, ".") {
		return StyleRPC
	}
	if strings.Contains(op.OperationID, ".") && op.Method == "POST" {
		return StyleRPC
	}
	return StyleREST
}

func resourceOf(op Op) string {
	for _, t := range op.Tags {
		t = strings.TrimSpace(t)
		if t == "" || genericTags[strings.ToLower(t)] {
			continue
		}
		return Pluralize(Kebab(t))
	}

	if parts := splitID(op.OperationID); len(parts) > 0 {
		head := parts[0]
		if strings.EqualFold(head, "ping") {
			return "ping"
		}
		return Pluralize(Kebab(head))
	}

	for _, seg := range strings.Split(strings.Trim(op.Path, "/"), "/") {
		if seg == "" || strings.HasPrefix(seg, "{") {
			continue
		}
		// RPC-style segments like "rpc.users.list" name the resource after
		// the marker.
		if dotted := strings.Split(seg, "."); len(dotted) > 1 && strings.EqualFold(dotted[0], "rpc") {
			seg = dotted[1]
		} else {
			seg = dotted[0]
		}
		if strings.EqualFold(seg, "ping") {
			return "ping"
		}
		return Pluralize(Kebab(seg))
	}

	return "api"
}

func restAction(op Op) string {
	if parts := splitID(op.OperationID); len(parts) > 1 {
		suffix := canonicalAction(Kebab(strings.Join(parts[1:], "-")))
		if isCanonical(suffix) {
			return suffix
		}
	}
	hasArgs := len(op.PathVars) > 0
	switch {
	case op.Method == "GET" && !hasArgs:
		return "list"
	case op.Method == "POST" && !hasArgs:
		return "create"
	case op.Method == "GET":
		return "get"
	case (op.Method == "PUT" || op.Method == "PATCH") && hasArgs:
		return "update"
	case op.Method == "DELETE" && hasArgs:
		return "delete"
	default:
		return Kebab(op.Method)
	}
}

func rpcAction(op Op) string {
	if parts := splitID(op.OperationID); len(parts) > 1 {
		return canonicalAction(Kebab(strings.Join(parts[1:], "-")))
	}
	segs := strings.Split(strings.Trim(op.Path, "/"), "/")
	for i := len(segs) - 1; i >= 0; i-- {
		seg := segs[i]
		if seg == "" || strings.HasPrefix(seg, "{") {
			continue
		}
		if dotted := strings.Split(seg, "."); len(dotted) > 1 {
			return canonicalAction(Kebab(dotted[len(dotted)-1]))
		}
		break
	}
	return Kebab(op.Method)
}

// splitID breaks an operationId on ".", "__" and "_" in order of appearance.
func splitID(id string) []string {
	if id == "" {
		return nil
	}
	norm := strings.NewReplacer("__", ".", "_", ".").Replace(id)
	var out []string
	for _, p := range strings.Split(norm, ".") {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func canonicalAction(a string) string {
	switch a {
	case "retrieve", "read":
		return "get"
	case "search":
		return "list"
	case "patch":
		return "update"
	case "remove":
		return "delete"
	}
	return a
}

func isCanonical(a string) bool {
	switch a {
	case "get", "list", "create", "update", "delete":
		return true
	}
	return false
}

func synonymsFor(action string) []string {
	switch action {
	case "get":
		return []string{"get", "retrieve", "read"}
	case "list":
		return []string{"list", "search"}
	case "update":
		return []string{"update", "patch"}
	case "delete":
		return []string{"delete", "remove"}
	}
	return []string{action}
}

func resolveCollisions(ops []Op, plans []Plan) {
	groups := map[string][]int{}
	order := []string{}
	for i := range plans {
		k := plans[i].Resource + "\x00" + plans[i].Action
		if _, ok := groups[k]; !ok {
			order = append(order, k)
		}
		groups[k] = append(groups[k], i)
	}

	for _, k := range order {
		idxs := groups[k]
		if len(idxs) < 2 {
			continue
		}
		for n, i := range idxs {
			canonical := plans[i].CanonicalAction
			next := ""
			if d := disambiguator(ops[i], plans[i].Resource, canonical); d != "" {
				next = canonical + "-" + d
			} else if seg := lastNamedSegment(ops[i].Path, plans[i].Resource); seg != "" {
				next = canonical + "-" + seg
			} else {
				next = canonical + "-" + strconv.Itoa(n+1)
			}
			plans[i].Action = next
			plans[i].AliasOf = canonical
		}
	}

	// Renames may still land on a taken pair; keep names unique no matter what.
	seen := map[string]bool{}
	for i := range plans {
		key := plans[i].Resource + "\x00" + plans[i].Action
		if !seen[key] {
			seen[key] = true
			continue
		}
		base := plans[i].Action
		for n := 2; ; n++ {
			cand := base + "-" + strconv.Itoa(n)
			k := plans[i].Resource + "\x00" + cand
			if !seen[k] {
				plans[i].Action = cand
				if plans[i].AliasOf == "" {
					plans[i].AliasOf = plans[i].CanonicalAction
				}
				seen[k] = true
				break
			}
		}
	}
}

// disambiguator extracts what is left of an operationId once the action verb
// and the resource name are removed.
func disambiguator(op Op, resource, canonical string) string {
	k := Kebab(op.OperationID)
	if k == "" {
		return ""
	}
	toks := strings.Split(k, "-")
	for _, syn := range synonymsFor(canonical) {
		if len(toks) > 0 && toks[0] == syn {
			toks = toks[1:]
			break
		}
	}
	toks = removeSubsequence(toks, strings.Split(resource, "-"))
	toks = removeSubsequence(toks, strings.Split(Singularize(resource), "-"))
	out := strings.Join(toks, "-")
	if out == "" || out == canonical {
		return ""
	}
	return out
}

func lastNamedSegment(path, resource string) string {
	segs := strings.Split(strings.Trim(path, "/"), "/")
	for i := len(segs) - 1; i >= 0; i-- {
		seg := segs[i]
		if seg == "" || strings.HasPrefix(seg, "{") {
			continue
		}
		seg = Kebab(seg)
		if seg == resource || Pluralize(seg) == resource {
			continue
		}
		return seg
	}
	return ""
}

func removeSubsequence(toks, seq []string) []string {
	if len(seq) == 0 || len(seq) > len(toks) {
		return toks
	}
	var out []string
	for i := 0; i < len(toks); {
		if i+len(seq) <= len(toks) && equalTokens(toks[i:i+len(seq)], seq) {
			i += len(seq)
			continue
		}
		out = append(out, toks[i])
		i++
	}
	return out
}

func equalTokens(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
