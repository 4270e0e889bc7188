package spec

import "strings"

// Dereference resolves every internal "#/..." $ref in a generic document by
// substituting the target node. The first materialization of a target is
// shared: later references to the same pointer reuse the same handle, and a
// reference that re-enters a target still being materialized is left as the
// literal $ref node, which breaks the cycle.
func Dereference(root map[string]any) map[string]any {
	d := &dereferencer{
		root:      root,
		resolved:  map[string]any{},
		resolving: map[string]bool{},
	}
	out, _ := d.walk(root).(map[string]any)
	if out == nil {
		return root
	}
	return out
}

type dereferencer struct {
	root      map[string]any
	resolved  map[string]any
	resolving map[string]bool
}

func (d *dereferencer) walk(node any) any {
	switch n := node.(type) {
	case map[string]any:
		if ref, ok := n["$ref"].(string); ok && strings.HasPrefix(ref, "#/") {
			return d.resolve(ref, n)
		}
		out := make(map[string]any, len(n))
		for k, v := range n {
			out[k] = d.walk(v)
		}
		return out
	case []any:
		out := make([]any, len(n))
		for i, v := range n {
			out[i] = d.walk(v)
		}
		return out
	default:
		return node
	}
}

func (d *dereferencer) resolve(ref string, refNode map[string]any) any {
	if v, ok := d.resolved[ref]; ok {
		return v
	}
	if d.resolving[ref] {
		return refNode
	}
	target, ok := lookupPointer(d.root, ref)
	if !ok {
		// External or dangling refs stay as written.
		return refNode
	}

	d.resolving[ref] = true
	defer delete(d.resolving, ref)

	if m, isMap := target.(map[string]any); isMap {
		// Chase ref-to-ref chains.
		if next, ok := m["$ref"].(string); ok && strings.HasPrefix(next, "#/") {
			out := d.resolve(next, m)
			d.resolved[ref] = out
			return out
		}
		// Register the shell first so self-references share this handle.
		shell := make(map[string]any, len(m))
		d.resolved[ref] = shell
		for k, v := range m {
			shell[k] = d.walk(v)
		}
		return shell
	}

	out := d.walk(target)
	d.resolved[ref] = out
	return out
}

// lookupPointer walks a "#/a/b/0" JSON pointer through maps and arrays.
func lookupPointer(root map[string]any, ref string) (any, bool) {
	path := strings.TrimPrefix(ref, "#/")
	var cur any = root
	for _, tok := range strings.Split(path, "/") {
		tok = strings.ReplaceAll(tok, "~1", "/")
		tok = strings.ReplaceAll(tok, "~0", "~")
		switch node := cur.(type) {
		case map[string]any:
			v, ok := node[tok]
			if !ok {
				return nil, false
			}
			cur = v
		case []any:
			i, ok := arrayIndex(tok, len(node))
			if !ok {
				return nil, false
			}
			cur = node[i]
		default:
			return nil, false
		}
	}
	return cur, true
}

func arrayIndex(tok string, n int) (int, bool) {
	if tok == "" {
		return 0, false
	}
	i := 0
	for _, c := range tok {
		if c < '0' || c > '9' {
			return 0, false
		}
		i = i*10 + int(c-'0')
		if i >= n {
			return 0, false
		}
	}
	return i, true
}
