package tree

import (
	"fmt"
	"strconv"
)

// Tree is a mapping-of-mappings as produced by JSON, YAML and flexform decoding.
type Tree = map[string]any

// Exists reports whether every segment of path resolves in t. A key holding a
// nil value exists.
func Exists(t Tree, path, delim string) bool {
	_, ok := lookup(t, path, delim)
	return ok
}

// Get returns the value at path, or nil when the path does not resolve.
func Get(t Tree, path, delim string) any {
	v, _ := lookup(t, path, delim)
	return v
}

// Lookup is Get with an explicit found flag.
func Lookup(t Tree, path, delim string) (any, bool) {
	return lookup(t, path, delim)
}

func lookup(t Tree, path, delim string) (any, bool) {
	if t == nil || path == "" {
		return nil, false
	}
	var node any = t
	for _, key := range segments(path, delim) {
		switch n := node.(type) {
		case map[string]any:
			v, ok := n[key]
			if !ok {
				return nil, false
			}
			node = v
		case []any:
			i, err := strconv.Atoi(key)
			if err != nil || i < 0 || i >= len(n) {
				return nil, false
			}
			node = n[i]
		default:
			return nil, false
		}
	}
	return node, true
}

// Set writes value at path and returns the new root. Maps and slices along the
// path are copied and missing levels are created, so t itself is left intact.
// A segment that is not a valid index of a list on the path leaves the list
// as it is.
func Set(t Tree, path string, value any, delim string) Tree {
	if path == "" {
		return t
	}
	out, _ := setIn(t, segments(path, delim), value).(map[string]any)
	return out
}

func setIn(node any, keys []string, value any) any {
	key := keys[0]
	if list, ok := node.([]any); ok {
		i, err := strconv.Atoi(key)
		if err != nil || i < 0 || i > len(list) {
			return list
		}
		cp := make([]any, len(list), len(list)+1)
		copy(cp, list)
		if i == len(cp) {
			cp = append(cp, nil)
		}
		if len(keys) == 1 {
			cp[i] = value
		} else {
			cp[i] = setIn(cp[i], keys[1:], value)
		}
		return cp
	}

	src, _ := node.(map[string]any)
	out := make(Tree, len(src)+1)
	for k, v := range src {
		out[k] = v
	}
	if len(keys) == 1 {
		out[key] = value
	} else {
		out[key] = setIn(out[key], keys[1:], value)
	}
	return out
}

// Merge replaces values of base with those of over, descending into nested
// maps present on both sides. Neither input is modified.
func Merge(base, over Tree) Tree {
	out := Clone(base)
	if out == nil {
		out = Tree{}
	}
	for k, v := range over {
		bm, bok := out[k].(map[string]any)
		om, ook := v.(map[string]any)
		if bok && ook {
			out[k] = Merge(bm, om)
			continue
		}
		out[k] = cloneValue(v)
	}
	return out
}

// Clone returns a deep copy of t.
func Clone(t Tree) Tree {
	if t == nil {
		return nil
	}
	out := make(Tree, len(t))
	for k, v := range t {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch n := v.(type) {
	case map[string]any:
		return Clone(n)
	case []any:
		cp := make([]any, len(n))
		for i := range n {
			cp[i] = cloneValue(n[i])
		}
		return cp
	default:
		return v
	}
}

// Normalize converts nested map[any]any nodes, as YAML decodes mappings with
// non-string keys, into Trees. Keys are formatted with fmt.Sprint. Other
// values are returned unchanged.
func Normalize(v any) any {
	switch n := v.(type) {
	case map[string]any:
		out := make(Tree, len(n))
		for k, child := range n {
			out[k] = Normalize(child)
		}
		return out
	case map[any]any:
		out := make(Tree, len(n))
		for k, child := range n {
			out[fmt.Sprint(k)] = Normalize(child)
		}
		return out
	case []any:
		out := make([]any, len(n))
		for i, child := range n {
			out[i] = Normalize(child)
		}
		return out
	}
	return v
}
