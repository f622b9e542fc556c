package transform

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/invopop/jsonschema"
	"github.com/spetersoncode/gemkit"
)

// Schema returns a copy of schema the backend accepts: definitions are
// inlined in place of every "$ref", the definition tables and "$schema" are
// removed, and on the direct API every "title" keyword is dropped. The
// input is not modified. Normalizing an already normalized schema is a
// no-op.
func Schema(p Personality, schema map[string]any) (map[string]any, error) {
	if schema == nil {
		return nil, nil
	}
	root := deepCopy(schema).(map[string]any)

	defs := map[string]any{}
	for _, key := range []string{"$defs", "definitions"} {
		if d, ok := root[key].(map[string]any); ok {
			for name, def := range d {
				defs[name] = def
			}
			delete(root, key)
		}
	}
	delete(root, "$schema")
	delete(root, "$id")

	n := &normalizer{defs: defs, stripTitles: p.StripsSchemaTitles()}
	out, err := n.node(root, nil)
	if err != nil {
		return nil, err
	}
	return out, nil
}

type normalizer struct {
	defs        map[string]any
	stripTitles bool
}

// node normalizes one schema object. stack holds the definitions being
// expanded on the current path, to reject recursive types.
func (n *normalizer) node(s map[string]any, stack []string) (map[string]any, error) {
	if ref, ok := s["$ref"].(string); ok {
		name := ref[strings.LastIndex(ref, "/")+1:]
		for _, seen := range stack {
			if seen == name {
				return nil, &gemkit.ValueError{Field: "schema", Value: ref, Msg: "recursive references cannot be inlined"}
			}
		}
		def, ok := n.defs[name].(map[string]any)
		if !ok {
			return nil, &gemkit.ValueError{Field: "schema", Value: ref, Msg: "unresolved reference"}
		}
		merged := deepCopy(def).(map[string]any)
		for k, v := range s {
			if k != "$ref" {
				merged[k] = v
			}
		}
		return n.node(merged, append(stack, name))
	}

	if n.stripTitles {
		delete(s, "title")
	}

	if props, ok := s["properties"].(map[string]any); ok {
		for name, v := range props {
			child, ok := v.(map[string]any)
			if !ok {
				continue
			}
			out, err := n.node(child, stack)
			if err != nil {
				return nil, err
			}
			props[name] = out
		}
	}
	for _, key := range []string{"items", "additionalProperties", "not"} {
		if child, ok := s[key].(map[string]any); ok {
			out, err := n.node(child, stack)
			if err != nil {
				return nil, err
			}
			s[key] = out
		}
	}
	for _, key := range []string{"anyOf", "oneOf", "allOf", "prefixItems"} {
		list, ok := s[key].([]any)
		if !ok {
			continue
		}
		for i, v := range list {
			child, ok := v.(map[string]any)
			if !ok {
				continue
			}
			out, err := n.node(child, stack)
			if err != nil {
				return nil, err
			}
			list[i] = out
		}
	}
	return s, nil
}

func deepCopy(v any) any {
	switch x := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, e := range x {
			out[k] = deepCopy(e)
		}
		return out
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = deepCopy(e)
		}
		return out
	default:
		return v
	}
}

// SchemaFor reflects T into a JSON schema and normalizes it for p.
// Struct fields follow their json tags; `jsonschema` tags add descriptions
// and constraints.
func SchemaFor[T any](p Personality) (map[string]any, error) {
	r := &jsonschema.Reflector{}
	var zero T
	s := r.Reflect(&zero)
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("marshal reflected schema: %w", err)
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decode reflected schema: %w", err)
	}
	return Schema(p, m)
}
