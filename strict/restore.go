package strict

import (
	json "github.com/goccy/go-json"
)

// Restore walks a parsed response value and replaces every string that
// appears as a key in m with the original value recorded by Strictify.
// Slices and maps are rebuilt recursively with order and keys preserved;
// map keys are never rewritten; other scalars are returned unchanged.
// The input is never mutated.
//
// Strings absent from m are normal: most response strings were never
// sanitized enum values. With an empty or nil m, Restore is the
// identity and returns value as is.
func Restore(value any, m Mapping) any {
	if len(m) == 0 {
		return value
	}
	return restoreNode(value, m)
}

// RestoreJSON decodes a JSON document, restores sanitized strings
// through m, and re-encodes it with object member order preserved. With
// an empty or nil m the input bytes are returned unchanged.
func RestoreJSON(data []byte, m Mapping) ([]byte, error) {
	if len(m) == 0 {
		return data, nil
	}
	node, err := decodeOrdered(data)
	if err != nil {
		return nil, err
	}
	return json.Marshal(restoreNode(node, m))
}

func restoreNode(v any, m Mapping) any {
	switch t := v.(type) {
	case string:
		if original, ok := m[t]; ok {
			return original
		}
		return t
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = restoreNode(e, m)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = restoreNode(e, m)
		}
		return out
	case *object:
		out := newObject()
		for _, k := range t.keys {
			out.set(k, restoreNode(t.values[k], m))
		}
		return out
	default:
		return v
	}
}
