// Package strict rewrites JSON Schemas into the restricted dialect
// accepted by structured-output strict modes and makes the rewrite
// reversible for enum values.
//
// Strict mode (OpenAI response_format, Anthropic output_format, Gemini
// responseSchema) accepts only a core subset of JSON Schema: no
// format/range/conditional keywords, every object closed with
// additionalProperties false and all properties required, and no raw
// control characters inside enum or const string literals. Strictify
// produces a schema that satisfies all of that; the Mapping it fills in
// lets Restore put the original enum values back into a parsed response.
//
// Strictify runs once per schema before a model call; Restore runs once
// per response after it, with the same Mapping. Both are pure tree
// transformations: they never mutate their input and never fail on
// well-formed input.
package strict

import (
	json "github.com/goccy/go-json"
)

// Mapping records, for each enum or const string a schema rewrite had to
// sanitize, the sanitized form and the original. Keys are sanitized
// values and contain no control characters. On collision the last write
// wins.
//
// A Mapping is scoped to one schema/request pair: fill it with one
// Strictify call, hand it to the matching Restore call, then drop it.
// Sharing one Mapping across concurrent calls with different schemas can
// restore the wrong original.
type Mapping map[string]string

// unsupportedKeywords is the set of schema keywords whose presence at
// any depth makes strict mode reject the whole schema.
var unsupportedKeywords = []string{
	"$schema",
	"default",
	"examples",
	"format",
	"pattern",
	"minLength",
	"maxLength",
	"minimum",
	"maximum",
	"exclusiveMinimum",
	"exclusiveMaximum",
	"multipleOf",
	"minItems",
	"maxItems",
	"uniqueItems",
	"minProperties",
	"maxProperties",
	"patternProperties",
	"not",
	"if",
	"then",
	"else",
}

var unionKeywords = []string{"anyOf", "oneOf", "allOf"}

// nodeKind is the single shape branch a schema node falls into. A node
// is treated as at most one of object-, array-, or union-shaped; nodes
// matching none pass through without recursion.
type nodeKind int

const (
	kindOther nodeKind = iota
	kindObject
	kindArray
	kindUnion
)

func classify(n *object) nodeKind {
	switch {
	case hasType(n, "object") || n.has("properties"):
		return kindObject
	case hasType(n, "array") || n.has("items"):
		return kindArray
	case n.has("anyOf") || n.has("oneOf") || n.has("allOf"):
		return kindUnion
	default:
		return kindOther
	}
}

func hasType(n *object, want string) bool {
	t, ok := n.get("type")
	return ok && t == want
}

// Strictify rewrites a schema tree into the strict dialect and returns
// the rewritten tree. The input, a graph of map[string]any, []any and
// scalars as produced by json.Unmarshal, is never mutated; non-object
// nodes (including boolean schema shorthand) are returned unchanged.
//
// Enum and const string members are sanitized; each value the rewrite
// changed is recorded in m so Restore can recover it. A nil m opts out
// of recording, giving up round-tripping but not sanitization.
//
// Go maps carry no member order, so required lists produced by this
// entry point list property names sorted. Use StrictifyJSON to keep the
// document's declaration order.
func Strictify(node any, m Mapping) any {
	return toTree(strictifyNode(fromTree(node), m))
}

// StrictifyJSON rewrites a JSON Schema document into the strict dialect,
// preserving object member order from the document, so required lists
// follow the order in which properties were declared. It fails only on
// malformed JSON.
func StrictifyJSON(schema []byte, m Mapping) ([]byte, error) {
	node, err := decodeOrdered(schema)
	if err != nil {
		return nil, err
	}
	return json.Marshal(strictifyNode(node, m))
}

// strictifyNode applies the rewrite to one node and recurses along the
// node's single shape branch. Order matters: keywords are stripped and
// const folded into enum before enum sanitization, and enum handling
// runs regardless of which shape branch the node falls into.
func strictifyNode(v any, m Mapping) any {
	node, ok := v.(*object)
	if !ok {
		return v
	}
	out := node.clone()

	for _, kw := range unsupportedKeywords {
		out.remove(kw)
	}

	if c, ok := out.get("const"); ok {
		out.set("enum", []any{c})
		out.remove("const")
	}

	if e, ok := out.get("enum"); ok {
		if members, ok := e.([]any); ok {
			out.set("enum", sanitizeEnum(members, m))
		}
	}

	switch classify(out) {
	case kindObject:
		out.set("additionalProperties", false)
		if p, ok := out.get("properties"); ok {
			if props, ok := p.(*object); ok {
				rewritten := newObject()
				required := make([]string, 0, props.len())
				for _, name := range props.keys {
					rewritten.set(name, strictifyNode(props.values[name], m))
					required = append(required, name)
				}
				out.set("properties", rewritten)
				out.set("required", required)
			}
		}
	case kindArray:
		if items, ok := out.get("items"); ok {
			out.set("items", strictifyNode(items, m))
		}
	case kindUnion:
		for _, kw := range unionKeywords {
			members, ok := out.get(kw)
			if !ok {
				continue
			}
			list, ok := members.([]any)
			if !ok {
				continue
			}
			rewritten := make([]any, len(list))
			for i, member := range list {
				rewritten[i] = strictifyNode(member, m)
			}
			out.set(kw, rewritten)
		}
	case kindOther:
		// Unknown shapes pass through with keywords stripped but no
		// recursion.
	}

	return out
}

// sanitizeEnum sanitizes string members, recording each changed value in
// m. Non-string members pass through unchanged and never enter the
// mapping.
func sanitizeEnum(members []any, m Mapping) []any {
	out := make([]any, len(members))
	for i, member := range members {
		s, ok := member.(string)
		if !ok {
			out[i] = member
			continue
		}
		clean := Sanitize(s)
		if clean != s && m != nil {
			m[clean] = s
		}
		out[i] = clean
	}
	return out
}
