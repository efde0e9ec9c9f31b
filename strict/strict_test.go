package strict

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseTree(t *testing.T, s string) map[string]any {
	t.Helper()
	var v map[string]any
	require.NoError(t, json.Unmarshal([]byte(s), &v))
	return v
}

// collectKeys walks a schema tree and returns every object key at every
// depth.
func collectKeys(v any) []string {
	var keys []string
	switch t := v.(type) {
	case map[string]any:
		for k, e := range t {
			keys = append(keys, k)
			keys = append(keys, collectKeys(e)...)
		}
	case []any:
		for _, e := range t {
			keys = append(keys, collectKeys(e)...)
		}
	}
	return keys
}

func TestStrictifyJSON_SanitizesEnumValues(t *testing.T) {
	m := Mapping{}
	out, err := StrictifyJSON([]byte(`{"type":"string","enum":["line1\nline2\ttab\rcarriage"]}`), m)
	require.NoError(t, err)

	assert.Equal(t, `{"type":"string","enum":["line1 line2 tab carriage"]}`, string(out))
	assert.Equal(t, Mapping{"line1 line2 tab carriage": "line1\nline2\ttab\rcarriage"}, m)
}

func TestStrictifyJSON_ConstBecomesSingleElementEnum(t *testing.T) {
	m := Mapping{}
	out, err := StrictifyJSON([]byte(`{"type":"object","properties":{"content":{"type":"string","const":"a\nb"}}}`), m)
	require.NoError(t, err)

	assert.Equal(t,
		`{"type":"object","properties":{"content":{"type":"string","enum":["a b"]}},"additionalProperties":false,"required":["content"]}`,
		string(out))
	assert.Equal(t, Mapping{"a b": "a\nb"}, m)
}

func TestStrictifyJSON_PreservesPropertyOrder(t *testing.T) {
	out, err := StrictifyJSON([]byte(`{"type":"object","properties":{"zebra":{"type":"string"},"apple":{"type":"number"},"mango":{"type":"boolean"}}}`), nil)
	require.NoError(t, err)

	assert.Equal(t,
		`{"type":"object","properties":{"zebra":{"type":"string"},"apple":{"type":"number"},"mango":{"type":"boolean"}},"additionalProperties":false,"required":["zebra","apple","mango"]}`,
		string(out))
}

func TestStrictifyJSON_MalformedInput(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{name: "not json", input: `{"type":`},
		{name: "trailing data", input: `{} extra`},
		{name: "empty input", input: ``},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := StrictifyJSON([]byte(tt.input), nil)
			assert.Error(t, err)
		})
	}
}

func TestStrictifyJSON_NonObjectDocument(t *testing.T) {
	// Boolean schema shorthand and other non-object documents pass
	// through unchanged.
	tests := []struct {
		name  string
		input string
	}{
		{name: "true shorthand", input: `true`},
		{name: "false shorthand", input: `false`},
		{name: "string", input: `"schema"`},
		{name: "number", input: `42`},
		{name: "array", input: `[{"type":"string"}]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := StrictifyJSON([]byte(tt.input), nil)
			require.NoError(t, err)
			assert.Equal(t, tt.input, string(out))
		})
	}
}

func TestStrictify_StripsUnsupportedKeywords(t *testing.T) {
	input := parseTree(t, `{
		"$schema": "http://json-schema.org/draft-07/schema#",
		"type": "object",
		"default": {},
		"examples": [{}],
		"not": {"type": "null"},
		"if": {"type": "object"},
		"then": {"type": "object"},
		"else": {"type": "object"},
		"minProperties": 1,
		"maxProperties": 9,
		"patternProperties": {"^x-": {}},
		"properties": {
			"title": {"type": "string", "minLength": 1, "maxLength": 10, "pattern": "^a", "format": "email"},
			"count": {"type": "integer", "minimum": 0, "maximum": 5, "exclusiveMinimum": 0, "exclusiveMaximum": 6, "multipleOf": 1},
			"tags": {"type": "array", "items": {"type": "string", "pattern": "^t"}, "minItems": 1, "maxItems": 3, "uniqueItems": true},
			"meta": {"type": "object", "properties": {"inner": {"type": "string", "format": "uuid"}}}
		}
	}`)

	got := Strictify(input, nil)

	keys := collectKeys(got)
	for _, kw := range unsupportedKeywords {
		assert.NotContains(t, keys, kw, "keyword %q should be stripped at every depth", kw)
	}
}

func TestStrictify_UnknownKeywordsRemain(t *testing.T) {
	input := parseTree(t, `{"type": "string", "description": "a label", "x-internal": true}`)

	got, ok := Strictify(input, nil).(map[string]any)
	require.True(t, ok)

	assert.Equal(t, "a label", got["description"])
	assert.Equal(t, true, got["x-internal"])
}

func TestStrictify_ClosesObjects(t *testing.T) {
	tests := []struct {
		name         string
		input        string
		wantRequired []string
	}{
		{
			name:         "object with properties",
			input:        `{"type": "object", "properties": {"a": {"type": "string"}, "b": {"type": "number"}}}`,
			wantRequired: []string{"a", "b"},
		},
		{
			name:         "properties without explicit type",
			input:        `{"properties": {"only": {"type": "string"}}}`,
			wantRequired: []string{"only"},
		},
		{
			name:         "existing required is overwritten",
			input:        `{"type": "object", "properties": {"a": {"type": "string"}, "b": {"type": "number"}}, "required": ["a"]}`,
			wantRequired: []string{"a", "b"},
		},
		{
			name:         "empty properties",
			input:        `{"type": "object", "properties": {}}`,
			wantRequired: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Strictify(parseTree(t, tt.input), nil).(map[string]any)
			require.True(t, ok)

			assert.Equal(t, false, got["additionalProperties"])
			assert.Equal(t, tt.wantRequired, got["required"])
		})
	}
}

func TestStrictify_AdditionalPropertiesForcedFalse(t *testing.T) {
	got, ok := Strictify(parseTree(t, `{"type": "object", "additionalProperties": true}`), nil).(map[string]any)
	require.True(t, ok)

	assert.Equal(t, false, got["additionalProperties"])
	assert.NotContains(t, got, "required", "object without properties gets no required list")
}

func TestStrictify_RecursesNestedObjects(t *testing.T) {
	input := parseTree(t, `{
		"type": "object",
		"properties": {
			"outer": {
				"type": "object",
				"properties": {
					"inner": {"type": "string", "const": "deep\nvalue"}
				}
			}
		}
	}`)

	m := Mapping{}
	got, ok := Strictify(input, m).(map[string]any)
	require.True(t, ok)

	outer := got["properties"].(map[string]any)["outer"].(map[string]any)
	assert.Equal(t, false, outer["additionalProperties"])
	assert.Equal(t, []string{"inner"}, outer["required"])

	inner := outer["properties"].(map[string]any)["inner"].(map[string]any)
	assert.NotContains(t, inner, "const")
	assert.Equal(t, []any{"deep value"}, inner["enum"])
	assert.Equal(t, Mapping{"deep value": "deep\nvalue"}, m)
}

func TestStrictify_ArrayItems(t *testing.T) {
	t.Run("items recursed", func(t *testing.T) {
		input := parseTree(t, `{"type": "array", "items": {"type": "object", "properties": {"name": {"type": "string"}}}}`)

		got := Strictify(input, nil).(map[string]any)
		items := got["items"].(map[string]any)

		assert.Equal(t, false, items["additionalProperties"])
		assert.Equal(t, []string{"name"}, items["required"])
	})

	t.Run("array without items", func(t *testing.T) {
		got := Strictify(parseTree(t, `{"type": "array", "uniqueItems": true}`), nil).(map[string]any)
		assert.Equal(t, map[string]any{"type": "array"}, got)
	})

	t.Run("non-object items pass through", func(t *testing.T) {
		got := Strictify(parseTree(t, `{"type": "array", "items": true}`), nil).(map[string]any)
		assert.Equal(t, true, got["items"])
	})
}

func TestStrictify_UnionMembers(t *testing.T) {
	for _, kw := range []string{"anyOf", "oneOf", "allOf"} {
		t.Run(kw, func(t *testing.T) {
			input := parseTree(t, `{"`+kw+`": [
				{"type": "object", "properties": {"a": {"type": "string"}}},
				{"type": "string", "format": "uuid", "enum": ["x\ny"]},
				{"type": "integer", "minimum": 1}
			]}`)

			m := Mapping{}
			got := Strictify(input, m).(map[string]any)
			members := got[kw].([]any)
			require.Len(t, members, 3)

			first := members[0].(map[string]any)
			assert.Equal(t, false, first["additionalProperties"])
			assert.Equal(t, []string{"a"}, first["required"])

			second := members[1].(map[string]any)
			assert.NotContains(t, second, "format")
			assert.Equal(t, []any{"x y"}, second["enum"])

			third := members[2].(map[string]any)
			assert.NotContains(t, third, "minimum")

			assert.Equal(t, Mapping{"x y": "x\ny"}, m)
		})
	}
}

func TestStrictify_ShapeBranchesAreExclusive(t *testing.T) {
	// A node that looks object-shaped takes only the object branch;
	// union members on the same node are left untouched.
	input := parseTree(t, `{
		"type": "object",
		"properties": {"a": {"type": "string"}},
		"anyOf": [{"type": "string", "minLength": 1}]
	}`)
	wantMember := parseTree(t, `{"type": "string", "minLength": 1}`)

	got := Strictify(input, nil).(map[string]any)

	member := got["anyOf"].([]any)[0]
	if diff := cmp.Diff(wantMember, member); diff != "" {
		t.Fatalf("union member should be untouched (-want +got):\n%s", diff)
	}
}

func TestStrictify_EnumHandlingAppliesToAnyShape(t *testing.T) {
	// Enum sanitization is independent of the shape branch.
	input := parseTree(t, `{
		"type": "object",
		"properties": {"a": {"type": "string"}},
		"enum": ["tag\none"]
	}`)

	m := Mapping{}
	got := Strictify(input, m).(map[string]any)

	assert.Equal(t, []any{"tag one"}, got["enum"])
	assert.Equal(t, false, got["additionalProperties"])
	assert.Equal(t, Mapping{"tag one": "tag\none"}, m)
}

func TestStrictify_EnumMembers(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		wantEnum    []any
		wantMapping Mapping
	}{
		{
			name:        "non-string members pass through",
			input:       `{"enum": [1, true, null, "a\nb"]}`,
			wantEnum:    []any{float64(1), true, nil, "a b"},
			wantMapping: Mapping{"a b": "a\nb"},
		},
		{
			name:        "clean strings are not recorded",
			input:       `{"enum": ["clean", "also clean"]}`,
			wantEnum:    []any{"clean", "also clean"},
			wantMapping: Mapping{},
		},
		{
			name:        "collision keeps the last write",
			input:       `{"enum": ["x\ny", "x\ty"]}`,
			wantEnum:    []any{"x y", "x y"},
			wantMapping: Mapping{"x y": "x\ty"},
		},
		{
			name:        "non-string const",
			input:       `{"const": 42}`,
			wantEnum:    []any{float64(42)},
			wantMapping: Mapping{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := Mapping{}
			got := Strictify(parseTree(t, tt.input), m).(map[string]any)

			assert.Equal(t, tt.wantEnum, got["enum"])
			assert.NotContains(t, got, "const")
			assert.Equal(t, tt.wantMapping, m)
		})
	}
}

func TestStrictify_NilMappingStillSanitizes(t *testing.T) {
	got := Strictify(parseTree(t, `{"type": "string", "enum": ["a\nb"]}`), nil).(map[string]any)
	assert.Equal(t, []any{"a b"}, got["enum"])
}

func TestStrictify_NonObjectPassthrough(t *testing.T) {
	tests := []struct {
		name  string
		input any
	}{
		{name: "boolean shorthand", input: true},
		{name: "string", input: "schema"},
		{name: "number", input: float64(3)},
		{name: "nil", input: nil},
		{name: "slice", input: []any{"a", "b"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.input, Strictify(tt.input, nil))
		})
	}
}

func TestStrictify_TreeRequiredIsSorted(t *testing.T) {
	// Plain Go maps carry no member order, so the tree entry point
	// falls back to sorted property names.
	input := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"zebra": map[string]any{"type": "string"},
			"apple": map[string]any{"type": "number"},
		},
	}

	got := Strictify(input, nil).(map[string]any)
	assert.Equal(t, []string{"apple", "zebra"}, got["required"])
}

func TestStrictify_DoesNotMutateInput(t *testing.T) {
	const src = `{
		"type": "object",
		"minProperties": 1,
		"properties": {
			"status": {"type": "string", "enum": ["on\nline", "off\nline"], "format": "custom"}
		},
		"required": ["status"]
	}`
	input := parseTree(t, src)
	snapshot := parseTree(t, src)

	Strictify(input, Mapping{})

	if diff := cmp.Diff(snapshot, input); diff != "" {
		t.Fatalf("input was mutated (-want +got):\n%s", diff)
	}
}

func TestStrictify_EmptySchemaProducesEmptyMapping(t *testing.T) {
	m := Mapping{}
	got := Strictify(parseTree(t, `{"type": "object", "properties": {"a": {"type": "string"}, "b": {"type": "integer"}}}`), m)

	assert.Empty(t, m, "a schema without enum or const should produce no mapping entries")
	assert.NotNil(t, got)
}

func TestStrictifyJSON_NumbersSurviveReencoding(t *testing.T) {
	out, err := StrictifyJSON([]byte(`{"enum":[1,2.5,1e3]}`), nil)
	require.NoError(t, err)
	assert.Equal(t, `{"enum":[1,2.5,1e3]}`, string(out))
}

func TestRoundTrip(t *testing.T) {
	m := Mapping{}
	_, err := StrictifyJSON([]byte(`{
		"type": "object",
		"properties": {
			"summary": {"type": "string", "enum": ["first\nsecond", "with\ttab"]},
			"label": {"const": "multi\r\nline"}
		}
	}`), m)
	require.NoError(t, err)
	require.Len(t, m, 3)

	for sanitized, original := range m {
		assert.Equal(t, sanitized, Sanitize(original), "mapping key should be the sanitized form of its value")
		assert.Equal(t, original, Restore(sanitized, m), "every sanitized value should restore to its original")
	}
}
