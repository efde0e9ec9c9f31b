// Package openapi extracts JSON Schemas from OpenAPI documents so they
// can be used as model output schemas.
//
// Extracted schemas have every reference inlined, since a schema sent
// to a provider cannot point back into the source document. OpenAPI
// parsing does not preserve property declaration order, so properties
// in extracted schemas are alphabetical, as are any required lists
// derived from them downstream.
package openapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/getkin/kin-openapi/openapi3"
)

// ExtractComponent returns the named schema from the document's
// components.schemas section, with references inlined.
func ExtractComponent(ctx context.Context, doc []byte, name string) (json.RawMessage, error) {
	spec, err := load(ctx, doc)
	if err != nil {
		return nil, err
	}

	if spec.Components == nil || spec.Components.Schemas == nil {
		return nil, errors.New("document has no component schemas")
	}
	ref, ok := spec.Components.Schemas[name]
	if !ok {
		return nil, fmt.Errorf("component schema %q not found (have %v)", name, componentNames(spec))
	}

	return marshalSchema(ref)
}

// ExtractResponse returns the response schema for the operation with
// the given operationId and HTTP status, with references inlined.
// When no response matches the status, the operation's default
// response is used if present.
func ExtractResponse(ctx context.Context, doc []byte, operationID, status string) (json.RawMessage, error) {
	spec, err := load(ctx, doc)
	if err != nil {
		return nil, err
	}

	op := findOperation(spec, operationID)
	if op == nil {
		return nil, fmt.Errorf("operation %q not found", operationID)
	}
	if op.Responses == nil || op.Responses.Len() == 0 {
		return nil, fmt.Errorf("operation %q has no responses", operationID)
	}

	ref := op.Responses.Value(status)
	if ref == nil {
		ref = op.Responses.Value("default")
	}
	if ref == nil || ref.Value == nil {
		return nil, fmt.Errorf("operation %q has no %s response", operationID, status)
	}

	schema := responseSchema(ref.Value)
	if schema == nil {
		return nil, fmt.Errorf("operation %q response %s has no JSON body schema", operationID, status)
	}

	return marshalSchema(schema)
}

func load(ctx context.Context, doc []byte) (*openapi3.T, error) {
	loader := &openapi3.Loader{
		Context:               ctx,
		IsExternalRefsAllowed: false,
	}

	spec, err := loader.LoadFromData(doc)
	if err != nil {
		return nil, fmt.Errorf("loading document: %w", err)
	}
	if err := spec.Validate(ctx, openapi3.DisableExamplesValidation()); err != nil {
		return nil, fmt.Errorf("validating document: %w", err)
	}
	return spec, nil
}

func findOperation(spec *openapi3.T, operationID string) *openapi3.Operation {
	if spec.Paths == nil {
		return nil
	}
	for _, item := range spec.Paths.Map() {
		if item == nil {
			continue
		}
		for _, op := range item.Operations() {
			if op != nil && op.OperationID == operationID {
				return op
			}
		}
	}
	return nil
}

// responseSchema picks the schema of the JSON body, falling back to
// the first media type present.
func responseSchema(resp *openapi3.Response) *openapi3.SchemaRef {
	if len(resp.Content) == 0 {
		return nil
	}
	if mt, ok := resp.Content["application/json"]; ok {
		return mt.Schema
	}
	for _, mt := range resp.Content {
		return mt.Schema
	}
	return nil
}

func componentNames(spec *openapi3.T) []string {
	names := make([]string, 0, len(spec.Components.Schemas))
	for name := range spec.Components.Schemas {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func marshalSchema(ref *openapi3.SchemaRef) (json.RawMessage, error) {
	tree, err := schemaTree(ref, map[*openapi3.Schema]bool{})
	if err != nil {
		return nil, err
	}
	return json.Marshal(tree)
}

// schemaTree converts a resolved schema into a plain JSON tree,
// following references instead of emitting $ref. path guards against
// cyclic references, which cannot be inlined.
func schemaTree(ref *openapi3.SchemaRef, path map[*openapi3.Schema]bool) (map[string]any, error) {
	if ref == nil || ref.Value == nil {
		return nil, fmt.Errorf("unresolved schema reference %q", refName(ref))
	}
	s := ref.Value
	if path[s] {
		return nil, fmt.Errorf("cyclic schema reference %q cannot be inlined", refName(ref))
	}
	path[s] = true
	defer delete(path, s)

	out := map[string]any{}

	if t := schemaType(s.Type); t != "" {
		out["type"] = t
	}
	if s.Description != "" {
		out["description"] = s.Description
	}
	if s.Format != "" {
		out["format"] = s.Format
	}
	if s.Default != nil {
		out["default"] = s.Default
	}
	if len(s.Enum) > 0 {
		out["enum"] = append([]any(nil), s.Enum...)
	}
	if s.Pattern != "" {
		out["pattern"] = s.Pattern
	}

	if s.Min != nil {
		out["minimum"] = *s.Min
	}
	if s.Max != nil {
		out["maximum"] = *s.Max
	}
	if s.ExclusiveMin {
		out["exclusiveMinimum"] = true
	}
	if s.ExclusiveMax {
		out["exclusiveMaximum"] = true
	}
	if s.MinLength != 0 {
		out["minLength"] = s.MinLength
	}
	if s.MaxLength != nil {
		out["maxLength"] = *s.MaxLength
	}
	if s.MinItems != 0 {
		out["minItems"] = s.MinItems
	}
	if s.MaxItems != nil {
		out["maxItems"] = *s.MaxItems
	}

	if len(s.Required) > 0 {
		out["required"] = append([]string(nil), s.Required...)
	}
	if len(s.Properties) > 0 {
		props := make(map[string]any, len(s.Properties))
		for name, prop := range s.Properties {
			sub, err := schemaTree(prop, path)
			if err != nil {
				return nil, err
			}
			props[name] = sub
		}
		out["properties"] = props
	}
	if s.Items != nil {
		items, err := schemaTree(s.Items, path)
		if err != nil {
			return nil, err
		}
		out["items"] = items
	}

	if s.AdditionalProperties.Has != nil {
		out["additionalProperties"] = *s.AdditionalProperties.Has
	} else if s.AdditionalProperties.Schema != nil {
		sub, err := schemaTree(s.AdditionalProperties.Schema, path)
		if err != nil {
			return nil, err
		}
		out["additionalProperties"] = sub
	}

	for keyword, refs := range map[string]openapi3.SchemaRefs{
		"allOf": s.AllOf,
		"anyOf": s.AnyOf,
		"oneOf": s.OneOf,
	} {
		if len(refs) == 0 {
			continue
		}
		members := make([]any, 0, len(refs))
		for _, member := range refs {
			sub, err := schemaTree(member, path)
			if err != nil {
				return nil, err
			}
			members = append(members, sub)
		}
		out[keyword] = members
	}

	return out, nil
}

func schemaType(types *openapi3.Types) string {
	if types == nil {
		return ""
	}
	values := types.Slice()
	if len(values) == 0 {
		return ""
	}
	return values[0]
}

func refName(ref *openapi3.SchemaRef) string {
	if ref == nil {
		return ""
	}
	return ref.Ref
}
