package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/invopop/jsonschema"

	"github.com/i2y/bridle/schema"
)

// Tool is an executable tool the model can call. Parameter schemas are
// rewritten into the strict dialect before they are sent, so a Tool may
// declare any JSON Schema it likes, enums with awkward values included.
type Tool interface {
	// Name returns the tool's name as seen by the model.
	Name() string

	// Description returns the tool's description for the model.
	Description() string

	// Parameters returns the JSON Schema for the tool's arguments.
	Parameters() *jsonschema.Schema

	// Execute runs the tool with the given JSON arguments.
	Execute(ctx context.Context, args json.RawMessage) (any, error)
}

// TypedTool is a Tool backed by a Go function. The argument schema is
// reflected from In; results of type Out are serialized for the model.
type TypedTool[In any, Out any] struct {
	name        string
	description string
	fn          func(ctx context.Context, in In) (Out, error)
	params      *jsonschema.Schema
}

// NewTool creates a type-safe tool from a function.
//
// Example:
//
//	type WeatherInput struct {
//	    City string `json:"city" jsonschema:"required,description=City name"`
//	}
//
//	type WeatherOutput struct {
//	    Temperature float64 `json:"temperature"`
//	    Conditions  string  `json:"conditions"`
//	}
//
//	weatherTool, err := llm.NewTool("get_weather", "Get weather for a city",
//	    func(ctx context.Context, in WeatherInput) (WeatherOutput, error) {
//	        return WeatherOutput{Temperature: 72.5, Conditions: "Sunny"}, nil
//	    },
//	)
func NewTool[In any, Out any](
	name, description string,
	fn func(ctx context.Context, in In) (Out, error),
) (*TypedTool[In, Out], error) {
	if name == "" {
		return nil, errors.New("tool name must not be empty")
	}
	if fn == nil {
		return nil, errors.New("tool function must not be nil")
	}

	var zero In
	return &TypedTool[In, Out]{
		name:        name,
		description: description,
		fn:          fn,
		params:      schema.Reflector.Reflect(&zero),
	}, nil
}

// MustNewTool is like NewTool but panics on error. Useful for
// package-level tool definitions.
func MustNewTool[In any, Out any](
	name, description string,
	fn func(ctx context.Context, in In) (Out, error),
) *TypedTool[In, Out] {
	t, err := NewTool(name, description, fn)
	if err != nil {
		panic(err)
	}
	return t
}

func (t *TypedTool[In, Out]) Name() string { return t.name }

func (t *TypedTool[In, Out]) Description() string { return t.description }

func (t *TypedTool[In, Out]) Parameters() *jsonschema.Schema { return t.params }

// Execute decodes args into In and runs the tool function. A function
// failure comes back as a ToolError naming the tool.
func (t *TypedTool[In, Out]) Execute(ctx context.Context, args json.RawMessage) (any, error) {
	var input In
	if err := json.Unmarshal(args, &input); err != nil {
		return nil, fmt.Errorf("decoding tool arguments: %w", err)
	}
	out, err := t.fn(ctx, input)
	if err != nil {
		return nil, &ToolError{ToolName: t.name, Cause: err}
	}
	return out, nil
}

// TypedCall runs the tool function directly with a typed input,
// skipping the JSON round trip.
func (t *TypedTool[In, Out]) TypedCall(ctx context.Context, input In) (Out, error) {
	return t.fn(ctx, input)
}

// ToolRegistry holds the tools available to ExecuteToolCalls, keyed by
// name. Registering a tool under an existing name replaces it.
type ToolRegistry struct {
	tools map[string]Tool
}

// NewToolRegistry creates an empty tool registry.
func NewToolRegistry() *ToolRegistry {
	return &ToolRegistry{tools: make(map[string]Tool)}
}

// Register adds tools to the registry.
func (r *ToolRegistry) Register(tools ...Tool) {
	for _, t := range tools {
		r.tools[t.Name()] = t
	}
}

// Get retrieves a tool by name.
func (r *ToolRegistry) Get(name string) (Tool, bool) {
	t, ok := r.tools[name]
	return t, ok
}

// All returns all registered tools.
func (r *ToolRegistry) All() []Tool {
	tools := make([]Tool, 0, len(r.tools))
	for _, t := range r.tools {
		tools = append(tools, t)
	}
	return tools
}

// ExecuteToolCalls runs each tool call in order and returns the tool
// result messages to feed back into the conversation. Arguments taken
// from a Response have already had sanitized enum values restored, so
// tools receive the values their schemas declared.
//
// A missing tool aborts with ToolNotFoundError; a tool that runs and
// fails becomes an error message for the model instead.
func ExecuteToolCalls(ctx context.Context, toolCalls []ToolCall, registry *ToolRegistry) ([]Message, error) {
	if len(toolCalls) == 0 {
		return nil, nil
	}

	messages := make([]Message, 0, len(toolCalls))
	for _, tc := range toolCalls {
		tool, ok := registry.Get(tc.Name)
		if !ok {
			return nil, &ToolNotFoundError{Name: tc.Name}
		}

		result, err := tool.Execute(ctx, json.RawMessage(tc.Arguments))
		messages = append(messages, ToolMessage(tc.ID, resultContent(result, err)))
	}
	return messages, nil
}

// resultContent renders a tool outcome as message content. Strings pass
// through; other values are serialized as JSON; failures are reported
// to the model as text rather than aborting the exchange.
func resultContent(result any, err error) string {
	if err != nil {
		return fmt.Sprintf("Error: %v", err)
	}
	if s, ok := result.(string); ok {
		return s
	}
	encoded, err := json.Marshal(result)
	if err != nil {
		return fmt.Sprintf("Error marshaling result: %v", err)
	}
	return string(encoded)
}
