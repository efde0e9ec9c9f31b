package llm

import (
	"errors"
	"fmt"
)

var (
	// ErrProviderRequired is returned when a call has no provider set.
	ErrProviderRequired = errors.New("provider is required: use WithProvider option")

	// ErrModelRequired is returned when a call has no model set.
	ErrModelRequired = errors.New("model is required: use WithModel option")

	// ErrNotParsed is returned by Parsed on a response that carries no
	// parsed value.
	ErrNotParsed = errors.New("response was not parsed: use CallParse to get structured output")
)

// ProviderError wraps a failure from the provider backend. StatusCode
// is zero when the failure happened before an HTTP status was known;
// provider packages expose richer typed errors through Unwrap.
type ProviderError struct {
	Provider   string
	StatusCode int
	Message    string
	Cause      error
}

func (e *ProviderError) Error() string {
	msg := e.Provider + " error"
	if e.StatusCode != 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, e.StatusCode)
	}
	msg += ": " + e.Message
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

func (e *ProviderError) Unwrap() error {
	return e.Cause
}

// ParseError reports response content that did not decode into the
// requested type. Content holds the full restored document for
// inspection.
type ParseError struct {
	Content string
	Target  string
	Cause   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse response as %s: %v", e.Target, e.Cause)
}

func (e *ParseError) Unwrap() error {
	return e.Cause
}

// SchemaError reports that a caller-supplied output schema could not be
// rewritten into the strict dialect. The rewrite itself never fails on a
// parsed schema tree; the only cause is a schema document that is not
// valid JSON.
type SchemaError struct {
	Name  string
	Cause error
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("strictifying output schema %q: %v", e.Name, e.Cause)
}

func (e *SchemaError) Unwrap() error {
	return e.Cause
}

// ToolError wraps a failure from a tool function.
type ToolError struct {
	ToolName string
	Cause    error
}

func (e *ToolError) Error() string {
	return fmt.Sprintf("tool %q execution failed: %v", e.ToolName, e.Cause)
}

func (e *ToolError) Unwrap() error {
	return e.Cause
}

// ToolNotFoundError is returned when the model calls a tool that is not
// in the registry.
type ToolNotFoundError struct {
	Name string
}

func (e *ToolNotFoundError) Error() string {
	return fmt.Sprintf("tool not found: %q", e.Name)
}
