package llm

import (
	"context"
	"errors"
	"log/slog"

	"github.com/i2y/bridle/provider"
)

// Response wraps a provider response with typed parsed content. T is
// the structured output type for CallParse; plain Call uses string.
type Response[T any] struct {
	raw       *provider.Response
	parsed    T
	hasParsed bool
	parseErr  error
	messages  []Message       // full conversation, response included
	config    *responseConfig // call settings carried for Resume
}

// responseConfig stores the call settings a resumed conversation reuses.
type responseConfig struct {
	providerName string
	model        string
	tools        []Tool
	logger       *slog.Logger
}

// Text returns the text content of the response. For structured output
// calls, sanitized enum values have already been restored.
func (r Response[T]) Text() string {
	if r.raw == nil {
		return ""
	}
	return r.raw.Content
}

// Parsed returns the structured output, or the ParseError recorded
// when the response content did not decode into T. A zero Response
// returns ErrNotParsed.
func (r Response[T]) Parsed() (T, error) {
	if r.parseErr != nil {
		return r.parsed, r.parseErr
	}
	if !r.hasParsed {
		return r.parsed, ErrNotParsed
	}
	return r.parsed, nil
}

// MustParse returns the parsed value or panics.
// Useful in tests or when you're certain parsing succeeded.
func (r Response[T]) MustParse() T {
	v, err := r.Parsed()
	if err != nil {
		panic(err)
	}
	return v
}

// HasToolCalls reports whether the response contains tool calls.
func (r Response[T]) HasToolCalls() bool {
	return r.raw != nil && len(r.raw.ToolCalls) > 0
}

// ToolCalls returns any tool calls made by the model. Argument JSON has
// already been restored through the call's mapping.
func (r Response[T]) ToolCalls() []ToolCall {
	if r.raw == nil {
		return nil
	}
	calls := make([]ToolCall, len(r.raw.ToolCalls))
	for i, tc := range r.raw.ToolCalls {
		calls[i] = ToolCall{
			ID:        tc.ID,
			Name:      tc.Name,
			Arguments: tc.Arguments,
		}
	}
	return calls
}

// Usage returns token usage statistics.
func (r Response[T]) Usage() Usage {
	if r.raw == nil {
		return Usage{}
	}
	return Usage{
		PromptTokens:     r.raw.Usage.PromptTokens,
		CompletionTokens: r.raw.Usage.CompletionTokens,
		TotalTokens:      r.raw.Usage.TotalTokens,
	}
}

// FinishReason returns why the model stopped generating.
func (r Response[T]) FinishReason() FinishReason {
	if r.raw == nil {
		return ""
	}
	return FinishReason(r.raw.FinishReason)
}

// Raw returns the underlying provider response, for debugging or
// provider-specific data.
func (r Response[T]) Raw() *provider.Response { return r.raw }

// Messages returns the full conversation history, the assistant's
// response included.
func (r Response[T]) Messages() []Message { return r.messages }

// errNotResumable reports a Response built by hand rather than by a
// call function.
var errNotResumable = errors.New("cannot resume: response carries no call configuration")

// Resume continues the conversation with additional user content.
// It reuses the provider, model, tools, and logger from the original
// call; the resumed call strictifies its schemas with a fresh mapping.
//
// Example:
//
//	resp, _ := llm.Call(ctx, "Recommend a book", opts...)
//	continuation, _ := resp.Resume(ctx, "Why did you recommend that one?")
//	fmt.Println(continuation.Text())
func (r Response[T]) Resume(ctx context.Context, content string, opts ...Option) (Response[string], error) {
	return r.resume(ctx, []Message{UserMessage(content)}, opts)
}

// ResumeWithToolOutputs continues the conversation with tool execution
// results, after the model requested tool calls.
//
// Example:
//
//	if resp.HasToolCalls() {
//	    toolMessages, _ := llm.ExecuteToolCalls(ctx, resp.ToolCalls(), registry)
//	    continuation, _ := resp.ResumeWithToolOutputs(ctx, toolMessages)
//	    fmt.Println(continuation.Text())
//	}
func (r Response[T]) ResumeWithToolOutputs(ctx context.Context, toolOutputs []Message, opts ...Option) (Response[string], error) {
	return r.resume(ctx, toolOutputs, opts)
}

func (r Response[T]) resume(ctx context.Context, extra []Message, opts []Option) (Response[string], error) {
	if r.config == nil {
		return Response[string]{}, errNotResumable
	}

	next := make([]Message, len(r.messages), len(r.messages)+len(extra))
	copy(next, r.messages)
	next = append(next, extra...)

	return CallMessages(ctx, next, r.resumeOptions(opts)...)
}

// resumeOptions rebuilds call options from the original config, with
// per-call overrides applied last.
func (r Response[T]) resumeOptions(opts []Option) []Option {
	allOpts := make([]Option, 0, len(opts)+4)
	allOpts = append(allOpts, WithProvider(r.config.providerName), WithModel(r.config.model))
	if len(r.config.tools) > 0 {
		allOpts = append(allOpts, WithTools(r.config.tools...))
	}
	if r.config.logger != nil {
		allOpts = append(allOpts, WithLogger(r.config.logger))
	}
	allOpts = append(allOpts, opts...)
	return allOpts
}

// Usage contains token usage information.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// ToolCall is a tool call requested by the model. Arguments is a JSON
// document.
type ToolCall struct {
	ID        string
	Name      string
	Arguments string
}

// FinishReason indicates why the model stopped generating.
type FinishReason string

const (
	FinishReasonStop      FinishReason = "stop"
	FinishReasonToolCalls FinishReason = "tool_calls"
	FinishReasonLength    FinishReason = "length"
)

// newResponse builds a Response carrying the conversation history and
// the settings Resume needs.
func newResponse[T any](raw *provider.Response, parsed T, parseErr error, messages []Message, config *responseConfig) Response[T] {
	return Response[T]{
		raw:       raw,
		parsed:    parsed,
		hasParsed: parseErr == nil,
		parseErr:  parseErr,
		messages:  messages,
		config:    config,
	}
}
