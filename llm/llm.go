// Package llm provides the main API for making LLM calls with
// strict-mode structured output.
//
// Output and tool schemas are rewritten into the strict dialect before a
// request is sent (see the strict package), and enum values the rewrite
// had to sanitize are restored in the response before parsing. Each call
// owns one mapping for the round trip; no state is shared between calls.
package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"reflect"

	"github.com/google/uuid"

	"github.com/i2y/bridle/provider"
	"github.com/i2y/bridle/schema"
	"github.com/i2y/bridle/strict"
)

// Call makes an LLM call and returns a text response.
//
// Example:
//
//	resp, err := llm.Call(ctx, "Recommend a fantasy book",
//	    llm.WithProvider("openai"),
//	    llm.WithModel("o4-mini"),
//	)
//	if err != nil {
//	    return err
//	}
//	fmt.Println(resp.Text())
func Call(ctx context.Context, prompt string, opts ...Option) (Response[string], error) {
	cfg := newCallConfig()
	cfg.apply(opts...)

	if cfg.providerName == "" {
		return Response[string]{}, ErrProviderRequired
	}
	if cfg.model == "" {
		return Response[string]{}, ErrModelRequired
	}
	if err := cfg.resolveSchema(); err != nil {
		return Response[string]{}, err
	}

	p, err := provider.Get(cfg.providerName)
	if err != nil {
		return Response[string]{}, fmt.Errorf("getting provider: %w", err)
	}

	req := cfg.buildRequest(prompt)

	resp, err := callProvider(ctx, p, req, cfg)
	if err != nil {
		return Response[string]{}, err
	}

	messages := buildMessagesFromRequest(req, resp)
	return newResponse(resp, resp.Content, nil, messages, cfg.responseConfig()), nil
}

// CallParse makes an LLM call with structured output and parses the response into type T.
// The JSON schema is generated from T, rewritten into the strict
// dialect, and enforced by the provider; sanitized enum values are
// restored before parsing.
//
// Example:
//
//	type Book struct {
//	    Title  string `json:"title" jsonschema:"required,description=Book title"`
//	    Author string `json:"author" jsonschema:"required"`
//	}
//
//	resp, err := llm.CallParse[Book](ctx, "Recommend a sci-fi book",
//	    llm.WithProvider("openai"),
//	    llm.WithModel("o4-mini"),
//	)
//	if err != nil {
//	    return err
//	}
//	book := resp.MustParse()
//	fmt.Printf("%s by %s\n", book.Title, book.Author)
func CallParse[T any](ctx context.Context, prompt string, opts ...Option) (Response[T], error) {
	cfg := newCallConfig()
	cfg.apply(opts...)

	if cfg.providerName == "" {
		return Response[T]{}, ErrProviderRequired
	}
	if cfg.model == "" {
		return Response[T]{}, ErrModelRequired
	}

	typeName, err := prepareParseSchema[T](cfg)
	if err != nil {
		return Response[T]{}, err
	}

	p, err := provider.Get(cfg.providerName)
	if err != nil {
		return Response[T]{}, fmt.Errorf("getting provider: %w", err)
	}

	req := cfg.buildRequest(prompt)

	resp, err := callProvider(ctx, p, req, cfg)
	if err != nil {
		return Response[T]{}, err
	}

	parsed, parseErr := parseContent[T](resp.Content, typeName)

	messages := buildMessagesFromRequest(req, resp)
	return newResponse(resp, parsed, parseErr, messages, cfg.responseConfig()), nil
}

// CallMessages makes an LLM call with a full message history.
// This is useful for multi-turn conversations.
//
// Example:
//
//	messages := []llm.Message{
//	    llm.SystemMessage("You are a helpful assistant"),
//	    llm.UserMessage("Hello"),
//	    llm.AssistantMessage("Hi! How can I help?"),
//	    llm.UserMessage("Tell me a joke"),
//	}
//
//	resp, err := llm.CallMessages(ctx, messages,
//	    llm.WithProvider("openai"),
//	    llm.WithModel("o4-mini"),
//	)
func CallMessages(ctx context.Context, messages []Message, opts ...Option) (Response[string], error) {
	cfg := newCallConfig()
	cfg.apply(opts...)

	if cfg.providerName == "" {
		return Response[string]{}, ErrProviderRequired
	}
	if cfg.model == "" {
		return Response[string]{}, ErrModelRequired
	}
	if err := cfg.resolveSchema(); err != nil {
		return Response[string]{}, err
	}

	p, err := provider.Get(cfg.providerName)
	if err != nil {
		return Response[string]{}, fmt.Errorf("getting provider: %w", err)
	}

	req := cfg.buildRequestFromMessages(messages)

	resp, err := callProvider(ctx, p, req, cfg)
	if err != nil {
		return Response[string]{}, err
	}

	historyMessages := buildMessagesFromRequest(req, resp)
	return newResponse(resp, resp.Content, nil, historyMessages, cfg.responseConfig()), nil
}

// CallMessagesParse makes an LLM call with messages and parses the response.
// Combines CallMessages with structured output parsing.
func CallMessagesParse[T any](ctx context.Context, messages []Message, opts ...Option) (Response[T], error) {
	cfg := newCallConfig()
	cfg.apply(opts...)

	if cfg.providerName == "" {
		return Response[T]{}, ErrProviderRequired
	}
	if cfg.model == "" {
		return Response[T]{}, ErrModelRequired
	}

	typeName, err := prepareParseSchema[T](cfg)
	if err != nil {
		return Response[T]{}, err
	}

	p, err := provider.Get(cfg.providerName)
	if err != nil {
		return Response[T]{}, fmt.Errorf("getting provider: %w", err)
	}

	req := cfg.buildRequestFromMessages(messages)

	resp, err := callProvider(ctx, p, req, cfg)
	if err != nil {
		return Response[T]{}, err
	}

	parsed, parseErr := parseContent[T](resp.Content, typeName)

	historyMessages := buildMessagesFromRequest(req, resp)
	return newResponse(resp, parsed, parseErr, historyMessages, cfg.responseConfig()), nil
}

// prepareParseSchema installs the output schema for T unless the caller
// supplied one with WithOutputSchema, then rewrites it into the strict
// dialect. Returns the name used in parse errors.
func prepareParseSchema[T any](cfg *callConfig) (string, error) {
	typeName := "response"
	var zero T
	if rt := reflect.TypeOf(zero); rt != nil && rt.Name() != "" {
		typeName = rt.Name()
	}

	if len(cfg.outputSchema) == 0 {
		raw, err := schema.Generate[T]()
		if err != nil {
			return "", fmt.Errorf("generating schema: %w", err)
		}
		cfg.outputSchema = raw
		if cfg.outputName == "" {
			cfg.outputName = typeName
		}
	}

	if err := cfg.resolveSchema(); err != nil {
		return "", err
	}
	return typeName, nil
}

// parseContent unmarshals restored response content into T.
func parseContent[T any](content, typeName string) (T, error) {
	var parsed T
	if err := json.Unmarshal([]byte(content), &parsed); err != nil {
		return parsed, &ParseError{
			Content: content,
			Target:  typeName,
			Cause:   err,
		}
	}
	return parsed, nil
}

// callProvider sends the request, logs the call lifecycle, and restores
// sanitized enum values in the response through the call's mapping.
func callProvider(ctx context.Context, p provider.Provider, req *provider.Request, cfg *callConfig) (*provider.Response, error) {
	log := cfg.logger.With(
		slog.String("call_id", uuid.NewString()),
		slog.String("provider", cfg.providerName),
		slog.String("model", cfg.model),
	)
	if req.JSONSchema != nil {
		log.Debug("sending strict output schema",
			slog.String("schema", req.JSONSchema.Name),
			slog.Int("mapped_values", len(cfg.mapping)))
	}

	resp, err := p.Call(ctx, req)
	if err != nil {
		log.Debug("provider call failed", slog.String("error", err.Error()))
		return nil, &ProviderError{Provider: cfg.providerName, Message: "call failed", Cause: err}
	}

	restoreResponse(resp, cfg.mapping, req.JSONSchema != nil)

	log.Debug("response received",
		slog.String("finish_reason", string(resp.FinishReason)),
		slog.Int("total_tokens", resp.Usage.TotalTokens))

	return resp, nil
}

// restoreResponse rewrites sanitized enum values in the provider
// response back to their originals. Structured output content and
// tool-call arguments are the two places values constrained by the
// call's schemas can appear. Content that is not valid JSON is left as
// is; parsing reports it later.
func restoreResponse(resp *provider.Response, m strict.Mapping, structured bool) {
	if len(m) == 0 {
		return
	}
	if structured && resp.Content != "" {
		if restored, err := strict.RestoreJSON([]byte(resp.Content), m); err == nil {
			resp.Content = string(restored)
		}
	}
	for i, tc := range resp.ToolCalls {
		if tc.Arguments == "" {
			continue
		}
		if restored, err := strict.RestoreJSON([]byte(tc.Arguments), m); err == nil {
			resp.ToolCalls[i].Arguments = string(restored)
		}
	}
}

// buildMessagesFromRequest extends the request messages with the
// assistant's reply, producing the history a resumed call starts from.
func buildMessagesFromRequest(req *provider.Request, resp *provider.Response) []Message {
	messages := make([]Message, 0, len(req.Messages)+1)
	messages = append(messages, req.Messages...)

	if len(resp.ToolCalls) > 0 {
		toolCalls := make([]ToolCall, len(resp.ToolCalls))
		for i, tc := range resp.ToolCalls {
			toolCalls[i] = ToolCall{
				ID:        tc.ID,
				Name:      tc.Name,
				Arguments: tc.Arguments,
			}
		}
		messages = append(messages, AssistantMessageWithToolCalls(resp.Content, toolCalls))
	} else {
		messages = append(messages, AssistantMessage(resp.Content))
	}

	return messages
}
