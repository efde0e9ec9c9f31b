// Package openai implements the OpenAI chat completions provider.
//
// Structured output uses the json_schema response format with strict
// mode. Output and tool schemas arrive already rewritten into the
// strict dialect and are sent to the API verbatim.
package openai

import (
	"context"
	"net/http"

	"github.com/joeshaw/envdecode"

	"github.com/i2y/bridle/provider"
)

func init() {
	provider.Register("openai", func() (provider.Provider, error) {
		return New()
	})
}

// Config holds provider settings read from the environment.
type Config struct {
	// APIKey authenticates requests. ENV: OPENAI_API_KEY
	APIKey string `env:"OPENAI_API_KEY"`
	// BaseURL overrides the API endpoint. ENV: OPENAI_BASE_URL
	BaseURL string `env:"OPENAI_BASE_URL,default=https://api.openai.com/v1"`
}

// Provider implements the OpenAI API.
type Provider struct {
	client *client
}

// Option configures the OpenAI provider.
type Option func(*providerConfig)

type providerConfig struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// WithAPIKey sets the API key, overriding OPENAI_API_KEY.
func WithAPIKey(key string) Option {
	return func(c *providerConfig) {
		c.apiKey = key
	}
}

// WithBaseURL sets a custom base URL, overriding OPENAI_BASE_URL.
func WithBaseURL(url string) Option {
	return func(c *providerConfig) {
		c.baseURL = url
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *providerConfig) {
		c.httpClient = client
	}
}

// New creates a new OpenAI provider. Settings are read from the
// environment first; options override them.
func New(opts ...Option) (*Provider, error) {
	var env Config
	// Defaults are provided via struct tags; a missing key is reported below.
	_ = envdecode.Decode(&env)

	cfg := &providerConfig{
		apiKey:  env.APIKey,
		baseURL: env.BaseURL,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	if cfg.apiKey == "" {
		return nil, &APIError{
			Message: "OpenAI API key required: set OPENAI_API_KEY or use WithAPIKey",
		}
	}

	return &Provider{
		client: newClient(cfg.apiKey, cfg.baseURL, cfg.httpClient),
	}, nil
}

// Name returns the provider identifier.
func (p *Provider) Name() string {
	return "openai"
}

// Call implements provider.Provider.
func (p *Provider) Call(ctx context.Context, req *provider.Request) (*provider.Response, error) {
	apiReq := p.buildRequest(req)

	apiResp, err := p.client.chatCompletion(ctx, apiReq)
	if err != nil {
		return nil, err
	}

	return p.convertResponse(apiResp), nil
}

// buildRequest converts a provider.Request to an OpenAI API request.
func (p *Provider) buildRequest(req *provider.Request) *chatCompletionRequest {
	apiReq := &chatCompletionRequest{
		Model:       req.Model,
		Messages:    make([]message, 0, len(req.Messages)),
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
		TopP:        req.TopP,
		Seed:        req.Seed,
		Stop:        req.StopSequences,
	}

	for _, msg := range req.Messages {
		apiMsg := message{
			Role:    string(msg.Role),
			Content: msg.Content,
		}

		if msg.ToolID != "" {
			apiMsg.ToolCallID = msg.ToolID
		}

		if len(msg.ToolCalls) > 0 {
			apiMsg.ToolCalls = make([]toolCall, len(msg.ToolCalls))
			for i, tc := range msg.ToolCalls {
				apiMsg.ToolCalls[i] = toolCall{
					ID:   tc.ID,
					Type: "function",
					Function: functionCall{
						Name:      tc.Name,
						Arguments: tc.Arguments,
					},
				}
			}
		}

		apiReq.Messages = append(apiReq.Messages, apiMsg)
	}

	// Tool parameters are already in the strict dialect.
	for _, tool := range req.Tools {
		apiReq.Tools = append(apiReq.Tools, toolDef{
			Type: "function",
			Function: functionDef{
				Name:        tool.Name,
				Description: tool.Description,
				Parameters:  tool.Parameters,
				Strict:      tool.Strict,
			},
		})
	}

	// The output schema is already strict; pass it through untouched.
	if req.JSONSchema != nil {
		apiReq.ResponseFormat = &responseFormat{
			Type: "json_schema",
			JSONSchema: &jsonSchemaFormat{
				Name:   req.JSONSchema.Name,
				Strict: req.JSONSchema.Strict,
				Schema: req.JSONSchema.Schema,
			},
		}
	}

	return apiReq
}

// convertResponse converts an OpenAI API response to a provider.Response.
func (p *Provider) convertResponse(resp *chatCompletionResponse) *provider.Response {
	if len(resp.Choices) == 0 {
		return &provider.Response{}
	}

	choice := resp.Choices[0]
	result := &provider.Response{
		Content:      choice.Message.Content,
		FinishReason: convertFinishReason(choice.FinishReason),
		Usage: provider.Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		},
	}

	for _, tc := range choice.Message.ToolCalls {
		result.ToolCalls = append(result.ToolCalls, provider.ToolCall{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: tc.Function.Arguments,
		})
	}

	return result
}

// convertFinishReason converts an OpenAI finish reason to a provider.FinishReason.
func convertFinishReason(reason string) provider.FinishReason {
	switch reason {
	case "tool_calls":
		return provider.FinishReasonToolCalls
	case "length":
		return provider.FinishReasonLength
	default:
		return provider.FinishReasonStop
	}
}
