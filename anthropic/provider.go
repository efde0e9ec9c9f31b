// Package anthropic implements the Anthropic Messages API provider.
//
// Structured output uses the output_format field behind the structured
// outputs beta header. Output and tool schemas arrive already rewritten
// into the strict dialect and are sent to the API verbatim.
package anthropic

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/joeshaw/envdecode"

	"github.com/i2y/bridle/provider"
)

func init() {
	provider.Register("anthropic", func() (provider.Provider, error) {
		return New()
	})
}

// Config holds provider settings read from the environment.
type Config struct {
	// APIKey authenticates requests. ENV: ANTHROPIC_API_KEY
	APIKey string `env:"ANTHROPIC_API_KEY"`
	// BaseURL overrides the API endpoint. ENV: ANTHROPIC_BASE_URL
	BaseURL string `env:"ANTHROPIC_BASE_URL,default=https://api.anthropic.com"`
}

// Provider implements the Anthropic Messages API.
type Provider struct {
	client *client
}

// Option configures the Anthropic provider.
type Option func(*providerConfig)

type providerConfig struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// WithAPIKey sets the API key, overriding ANTHROPIC_API_KEY.
func WithAPIKey(key string) Option {
	return func(c *providerConfig) {
		c.apiKey = key
	}
}

// WithBaseURL sets a custom base URL, overriding ANTHROPIC_BASE_URL.
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

// New creates a new Anthropic provider. Settings are read from the
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
			Message: "Anthropic API key required: set ANTHROPIC_API_KEY or use WithAPIKey",
		}
	}

	return &Provider{
		client: newClient(cfg.apiKey, cfg.baseURL, cfg.httpClient),
	}, nil
}

// Name returns the provider identifier.
func (p *Provider) Name() string {
	return "anthropic"
}

// Call implements provider.Provider.
func (p *Provider) Call(ctx context.Context, req *provider.Request) (*provider.Response, error) {
	apiReq := p.buildRequest(req)

	apiResp, err := p.client.messages(ctx, apiReq)
	if err != nil {
		return nil, err
	}

	return p.convertResponse(apiResp), nil
}

// buildRequest converts a provider.Request to an Anthropic API request.
func (p *Provider) buildRequest(req *provider.Request) *messagesRequest {
	apiReq := &messagesRequest{
		Model:         req.Model,
		Messages:      make([]message, 0),
		Temperature:   req.Temperature,
		TopP:          req.TopP,
		TopK:          req.TopK,
		StopSequences: req.StopSequences,
	}

	if req.MaxTokens != nil {
		apiReq.MaxTokens = *req.MaxTokens
	}

	for _, msg := range req.Messages {
		// The API takes the system prompt as a top-level field.
		if msg.Role == provider.RoleSystem {
			apiReq.System = msg.Content
			continue
		}

		apiMsg := message{
			Role: convertRole(msg.Role),
		}

		// Tool results go back as user messages with a tool_result block.
		if msg.Role == provider.RoleTool {
			apiMsg.Role = "user"
			apiMsg.Content = []contentPart{{
				Type:      "tool_result",
				ToolUseID: msg.ToolID,
				Content:   msg.Content,
			}}
			apiReq.Messages = append(apiReq.Messages, apiMsg)
			continue
		}

		for _, tc := range msg.ToolCalls {
			// tool_use input is an object on the wire, not a string.
			var input any
			if tc.Arguments != "" {
				if err := json.Unmarshal([]byte(tc.Arguments), &input); err != nil {
					input = tc.Arguments
				}
			}
			apiMsg.Content = append(apiMsg.Content, contentPart{
				Type:  "tool_use",
				ID:    tc.ID,
				Name:  tc.Name,
				Input: input,
			})
		}

		if msg.Content != "" {
			apiMsg.Content = append(apiMsg.Content, contentPart{
				Type: "text",
				Text: msg.Content,
			})
		}

		if len(apiMsg.Content) > 0 {
			apiReq.Messages = append(apiReq.Messages, apiMsg)
		}
	}

	// Tool input schemas are already in the strict dialect.
	for _, tool := range req.Tools {
		apiReq.Tools = append(apiReq.Tools, toolDef{
			Name:        tool.Name,
			Description: tool.Description,
			InputSchema: tool.Parameters,
			Strict:      tool.Strict,
		})
	}

	// The output schema is already strict; pass it through untouched.
	if req.JSONSchema != nil {
		apiReq.OutputFormat = &outputFormat{
			Type:   "json_schema",
			Schema: req.JSONSchema.Schema,
		}
	}

	return apiReq
}

// convertResponse converts an Anthropic API response to a provider.Response.
func (p *Provider) convertResponse(resp *messagesResponse) *provider.Response {
	result := &provider.Response{
		FinishReason: convertStopReason(resp.StopReason),
		Usage: provider.Usage{
			PromptTokens:     resp.Usage.InputTokens,
			CompletionTokens: resp.Usage.OutputTokens,
			TotalTokens:      resp.Usage.InputTokens + resp.Usage.OutputTokens,
		},
	}

	for _, block := range resp.Content {
		switch block.Type {
		case "text":
			result.Content += block.Text
		case "tool_use":
			inputJSON, _ := json.Marshal(block.Input)
			result.ToolCalls = append(result.ToolCalls, provider.ToolCall{
				ID:        block.ID,
				Name:      block.Name,
				Arguments: string(inputJSON),
			})
		}
	}

	return result
}

func convertRole(role provider.Role) string {
	switch role {
	case provider.RoleUser:
		return "user"
	case provider.RoleAssistant:
		return "assistant"
	default:
		return string(role)
	}
}

func convertStopReason(reason string) provider.FinishReason {
	switch reason {
	case "tool_use":
		return provider.FinishReasonToolCalls
	case "max_tokens":
		return provider.FinishReasonLength
	default:
		return provider.FinishReasonStop
	}
}
