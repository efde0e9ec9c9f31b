// Package gemini implements the Google Gemini provider.
//
// Structured output uses constrained decoding via responseSchema. The
// schema arrives already rewritten into the strict dialect and is sent
// to the API verbatim. Gemini has no per-tool strict switch, so the
// strict flag on tool definitions is not forwarded.
package gemini

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/joeshaw/envdecode"

	"github.com/i2y/bridle/provider"
)

func init() {
	provider.Register("gemini", func() (provider.Provider, error) {
		return New()
	})
}

// Config holds provider settings read from the environment.
type Config struct {
	// APIKey authenticates requests. ENV: GEMINI_API_KEY
	APIKey string `env:"GEMINI_API_KEY"`
	// BaseURL overrides the API endpoint. ENV: GEMINI_BASE_URL
	BaseURL string `env:"GEMINI_BASE_URL,default=https://generativelanguage.googleapis.com"`
}

// Provider implements the Gemini API.
type Provider struct {
	client *client
}

// Option configures the Gemini provider.
type Option func(*providerConfig)

type providerConfig struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// WithAPIKey sets the API key, overriding GEMINI_API_KEY.
func WithAPIKey(key string) Option {
	return func(c *providerConfig) {
		c.apiKey = key
	}
}

// WithBaseURL sets a custom base URL, overriding GEMINI_BASE_URL.
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

// New creates a new Gemini provider. Settings are read from the
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
			Message: "Gemini API key required: set GEMINI_API_KEY or use WithAPIKey",
		}
	}

	return &Provider{
		client: newClient(cfg.apiKey, cfg.baseURL, cfg.httpClient),
	}, nil
}

// Name returns the provider identifier.
func (p *Provider) Name() string {
	return "gemini"
}

// Call implements provider.Provider.
func (p *Provider) Call(ctx context.Context, req *provider.Request) (*provider.Response, error) {
	apiReq := p.buildRequest(req)

	apiResp, err := p.client.generateContent(ctx, req.Model, apiReq)
	if err != nil {
		return nil, err
	}

	return p.convertResponse(apiResp), nil
}

// buildRequest converts a provider.Request to a Gemini API request.
func (p *Provider) buildRequest(req *provider.Request) *generateContentRequest {
	apiReq := &generateContentRequest{
		Contents: make([]content, 0),
	}

	if req.Temperature != nil || req.MaxTokens != nil || req.TopP != nil || req.TopK != nil || len(req.StopSequences) > 0 {
		apiReq.GenerationConfig = &generationConfig{
			Temperature:     req.Temperature,
			MaxOutputTokens: req.MaxTokens,
			TopP:            req.TopP,
			TopK:            req.TopK,
			StopSequences:   req.StopSequences,
		}
	}

	for _, msg := range req.Messages {
		// The API takes the system prompt as systemInstruction.
		if msg.Role == provider.RoleSystem {
			apiReq.SystemInstruction = &content{
				Parts: []part{{Text: msg.Content}},
			}
			continue
		}

		apiContent := content{
			Role:  convertRole(msg.Role),
			Parts: make([]part, 0),
		}

		// Tool results go back as user content with a functionResponse
		// part, decoded when the result is JSON.
		if msg.Role == provider.RoleTool {
			var responseData any
			_ = json.Unmarshal([]byte(msg.Content), &responseData)
			if responseData == nil {
				responseData = msg.Content
			}

			apiContent.Role = "user"
			apiContent.Parts = append(apiContent.Parts, part{
				FunctionResponse: &functionResponse{
					Name:     msg.ToolID,
					Response: responseData,
				},
			})
			apiReq.Contents = append(apiReq.Contents, apiContent)
			continue
		}

		for _, tc := range msg.ToolCalls {
			// functionCall args are an object on the wire, not a string.
			var args map[string]any
			if tc.Arguments != "" {
				if err := json.Unmarshal([]byte(tc.Arguments), &args); err != nil {
					args = make(map[string]any)
				}
			}
			apiContent.Parts = append(apiContent.Parts, part{
				FunctionCall: &functionCall{
					Name: tc.Name,
					Args: args,
				},
			})
		}

		if msg.Content != "" {
			apiContent.Parts = append(apiContent.Parts, part{
				Text: msg.Content,
			})
		}

		if len(apiContent.Parts) > 0 {
			apiReq.Contents = append(apiReq.Contents, apiContent)
		}
	}

	// Tool parameter schemas are already in the strict dialect.
	if len(req.Tools) > 0 {
		funcDecls := make([]functionDeclaration, 0, len(req.Tools))
		for _, tool := range req.Tools {
			funcDecls = append(funcDecls, functionDeclaration{
				Name:        tool.Name,
				Description: tool.Description,
				Parameters:  tool.Parameters,
			})
		}
		apiReq.Tools = []tool{{FunctionDeclarations: funcDecls}}
	}

	// The output schema is already strict; it goes out decoded but
	// otherwise untouched.
	if req.JSONSchema != nil {
		if apiReq.GenerationConfig == nil {
			apiReq.GenerationConfig = &generationConfig{}
		}
		apiReq.GenerationConfig.ResponseMimeType = "application/json"
		var schema any
		if err := json.Unmarshal(req.JSONSchema.Schema, &schema); err == nil {
			apiReq.GenerationConfig.ResponseSchema = schema
		}
	}

	return apiReq
}

// convertResponse converts a Gemini API response to a provider.Response.
func (p *Provider) convertResponse(resp *generateContentResponse) *provider.Response {
	result := &provider.Response{}

	if resp.UsageMetadata != nil {
		result.Usage = provider.Usage{
			PromptTokens:     resp.UsageMetadata.PromptTokenCount,
			CompletionTokens: resp.UsageMetadata.CandidatesTokenCount,
			TotalTokens:      resp.UsageMetadata.TotalTokenCount,
		}
	}

	if len(resp.Candidates) == 0 {
		return result
	}

	candidate := resp.Candidates[0]
	result.FinishReason = convertFinishReason(candidate.FinishReason)

	if candidate.Content != nil {
		for _, part := range candidate.Content.Parts {
			if part.Text != "" {
				result.Content += part.Text
			}
			if part.FunctionCall != nil {
				argsJSON, _ := json.Marshal(part.FunctionCall.Args)
				result.ToolCalls = append(result.ToolCalls, provider.ToolCall{
					ID:        part.FunctionCall.Name, // Gemini uses name as ID
					Name:      part.FunctionCall.Name,
					Arguments: string(argsJSON),
				})
			}
		}
	}

	return result
}

func convertRole(role provider.Role) string {
	switch role {
	case provider.RoleUser:
		return "user"
	case provider.RoleAssistant:
		return "model"
	default:
		return string(role)
	}
}

func convertFinishReason(reason string) provider.FinishReason {
	switch reason {
	case "STOP":
		return provider.FinishReasonStop
	case "MAX_TOKENS":
		return provider.FinishReasonLength
	case "TOOL_USE", "FUNCTION_CALL":
		return provider.FinishReasonToolCalls
	default:
		return provider.FinishReasonStop
	}
}
