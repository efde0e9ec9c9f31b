package anthropic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

const (
	defaultBaseURL        = "https://api.anthropic.com"
	apiVersion            = "2023-06-01"
	defaultMaxTokens      = 4096
	structuredOutputsBeta = "structured-outputs-2025-11-13"
)

// client is a minimal Messages API client.
type client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

func newClient(apiKey, baseURL string, httpClient *http.Client) *client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &client{apiKey: apiKey, baseURL: baseURL, httpClient: httpClient}
}

// messages posts a Messages API request and decodes the result.
// MaxTokens is required by the API, so a zero value gets a default.
func (c *client) messages(ctx context.Context, req *messagesRequest) (*messagesResponse, error) {
	if req.MaxTokens == 0 {
		req.MaxTokens = defaultMaxTokens
	}

	var resp messagesResponse
	if err := c.post(ctx, "/v1/messages", req, &resp, usesStructuredOutputs(req)); err != nil {
		return nil, err
	}
	return &resp, nil
}

// usesStructuredOutputs reports whether the request needs the structured
// outputs beta header, either for a constrained output format or for
// strict tool use.
func usesStructuredOutputs(req *messagesRequest) bool {
	if req.OutputFormat != nil {
		return true
	}
	for _, tool := range req.Tools {
		if tool.Strict {
			return true
		}
	}
	return false
}

// post marshals payload, sends it to path, and decodes a 200 response
// into out. Any other status becomes an *APIError. beta opts the
// request into the structured outputs capability.
func (c *client) post(ctx context.Context, path string, payload, out any, beta bool) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshaling request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", c.apiKey)
	httpReq.Header.Set("anthropic-version", apiVersion)
	if beta {
		httpReq.Header.Set("anthropic-beta", structuredOutputsBeta)
	}

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("sending request: %w", err)
	}
	defer func() { _ = httpResp.Body.Close() }()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}
	if httpResp.StatusCode != http.StatusOK {
		return apiError(httpResp.StatusCode, respBody)
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("parsing response: %w", err)
	}
	return nil
}

// apiError decodes the error envelope, falling back to the raw body
// when the envelope is absent or empty.
func apiError(statusCode int, body []byte) error {
	var errResp errorResponse
	if err := json.Unmarshal(body, &errResp); err != nil || errResp.Error.Message == "" {
		return &APIError{StatusCode: statusCode, Message: string(body)}
	}
	return &APIError{
		StatusCode: statusCode,
		Type:       errResp.Error.Type,
		Message:    errResp.Error.Message,
	}
}

// APIError is an error response from the Anthropic API.
type APIError struct {
	StatusCode int
	Type       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Type != "" {
		return fmt.Sprintf("anthropic API error (status %d, type %s): %s", e.StatusCode, e.Type, e.Message)
	}
	return fmt.Sprintf("anthropic API error (status %d): %s", e.StatusCode, e.Message)
}
