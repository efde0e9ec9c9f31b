package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

const (
	defaultBaseURL = "https://generativelanguage.googleapis.com"
	apiVersion     = "v1beta"
)

// client is a minimal generateContent HTTP client.
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

// generateContent posts a generateContent request for model and decodes
// the result. The model name is part of the URL, not the body.
func (c *client) generateContent(ctx context.Context, model string, req *generateContentRequest) (*generateContentResponse, error) {
	path := fmt.Sprintf("/%s/models/%s:generateContent", apiVersion, model)

	var resp generateContentResponse
	if err := c.post(ctx, path, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// post marshals payload, sends it to path, and decodes a 200 response
// into out. Any other status becomes an *APIError.
func (c *client) post(ctx context.Context, path string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshaling request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-api-key", c.apiKey)

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
		Code:       errResp.Error.Code,
		Status:     errResp.Error.Status,
		Message:    errResp.Error.Message,
	}
}

// APIError is an error response from the Gemini API.
type APIError struct {
	StatusCode int
	Code       int
	Status     string
	Message    string
}

func (e *APIError) Error() string {
	if e.Status != "" {
		return fmt.Sprintf("gemini API error (status %d, code %d, %s): %s", e.StatusCode, e.Code, e.Status, e.Message)
	}
	return fmt.Sprintf("gemini API error (status %d): %s", e.StatusCode, e.Message)
}
