package anthropic

import "encoding/json"

// Wire types for the Messages API. Field sets cover what the provider
// sends and reads, not the full API surface.

type messagesRequest struct {
	Model         string        `json:"model"`
	Messages      []message     `json:"messages"`
	System        string        `json:"system,omitempty"`
	MaxTokens     int           `json:"max_tokens"`
	Temperature   *float64      `json:"temperature,omitempty"`
	TopP          *float64      `json:"top_p,omitempty"`
	TopK          *int          `json:"top_k,omitempty"`
	StopSequences []string      `json:"stop_sequences,omitempty"`
	Tools         []toolDef     `json:"tools,omitempty"`
	OutputFormat  *outputFormat `json:"output_format,omitempty"`
}

// outputFormat constrains the response to a schema. Type is
// "json_schema" and Schema is already in the strict dialect. Sending
// it requires the structured outputs beta header.
type outputFormat struct {
	Type   string          `json:"type"`
	Schema json.RawMessage `json:"schema"`
}

type message struct {
	Role    string        `json:"role"`
	Content []contentPart `json:"content"`
}

// contentPart is one block of a request message. Type selects which
// fields apply: "text" uses Text, "tool_use" uses ID/Name/Input, and
// "tool_result" uses ToolUseID/Content.
type contentPart struct {
	Type      string `json:"type"`
	Text      string `json:"text,omitempty"`
	ID        string `json:"id,omitempty"`
	Name      string `json:"name,omitempty"`
	Input     any    `json:"input,omitempty"`
	ToolUseID string `json:"tool_use_id,omitempty"`
	Content   string `json:"content,omitempty"`
}

// toolDef declares a tool. InputSchema is a strict-dialect schema and
// Strict is set alongside it.
type toolDef struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	InputSchema json.RawMessage `json:"input_schema"`
	Strict      bool            `json:"strict,omitempty"`
}

type messagesResponse struct {
	ID           string         `json:"id"`
	Type         string         `json:"type"`
	Role         string         `json:"role"`
	Content      []contentBlock `json:"content"`
	Model        string         `json:"model"`
	StopReason   string         `json:"stop_reason"`
	StopSequence *string        `json:"stop_sequence"`
	Usage        messagesUsage  `json:"usage"`
}

// contentBlock is one block of a response, "text" or "tool_use".
type contentBlock struct {
	Type  string `json:"type"`
	Text  string `json:"text,omitempty"`
	ID    string `json:"id,omitempty"`
	Name  string `json:"name,omitempty"`
	Input any    `json:"input,omitempty"`
}

type messagesUsage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// errorResponse is the envelope on non-200 responses.
type errorResponse struct {
	Type  string      `json:"type"`
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}
