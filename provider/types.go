package provider

import "encoding/json"

// Request is a provider-agnostic LLM request. Any schemas inside it
// (JSONSchema, ToolDef.Parameters) are already in the strict dialect
// by the time a provider sees them.
type Request struct {
	Model         string
	Messages      []Message
	Tools         []ToolDef
	Temperature   *float64
	MaxTokens     *int
	TopP          *float64
	TopK          *int
	Seed          *int
	StopSequences []string
	JSONSchema    *JSONSchema
}

// Message is one turn of the conversation. ToolID ties a RoleTool
// message to the tool call it answers.
type Message struct {
	Role      Role
	Content   string
	ToolCalls []ToolCall
	ToolID    string
}

// Role identifies the message sender.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// Response is the provider's reply, reduced to the fields the llm
// layer consumes. Content and tool call arguments are returned as the
// provider produced them; enum restoration happens upstream.
type Response struct {
	Content      string
	ToolCalls    []ToolCall
	FinishReason FinishReason
	Usage        Usage
}

// FinishReason indicates why the model stopped generating.
type FinishReason string

const (
	FinishReasonStop      FinishReason = "stop"
	FinishReasonToolCalls FinishReason = "tool_calls"
	FinishReasonLength    FinishReason = "length"
)

// ToolCall is a tool invocation requested by the model. Arguments is
// a JSON document in string form.
type ToolCall struct {
	ID        string
	Name      string
	Arguments string
}

// ToolDef defines a tool the model can use. Parameters carries the
// tool's input schema; when Strict is set, providers that support it
// enforce the schema on generated arguments, so Parameters must already
// be in the strict dialect (see the strict package).
type ToolDef struct {
	Name        string
	Description string
	Parameters  json.RawMessage
	Strict      bool
}

// JSONSchema is the output schema for structured output. The Schema
// document is sent to the provider verbatim; callers are expected to
// run it through strict.StrictifyJSON first, keeping the resulting
// mapping for response restoration.
type JSONSchema struct {
	Name   string          `json:"name"`
	Strict bool            `json:"strict"`
	Schema json.RawMessage `json:"schema"`
}

// Usage counts tokens for one call.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}
