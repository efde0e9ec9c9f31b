package llm

import (
	"encoding/json"
	"log/slog"

	"github.com/i2y/bridle/provider"
	"github.com/i2y/bridle/strict"
)

// Option configures an LLM call.
type Option func(*callConfig)

// callConfig holds all configuration for a call. Every call owns one
// strict.Mapping: it collects sanitized enum values from the output and
// tool schemas and is used to restore them in the response.
type callConfig struct {
	providerName  string
	model         string
	temperature   *float64
	maxTokens     *int
	topP          *float64
	topK          *int
	seed          *int
	stopSequences []string
	systemMessage string
	tools         []Tool
	messages      []Message
	outputName    string
	outputSchema  json.RawMessage
	jsonSchema    *provider.JSONSchema
	mapping       strict.Mapping
	logger        *slog.Logger
}

func newCallConfig() *callConfig {
	return &callConfig{
		mapping: strict.Mapping{},
		logger:  slog.New(slog.DiscardHandler),
	}
}

func (c *callConfig) apply(opts ...Option) {
	for _, opt := range opts {
		opt(c)
	}
}

// WithProvider sets the LLM provider (e.g., "openai", "anthropic").
func WithProvider(name string) Option {
	return func(c *callConfig) {
		c.providerName = name
	}
}

// WithModel sets the model to use (e.g., "o4-mini").
func WithModel(name string) Option {
	return func(c *callConfig) {
		c.model = name
	}
}

// WithTemperature sets the sampling temperature.
func WithTemperature(t float64) Option {
	return func(c *callConfig) {
		c.temperature = &t
	}
}

// WithMaxTokens sets the maximum tokens in the response.
func WithMaxTokens(n int) Option {
	return func(c *callConfig) {
		c.maxTokens = &n
	}
}

// WithTopP sets the nucleus sampling parameter (0.0 to 1.0).
// Tokens are selected from the most to least probable until the sum
// of their probabilities equals this value.
func WithTopP(p float64) Option {
	return func(c *callConfig) {
		c.topP = &p
	}
}

// WithTopK limits token selection to the k most probable tokens.
// Note: Not supported by OpenAI.
func WithTopK(k int) Option {
	return func(c *callConfig) {
		c.topK = &k
	}
}

// WithSeed sets a random seed for reproducibility.
// Note: Not supported by Anthropic.
func WithSeed(seed int) Option {
	return func(c *callConfig) {
		c.seed = &seed
	}
}

// WithStopSequences sets stop sequences to end generation.
// The model will stop generating text if one of these strings is encountered.
func WithStopSequences(seqs ...string) Option {
	return func(c *callConfig) {
		c.stopSequences = seqs
	}
}

// WithSystemMessage sets a system message.
func WithSystemMessage(msg string) Option {
	return func(c *callConfig) {
		c.systemMessage = msg
	}
}

// WithTools adds tools the model can use. Tool parameter schemas are
// rewritten into the strict dialect before they are sent.
func WithTools(tools ...Tool) Option {
	return func(c *callConfig) {
		c.tools = append(c.tools, tools...)
	}
}

// WithMessages sets the conversation history.
// This is useful for multi-turn conversations with Call.
func WithMessages(msgs ...Message) Option {
	return func(c *callConfig) {
		c.messages = append(c.messages, msgs...)
	}
}

// WithOutputSchema supplies a hand-written JSON Schema for structured
// output instead of generating one from a Go type. The schema is
// rewritten into the strict dialect before it is sent; sanitized enum
// values are restored in the parsed response.
func WithOutputSchema(name string, schema json.RawMessage) Option {
	return func(c *callConfig) {
		c.outputName = name
		c.outputSchema = schema
	}
}

// WithLogger sets the logger for call lifecycle events.
// If not provided, logs are discarded.
func WithLogger(logger *slog.Logger) Option {
	return func(c *callConfig) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// resolveSchema rewrites the pending output schema into the strict
// dialect and installs it on the config. Sanitized enum values are
// recorded in the call's mapping.
func (c *callConfig) resolveSchema() error {
	if c.jsonSchema != nil || len(c.outputSchema) == 0 {
		return nil
	}

	name := c.outputName
	if name == "" {
		name = "response"
	}

	stricted, err := strict.StrictifyJSON(c.outputSchema, c.mapping)
	if err != nil {
		return &SchemaError{Name: name, Cause: err}
	}

	c.jsonSchema = &provider.JSONSchema{
		Name:   name,
		Strict: true,
		Schema: stricted,
	}
	return nil
}

// buildRequest creates a provider.Request from the config and prompt.
func (c *callConfig) buildRequest(prompt string) *provider.Request {
	req := &provider.Request{
		Model:         c.model,
		Temperature:   c.temperature,
		MaxTokens:     c.maxTokens,
		TopP:          c.topP,
		TopK:          c.topK,
		Seed:          c.seed,
		StopSequences: c.stopSequences,
		JSONSchema:    c.jsonSchema,
	}

	// Add system message if present
	if c.systemMessage != "" {
		req.Messages = append(req.Messages, provider.Message{
			Role:    provider.RoleSystem,
			Content: c.systemMessage,
		})
	}

	// Add conversation history
	req.Messages = append(req.Messages, c.messages...)

	// Add the user prompt
	if prompt != "" {
		req.Messages = append(req.Messages, provider.Message{
			Role:    provider.RoleUser,
			Content: prompt,
		})
	}

	for _, tool := range c.tools {
		req.Tools = append(req.Tools, c.toolDef(tool))
	}

	return req
}

// buildRequestFromMessages creates a provider.Request from messages.
func (c *callConfig) buildRequestFromMessages(messages []Message) *provider.Request {
	req := &provider.Request{
		Model:         c.model,
		Temperature:   c.temperature,
		MaxTokens:     c.maxTokens,
		TopP:          c.topP,
		TopK:          c.topK,
		Seed:          c.seed,
		StopSequences: c.stopSequences,
		JSONSchema:    c.jsonSchema,
		Messages:      messages,
	}

	for _, tool := range c.tools {
		req.Tools = append(req.Tools, c.toolDef(tool))
	}

	return req
}

// toolDef converts a tool into a strict-mode tool definition. Parameter
// schemas share the call's mapping, so sanitized values inside generated
// arguments can be restored before execution.
func (c *callConfig) toolDef(tool Tool) provider.ToolDef {
	params, _ := json.Marshal(tool.Parameters())
	if stricted, err := strict.StrictifyJSON(params, c.mapping); err == nil {
		params = stricted
	}
	return provider.ToolDef{
		Name:        tool.Name(),
		Description: tool.Description(),
		Parameters:  params,
		Strict:      true,
	}
}

// responseConfig captures what a Response needs to resume the
// conversation.
func (c *callConfig) responseConfig() *responseConfig {
	return &responseConfig{
		providerName: c.providerName,
		model:        c.model,
		tools:        c.tools,
		logger:       c.logger,
	}
}
