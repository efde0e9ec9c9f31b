package llm

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/i2y/bridle/schema"
)

// Model binds a provider and model name together with default options,
// so repeated calls do not have to restate them.
//
// Example:
//
//	reviewer := llm.NewModel("openai", "gpt-4o-mini",
//	    llm.WithTemperature(0.2),
//	)
//
//	resp, err := reviewer.Call(ctx, "Summarize this changelog")
type Model struct {
	providerName string
	modelName    string
	baseOpts     []Option
}

// NewModel creates a Model. opts become the defaults for every call
// made through it.
func NewModel(providerName, modelName string, opts ...Option) *Model {
	return &Model{
		providerName: providerName,
		modelName:    modelName,
		baseOpts:     opts,
	}
}

// Call makes a call with the model's defaults. Per-call options are
// applied after the defaults and override them.
func (m *Model) Call(ctx context.Context, prompt string, opts ...Option) (Response[string], error) {
	return Call(ctx, prompt, m.options(opts)...)
}

// CallParse makes a structured output call and decodes the response
// into target, which must be a non-nil pointer. The schema is generated
// from target's dynamic type; a WithOutputSchema option overrides it.
// Unlike the generic top-level CallParse, this method works with a
// target chosen at runtime.
func (m *Model) CallParse(ctx context.Context, prompt string, target any, opts ...Option) error {
	raw, err := schema.GenerateFromValue(target)
	if err != nil {
		return err
	}

	callOpts := append([]Option{WithOutputSchema("response", raw)}, opts...)
	resp, err := m.Call(ctx, prompt, callOpts...)
	if err != nil {
		return err
	}

	if err := json.Unmarshal([]byte(resp.Text()), target); err != nil {
		return &ParseError{
			Content: resp.Text(),
			Target:  fmt.Sprintf("%T", target),
			Cause:   err,
		}
	}
	return nil
}

// CallMessages makes a call over a full conversation with the model's
// defaults.
func (m *Model) CallMessages(ctx context.Context, messages []Message, opts ...Option) (Response[string], error) {
	return CallMessages(ctx, messages, m.options(opts)...)
}

// options prepends the provider, model, and defaults so that per-call
// opts win.
func (m *Model) options(opts []Option) []Option {
	all := make([]Option, 0, len(m.baseOpts)+len(opts)+2)
	all = append(all, WithProvider(m.providerName), WithModel(m.modelName))
	all = append(all, m.baseOpts...)
	all = append(all, opts...)
	return all
}
