// Package provider defines the interface for LLM providers with
// strict-mode structured output.
package provider

import "context"

// Provider is the core abstraction for LLM providers.
// All provider implementations must satisfy this interface.
type Provider interface {
	// Name returns the provider identifier (e.g., "openai", "anthropic").
	Name() string

	// Call executes an LLM request and returns the complete response.
	Call(ctx context.Context, req *Request) (*Response, error)
}

// Factory constructs a provider instance. Factories typically read
// credentials from the environment and fail when required configuration
// is missing.
type Factory func() (Provider, error)
