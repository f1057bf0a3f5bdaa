// Package llm provides a unified client for the language model backends the
// verification pipeline talks to, with built-in support for retries, rate
// limiting, timeouts, metrics, and tracing.
//
// Providers (OpenAI-compatible endpoints including Ollama, and Anthropic)
// are abstracted behind the CoreLLM interface, and cross-cutting concerns
// are layered on through a middleware chain so callers can tune resilience
// against backend rate limits without touching request code.
//
// Basic usage:
//
//	client, err := llm.NewClient("ollama", llm.ClientConfig{
//	    Model: "mistral:v0.2",
//	    Middleware: []llm.Middleware{
//	        llm.RetryMiddleware(3, 500*time.Millisecond, 10*time.Second),
//	        llm.RateLimitMiddleware(10, 20),
//	    },
//	})
package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/ahrav/go-scrutiny/internal/ports"
)

// CoreLLM defines the minimal interface that LLM providers must implement.
// The middleware system wraps any conforming implementation, so providers
// only handle request formatting and response parsing.
type CoreLLM interface {
	// DoRequest sends a prompt to the provider and returns the response
	// text along with input and output token counts.
	DoRequest(ctx context.Context, prompt string, opts map[string]any) (response string, tokensIn, tokensOut int, err error)

	// GetModel returns the currently configured model name.
	GetModel() string

	// SetModel updates the model to use for subsequent requests.
	SetModel(model string)
}

// TokenEstimator provides pluggable token estimation strategies for cost
// estimation and rate limiting when exact counts are unavailable.
type TokenEstimator interface {
	EstimateTokens(text string) int
}

// Middleware wraps a CoreLLM implementation to add cross-cutting
// functionality such as retries, rate limiting, or metrics without
// modifying provider logic.
type Middleware func(CoreLLM) CoreLLM

// ClientConfig holds all configuration options for creating an LLM client.
type ClientConfig struct {
	// APIKey authenticates requests to the provider. Local providers
	// such as Ollama do not require one.
	APIKey string

	// Model specifies which model to use for requests.
	Model string

	// BaseURL overrides the provider's default API endpoint.
	BaseURL string

	// Timeout sets the maximum duration for individual requests.
	// Zero means no per-request timeout at the provider level.
	Timeout time.Duration

	// TokenEstimator provides custom token counting logic. If nil, a
	// simple character-based estimator is used.
	TokenEstimator TokenEstimator

	// Middleware is applied in order, first entry outermost.
	Middleware []Middleware
}

// Client implements ports.LLMClient by wrapping a provider-specific CoreLLM
// with the configured middleware chain.
type Client struct {
	core      CoreLLM
	estimator TokenEstimator
}

var _ ports.LLMClient = (*Client)(nil)

// ProviderFactory creates a CoreLLM implementation from configuration.
type ProviderFactory func(ClientConfig) (CoreLLM, error)

var providerFactories = map[string]ProviderFactory{}

// RegisterProviderFactory registers a custom provider factory, enabling
// extension with additional providers without modifying this package.
func RegisterProviderFactory(providerType string, factory ProviderFactory) {
	providerFactories[providerType] = factory
}

// NewClient creates an LLM client for the named provider, assembling the
// middleware chain before returning a ready-to-use instance.
func NewClient(providerType string, config ClientConfig) (*Client, error) {
	if config.Model == "" {
		return nil, fmt.Errorf("model is required")
	}

	factory, ok := providerFactories[providerType]
	if !ok {
		return nil, fmt.Errorf("unknown provider: %s", providerType)
	}

	core, err := factory(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create provider: %w", err)
	}

	// Apply middleware in reverse order so the first entry is outermost.
	for i := len(config.Middleware) - 1; i >= 0; i-- {
		core = config.Middleware[i](core)
	}

	estimator := config.TokenEstimator
	if estimator == nil {
		estimator = &SimpleTokenEstimator{}
	}

	return &Client{core: core, estimator: estimator}, nil
}

// Complete sends a prompt to the LLM and returns the response text,
// discarding token usage information.
func (c *Client) Complete(ctx context.Context, prompt string, options map[string]any) (string, error) {
	response, _, _, err := c.core.DoRequest(ctx, prompt, options)
	return response, err
}

// CompleteWithUsage sends a prompt and returns the response together with
// input and output token counts for usage tracking.
func (c *Client) CompleteWithUsage(ctx context.Context, prompt string, options map[string]any) (string, int, int, error) {
	return c.core.DoRequest(ctx, prompt, options)
}

// EstimateTokens returns an approximate token count for the given text.
func (c *Client) EstimateTokens(text string) (int, error) {
	return c.estimator.EstimateTokens(text), nil
}

// GetModel returns the configured model name from the underlying provider.
func (c *Client) GetModel() string { return c.core.GetModel() }

// SimpleTokenEstimator provides basic character-based token estimation,
// roughly four characters per token for English text.
type SimpleTokenEstimator struct{}

// EstimateTokens returns an approximate token count for text.
func (e *SimpleTokenEstimator) EstimateTokens(text string) int {
	return (len(text) + 3) / 4
}
