package llm

import "sync"

// Default request parameter values shared by all providers.
const (
	// DefaultMaxTokens bounds response length when the caller does not
	// specify one.
	DefaultMaxTokens = 1024

	// MinTemperature and MaxTemperature bound the sampling temperature.
	MinTemperature = 0.0
	MaxTemperature = 2.0
)

// BaseProvider provides common, thread-safe model-name handling for
// provider implementations.
type BaseProvider struct {
	mu    sync.RWMutex
	model string
}

// GetModel returns the provider's currently configured model name.
// It is safe for concurrent use.
func (b *BaseProvider) GetModel() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.model
}

// SetModel updates the provider's model name.
// It is safe for concurrent use.
func (b *BaseProvider) SetModel(model string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.model = model
}

// RequestOptions is the standardized set of request parameters shared
// across providers. Nil pointer fields mean "use the provider default".
type RequestOptions struct {
	// MaxTokens specifies the maximum number of tokens to generate.
	MaxTokens int
	// Model is the model identifier for this request.
	Model string
	// Temperature controls output randomness.
	Temperature *float64
	// System provides instructions guiding the model's behavior.
	System string
}

// ParseRequestOptions extracts standardized request parameters from an
// options map, falling back to defaults for missing or invalid entries.
func ParseRequestOptions(opts map[string]any, defaultModel string) RequestOptions {
	options := RequestOptions{
		MaxTokens: DefaultMaxTokens,
		Model:     defaultModel,
	}
	if opts == nil {
		return options
	}

	if v, ok := opts["max_tokens"].(int); ok && v > 0 {
		options.MaxTokens = v
	}
	if v, ok := opts["model"].(string); ok && v != "" {
		options.Model = v
	}
	if v, ok := opts["system"].(string); ok {
		options.System = v
	}
	if v, ok := opts["temperature"].(float64); ok && v >= MinTemperature && v <= MaxTemperature {
		options.Temperature = &v
	}

	return options
}

// TokenCounter estimates token counts when the provider response does not
// report exact usage.
type TokenCounter struct {
	// CharactersPerToken is the average character-per-token ratio used
	// for estimation. An approximation suitable for English text.
	CharactersPerToken float64
}

// NewTokenCounter creates a TokenCounter with the default ratio.
func NewTokenCounter() *TokenCounter {
	return &TokenCounter{CharactersPerToken: 4.0}
}

// GetTokenCount returns the actual count when positive, falling back to an
// estimate from the text length otherwise.
func (tc *TokenCounter) GetTokenCount(actualCount int, text string) int {
	if actualCount > 0 {
		return actualCount
	}
	if len(text) == 0 {
		return 0
	}
	return int(float64(len(text)) / tc.CharactersPerToken)
}
