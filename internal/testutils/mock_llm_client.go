// Package testutils provides deterministic test doubles for the pipeline's
// ports: a pattern-matching LLM client, a scripted generation backend, stub
// verifier strategies, and a scripted classifier client.
package testutils

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/ahrav/go-scrutiny/internal/ports"
)

// MockLLMClient implements ports.LLMClient with deterministic responses
// selected by substring matching against the prompt. It is safe for
// concurrent use so it can sit behind the parallel verifier in tests.
type MockLLMClient struct {
	mu        sync.Mutex
	model     string
	responses []MockResponse
	calls     int
}

// MockResponse maps a prompt substring to a canned response. An empty
// Pattern matches every prompt and acts as the fallback.
type MockResponse struct {
	Pattern  string
	Response string
	Err      error
}

// NewMockLLMClient creates a MockLLMClient with no configured responses.
// Prompts that match nothing return a generic completion.
func NewMockLLMClient(model string) *MockLLMClient {
	return &MockLLMClient{model: model}
}

// AddResponse registers a response pattern. Patterns are consulted in
// registration order and the first match wins.
func (m *MockLLMClient) AddResponse(r MockResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses = append(m.responses, r)
}

// Calls returns the number of Complete invocations observed.
func (m *MockLLMClient) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Complete returns the first registered response whose pattern is a
// substring of the prompt, case-insensitively.
func (m *MockLLMClient) Complete(ctx context.Context, prompt string, options map[string]any) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if prompt == "" {
		return "", fmt.Errorf("prompt cannot be empty")
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++

	promptLower := strings.ToLower(prompt)
	for _, r := range m.responses {
		if r.Pattern == "" || strings.Contains(promptLower, strings.ToLower(r.Pattern)) {
			return r.Response, r.Err
		}
	}
	return "This is a mock completion.", nil
}

// EstimateTokens approximates four characters per token, matching the
// estimator used by the real client.
func (m *MockLLMClient) EstimateTokens(text string) (int, error) {
	if text == "" {
		return 0, nil
	}
	tokens := len(text) / 4
	if tokens == 0 {
		tokens = 1
	}
	return tokens, nil
}

// GetModel returns the mock model identifier.
func (m *MockLLMClient) GetModel() string { return m.model }

var _ ports.LLMClient = (*MockLLMClient)(nil)
