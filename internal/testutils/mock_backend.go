package testutils

import (
	"context"
	"fmt"
	"sync"

	"github.com/ahrav/go-scrutiny/internal/domain"
	"github.com/ahrav/go-scrutiny/internal/ports"
)

// MockGenerationBackend implements ports.GenerationBackend with scripted
// outputs. Rationales and responses are consumed as queues so tests can
// script a backtrack sequence: first a failing artifact, then a passing
// one. When a queue runs dry the last element is repeated.
type MockGenerationBackend struct {
	mu sync.Mutex

	Understood domain.UnderstoodMessage

	rationales []string
	responses  []string

	UnderstandErr error
	RationaleErr  error
	ResponseErr   error

	understandCalls int
	rationaleCalls  int
	responseCalls   int
}

// NewMockGenerationBackend creates a backend whose understanding carries
// the given objective.
func NewMockGenerationBackend(objective string) *MockGenerationBackend {
	return &MockGenerationBackend{
		Understood: domain.UnderstoodMessage{
			Rephrasing: "rephrased message",
			WhyAsking:  "test intent",
			Objective:  objective,
		},
	}
}

// QueueRationale appends a scripted rationale.
func (m *MockGenerationBackend) QueueRationale(rationale string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rationales = append(m.rationales, rationale)
}

// QueueResponse appends a scripted response.
func (m *MockGenerationBackend) QueueResponse(response string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses = append(m.responses, response)
}

// UnderstandCalls returns how many times UnderstandMessage ran.
func (m *MockGenerationBackend) UnderstandCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.understandCalls
}

// RationaleCalls returns how many times GenerateRationale ran.
func (m *MockGenerationBackend) RationaleCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rationaleCalls
}

// ResponseCalls returns how many times GenerateResponse ran.
func (m *MockGenerationBackend) ResponseCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.responseCalls
}

func (m *MockGenerationBackend) UnderstandMessage(ctx context.Context, chat []string, message string) (domain.UnderstoodMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.understandCalls++
	if m.UnderstandErr != nil {
		return domain.UnderstoodMessage{}, m.UnderstandErr
	}
	return m.Understood, nil
}

func (m *MockGenerationBackend) GenerateRationale(ctx context.Context, structured domain.UnderstoodMessage) (string, string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rationaleCalls++
	if m.RationaleErr != nil {
		return "", "", m.RationaleErr
	}
	if len(m.rationales) == 0 {
		return "", "", fmt.Errorf("no scripted rationale")
	}
	rationale := m.rationales[0]
	if len(m.rationales) > 1 {
		m.rationales = m.rationales[1:]
	}
	return rationale, "scripted answer", nil
}

func (m *MockGenerationBackend) GenerateResponse(ctx context.Context, message string, structured domain.UnderstoodMessage, rationale string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responseCalls++
	if m.ResponseErr != nil {
		return "", m.ResponseErr
	}
	if len(m.responses) == 0 {
		return "", fmt.Errorf("no scripted response")
	}
	response := m.responses[0]
	if len(m.responses) > 1 {
		m.responses = m.responses[1:]
	}
	return response, nil
}

var _ ports.GenerationBackend = (*MockGenerationBackend)(nil)
