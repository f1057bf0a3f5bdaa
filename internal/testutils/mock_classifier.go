package testutils

import (
	"context"
	"sync"

	"github.com/ahrav/go-scrutiny/internal/ports"
)

// MockClassifierClient implements ports.ClassifierClient with a fixed
// score for every (instruction, response) pair.
type MockClassifierClient struct {
	mu    sync.Mutex
	score float64
	err   error
	calls int

	// LastInstruction and LastResponse record the most recent inputs so
	// tests can assert on the instruction format.
	LastInstruction string
	LastResponse    string
}

// NewMockClassifierClient creates a classifier that always returns score.
func NewMockClassifierClient(score float64) *MockClassifierClient {
	return &MockClassifierClient{score: score}
}

// SetError makes subsequent Score calls fail with err.
func (m *MockClassifierClient) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Calls returns the number of Score invocations observed.
func (m *MockClassifierClient) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func (m *MockClassifierClient) Score(ctx context.Context, instruction, response string) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	m.LastInstruction = instruction
	m.LastResponse = response
	if m.err != nil {
		return 0, m.err
	}
	return m.score, nil
}

var _ ports.ClassifierClient = (*MockClassifierClient)(nil)
