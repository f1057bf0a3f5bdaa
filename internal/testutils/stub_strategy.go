package testutils

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/ahrav/go-scrutiny/internal/domain"
	"github.com/ahrav/go-scrutiny/internal/ports"
)

// StubStrategy implements ports.VerifierStrategy with a fixed verdict for
// every candidate. It is safe for concurrent use.
type StubStrategy struct {
	Strategy   ports.StrategyType
	Annotation domain.Annotation
	Score      float64
	Err        error

	calls atomic.Int64
}

// NewStubStrategy creates a strategy that always returns the given verdict.
func NewStubStrategy(annotation domain.Annotation, score float64) *StubStrategy {
	return &StubStrategy{
		Strategy:   ports.StrategyLLMAsAJudge,
		Annotation: annotation,
		Score:      score,
	}
}

// Calls returns the number of VerifyStep invocations observed.
func (s *StubStrategy) Calls() int { return int(s.calls.Load()) }

func (s *StubStrategy) Type() ports.StrategyType { return s.Strategy }

func (s *StubStrategy) VerifyStep(ctx context.Context, req ports.VerifyRequest) (domain.Annotation, float64, error) {
	s.calls.Add(1)
	if err := ctx.Err(); err != nil {
		return "", 0, err
	}
	if s.Err != nil {
		return "", 0, s.Err
	}
	return s.Annotation, s.Score, nil
}

var _ ports.VerifierStrategy = (*StubStrategy)(nil)

// ScriptedStrategy implements ports.VerifierStrategy with per-candidate
// verdicts keyed by the candidate text, falling back to a default verdict.
// Tests use it to fail a specific step of a chain while passing the rest.
type ScriptedStrategy struct {
	Strategy ports.StrategyType

	mu       sync.Mutex
	verdicts map[string]Verdict
	fallback Verdict
	calls    int
}

// Verdict is one scripted verification outcome.
type Verdict struct {
	Annotation domain.Annotation
	Score      float64
	Err        error
}

// NewScriptedStrategy creates a strategy whose unscripted candidates
// receive the given default verdict.
func NewScriptedStrategy(fallback Verdict) *ScriptedStrategy {
	return &ScriptedStrategy{
		Strategy: ports.StrategyLLMAsAJudge,
		verdicts: make(map[string]Verdict),
		fallback: fallback,
	}
}

// Script assigns a verdict to an exact candidate text.
func (s *ScriptedStrategy) Script(candidate string, v Verdict) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.verdicts[candidate] = v
}

// Calls returns the number of VerifyStep invocations observed.
func (s *ScriptedStrategy) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func (s *ScriptedStrategy) Type() ports.StrategyType { return s.Strategy }

func (s *ScriptedStrategy) VerifyStep(ctx context.Context, req ports.VerifyRequest) (domain.Annotation, float64, error) {
	if err := ctx.Err(); err != nil {
		return "", 0, err
	}

	s.mu.Lock()
	s.calls++
	v, ok := s.verdicts[req.Candidate]
	if !ok {
		v = s.fallback
	}
	s.mu.Unlock()

	if v.Err != nil {
		return "", 0, v.Err
	}
	return v.Annotation, v.Score, nil
}

var _ ports.VerifierStrategy = (*ScriptedStrategy)(nil)
