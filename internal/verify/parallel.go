// Package verify fans one verifier strategy out over the steps of a
// reasoning chain with bounded concurrency.
package verify

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/ahrav/go-scrutiny/internal/domain"
	"github.com/ahrav/go-scrutiny/internal/ports"
)

// DefaultMaxWorkers bounds the verification worker pool when no explicit
// capacity is configured. The pool is never unbounded.
const DefaultMaxWorkers = 20

// ParallelVerifier runs a verifier strategy across all steps of a chain
// using a fixed-size worker pool. Completion order across workers is
// unconstrained, but results are reassembled into input step order before
// being returned. A ParallelVerifier is stateless and safe for concurrent
// use; the strategy instance is shared read-only across workers.
type ParallelVerifier struct {
	strategy   ports.VerifierStrategy
	maxWorkers int
}

// NewParallelVerifier creates a ParallelVerifier over the given strategy.
// A non-positive maxWorkers falls back to DefaultMaxWorkers.
func NewParallelVerifier(strategy ports.VerifierStrategy, maxWorkers int) (*ParallelVerifier, error) {
	if strategy == nil {
		return nil, fmt.Errorf("verifier strategy cannot be nil")
	}
	if maxWorkers <= 0 {
		maxWorkers = DefaultMaxWorkers
	}
	return &ParallelVerifier{strategy: strategy, maxWorkers: maxWorkers}, nil
}

// Strategy returns the strategy this verifier fans out.
func (p *ParallelVerifier) Strategy() ports.VerifierStrategy { return p.strategy }

// VerifyAll verifies every step of the chain against the objective and chat
// history, returning exactly one result per step in step order.
//
// Once dispatched, in-flight verifications are allowed to complete even
// when a sibling fails; there is no mid-flight abort. If any verification
// fails the first error in step order is returned after all workers finish,
// and no partial results are surfaced.
func (p *ParallelVerifier) VerifyAll(
	ctx context.Context,
	objective string,
	chain domain.ReasoningChain,
	chatHistory []string,
) ([]domain.VerificationResult, error) {
	steps := chain.Steps
	if len(steps) == 0 {
		return nil, nil
	}

	results := make([]domain.VerificationResult, len(steps))
	errs := make([]error, len(steps))
	chainTexts := chain.Texts()

	// A plain errgroup rather than errgroup.WithContext: a failing worker
	// must not cancel its siblings.
	var g errgroup.Group
	g.SetLimit(p.maxWorkers)

	for i, step := range steps {
		g.Go(func() error {
			annotation, score, err := p.strategy.VerifyStep(ctx, ports.VerifyRequest{
				Objective:   objective,
				Candidate:   step.Text,
				Chain:       chainTexts,
				ChatHistory: chatHistory,
			})
			if err != nil {
				errs[i] = fmt.Errorf("step %d: %w", step.Index, err)
				return nil
			}
			results[i] = domain.VerificationResult{
				Step:       step,
				Annotation: annotation,
				Score:      score,
			}
			return nil
		})
	}

	// Workers never return errors directly, so Wait only synchronizes.
	_ = g.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return results, nil
}
