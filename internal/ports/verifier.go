// Package ports defines the core interfaces that form the contract between
// the domain/application layers and the infrastructure layer.
// These interfaces enable dependency inversion and make the system testable.
package ports

import (
	"context"

	"github.com/ahrav/go-scrutiny/internal/domain"
)

// StrategyType is the stable tag identifying a verifier strategy. The tag is
// used for logging, metrics labels, and capability selection at construction
// time, never for runtime dispatch.
type StrategyType string

const (
	// StrategyLLMAsAJudge verifies steps by asking a judge model for an
	// annotation and a 0-5 rating.
	StrategyLLMAsAJudge StrategyType = "llm_as_a_judge"

	// StrategyRewardModel is a documented capability slot for a reward
	// model verifier. No implementation ships yet; any future one must
	// satisfy the VerifierStrategy contract.
	StrategyRewardModel StrategyType = "rm_model"

	// StrategyBertClassifier verifies steps by thresholding the scalar
	// score of a binary sequence-classification model.
	StrategyBertClassifier StrategyType = "bert_classifier"
)

// VerifyRequest carries the four inputs a verifier strategy judges a
// candidate against. No field may be nil; empty slices are valid.
type VerifyRequest struct {
	// Objective is free text describing the user's intent.
	Objective string

	// Candidate is the text being verified: a single step's text, or a
	// full response for objective-level checks.
	Candidate string

	// Chain holds every step of the reasoning chain, for context.
	Chain []string

	// ChatHistory holds prior conversation turns, oldest first. May be
	// empty.
	ChatHistory []string
}

// VerifierStrategy judges one step's or response's validity against an
// objective. Implementations may perform network or model-inference calls;
// those calls are blocking from the caller's perspective. Strategies must be
// stateless with respect to call history so a single instance can be shared
// read-only across the verification worker pool.
type VerifierStrategy interface {
	// Type returns the strategy's stable identity tag.
	Type() StrategyType

	// VerifyStep judges the candidate and returns an annotation from the
	// closed set plus a strategy-defined numeric score. A non-nil error
	// means the verification itself could not be performed (backend
	// unavailable or malformed backend output), not that the step is
	// invalid.
	VerifyStep(ctx context.Context, req VerifyRequest) (domain.Annotation, float64, error)
}
