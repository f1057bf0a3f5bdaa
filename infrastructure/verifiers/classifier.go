package verifiers

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/ahrav/go-scrutiny/internal/domain"
	"github.com/ahrav/go-scrutiny/internal/ports"
)

var _ ports.VerifierStrategy = (*ClassifierVerifier)(nil)

// DefaultClassifierThreshold is the score cutoff separating
// does_not_seem_right from essential_valid. Cappy-style classifiers return
// a raw logit, so the threshold is compared against that scale directly;
// deployments pairing this verifier with a probability-scaled model must
// configure the threshold accordingly.
const DefaultClassifierThreshold = 0.7

// ClassifierVerifier verifies steps by scoring an (instruction, response)
// pair with a binary sequence-classification model and thresholding the
// result. It only ever produces AnnotationDoesNotSeemRight (score at or
// below the threshold) or AnnotationEssentialAndValid (score above it).
// The verifier is stateless and safe for concurrent use.
type ClassifierVerifier struct {
	client    ports.ClassifierClient
	threshold float64
	logger    *zap.Logger
}

// ClassifierOption configures a ClassifierVerifier.
type ClassifierOption func(*ClassifierVerifier)

// WithThreshold overrides the default score threshold.
func WithThreshold(threshold float64) ClassifierOption {
	return func(v *ClassifierVerifier) { v.threshold = threshold }
}

// NewClassifierVerifier creates a ClassifierVerifier over the given scoring
// client.
func NewClassifierVerifier(client ports.ClassifierClient, logger *zap.Logger, opts ...ClassifierOption) (*ClassifierVerifier, error) {
	if client == nil {
		return nil, fmt.Errorf("classifier client cannot be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	v := &ClassifierVerifier{
		client:    client,
		threshold: DefaultClassifierThreshold,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v, nil
}

// Type returns the classifier strategy tag.
func (v *ClassifierVerifier) Type() ports.StrategyType { return ports.StrategyBertClassifier }

// Threshold returns the configured score cutoff.
func (v *ClassifierVerifier) Threshold() float64 { return v.threshold }

// VerifyStep scores the candidate against an instruction built from the
// objective and chat history, then thresholds the score into one of the two
// classifier annotations. The raw model score is returned unscaled.
func (v *ClassifierVerifier) VerifyStep(ctx context.Context, req ports.VerifyRequest) (domain.Annotation, float64, error) {
	instruction := v.buildInstruction(req)

	score, err := v.client.Score(ctx, instruction, req.Candidate)
	if err != nil {
		return "", 0, fmt.Errorf("%w: classifier call failed: %w", ports.ErrBackendUnavailable, err)
	}

	annotation := domain.AnnotationEssentialAndValid
	if score <= v.threshold {
		annotation = domain.AnnotationDoesNotSeemRight
	}

	v.logger.Debug("classifier verified step",
		zap.Float64("score", score),
		zap.Float64("threshold", v.threshold),
		zap.String("annotation", annotation.String()))

	return annotation, score, nil
}

// buildInstruction assembles the instruction half of the classifier input:
// the objective question, the chat history, and the candidate presented as
// an answer.
func (v *ClassifierVerifier) buildInstruction(req ports.VerifyRequest) string {
	var b strings.Builder
	b.WriteString("Does the following answer meet the objective behind user's messages?\n\n")
	fmt.Fprintf(&b, "Objectives: %s\n", req.Objective)

	lines := make([]string, 0, len(req.ChatHistory)+1)
	lines = append(lines, req.ChatHistory...)
	lines = append(lines, fmt.Sprintf("Answer: %s", req.Candidate))
	b.WriteString(strings.Join(lines, "\n"))

	return b.String()
}
