package ports

import (
	"context"

	"github.com/ahrav/go-scrutiny/internal/domain"
)

// GenerationBackend is the text-generation collaborator that produces every
// generated artifact in the pipeline. Implementations must conform to the
// requested output schema; schema violations surface as *domain.FormatError,
// never as silently coerced values.
type GenerationBackend interface {
	// UnderstandMessage turns a raw user message plus prior chat into a
	// structured understanding. The chat slice may be empty.
	UnderstandMessage(ctx context.Context, chat []string, message string) (domain.UnderstoodMessage, error)

	// GenerateRationale produces a step-by-step rationale and an answer
	// from a structured understanding. This is the stage re-run when a
	// per-step soft constraint triggers a backtrack.
	GenerateRationale(ctx context.Context, structured domain.UnderstoodMessage) (rationale, answer string, err error)

	// GenerateResponse produces the conversational response from the raw
	// message, the structured understanding, and the validated rationale.
	// This is the stage re-run when the objective-level soft constraint
	// triggers a backtrack.
	GenerateResponse(ctx context.Context, message string, structured domain.UnderstoodMessage, rationale string) (string, error)
}

// ClassifierClient scores a paired (instruction, response) text input with a
// binary sequence-classification model. The scale of the returned score is
// backend-defined; the Cappy-style service this repo ships returns a raw
// logit, and implementations must document which scale they use because the
// classifier verifier thresholds the value directly.
type ClassifierClient interface {
	// Score returns the model's scalar relevance/quality score for the
	// (instruction, response) pair.
	Score(ctx context.Context, instruction, response string) (float64, error)
}
