// Package verifiers contains concrete implementations of the
// ports.VerifierStrategy interface.
package verifiers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"text/template"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/ahrav/go-scrutiny/infrastructure/llm"
	"github.com/ahrav/go-scrutiny/internal/domain"
	"github.com/ahrav/go-scrutiny/internal/ports"
)

var _ ports.VerifierStrategy = (*JudgeVerifier)(nil)

// Configuration defaults for the JudgeVerifier.
const (
	DefaultJudgeMaxTokens   = 256
	DefaultJudgeTemperature = 0.0

	// MinJudgeRating and MaxJudgeRating bound the judge's integer rating.
	MinJudgeRating = 0
	MaxJudgeRating = 5

	// JudgeRatingScale converts a 0-5 rating to a 0.0-1.0 score.
	JudgeRatingScale = 0.2
)

// judgePromptTemplate asks the judge model for an annotation from the
// closed set and a 0-5 rating, carrying the rating rubric so scores stay
// comparable across models.
const judgePromptTemplate = `You are verifying one step of a reasoning chain produced by an AI system.

Objective: {{.Objective}}

Chat history (latest message from the user at the bottom):
{{.ChatHistory}}

The reasoning chain generated in order to respond to the user's chat given their objectives:
  - {{.Chain}}

Step to be verified: {{.Step}}

Annotate the step with exactly one of the following values: {{.Annotations}}

Then rate, between 0 and 5, the extent to which the given step is both essential and logically valid:
    0 denotes 'certainly unnecessary and illogical'
    1 denotes 'certainly unnecessary and most probably invalid'
    2 denotes 'unnecessary and probably invalid'
    3 denotes 'might be necessary and could be valid'
    4 denotes 'seems somewhat necessary but appears valid'
    5 denotes 'certainly necessary and logically sound'

IMPORTANT: You must respond with valid JSON in exactly this format:
{"step_annotation": "<annotation>", "step_rating": <0-5>}`

// judgeResponse is the structured output the judge backend must produce.
// Validation enforces the closed annotation set and the rating bounds; any
// violation is the backend breaking its contract, not a soft failure.
type judgeResponse struct {
	StepAnnotation string `json:"step_annotation" validate:"required,oneof=essential_valid unnecessary logically_false not_backed_by_prior_facts bad_deductive_reasoning does_not_seem_right"`
	StepRating     *int   `json:"step_rating" validate:"required,min=0,max=5"`
}

// JudgeVerifier verifies steps by delegating judgment to a language model.
// The judge returns an annotation from the closed set and an integer rating
// that is scaled to a 0.0-1.0 score. The verifier is stateless with respect
// to call history and safe for concurrent use across the worker pool.
type JudgeVerifier struct {
	llmClient ports.LLMClient
	validate  *validator.Validate
	prompt    *template.Template
	logger    *zap.Logger
}

// NewJudgeVerifier creates a JudgeVerifier over the given LLM client.
func NewJudgeVerifier(llmClient ports.LLMClient, logger *zap.Logger) (*JudgeVerifier, error) {
	if llmClient == nil {
		return nil, fmt.Errorf("LLM client cannot be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	tmpl, err := template.New("judgePrompt").Parse(judgePromptTemplate)
	if err != nil {
		return nil, fmt.Errorf("failed to parse judge prompt template: %w", err)
	}

	return &JudgeVerifier{
		llmClient: llmClient,
		validate:  validator.New(),
		prompt:    tmpl,
		logger:    logger,
	}, nil
}

// Type returns the judge strategy tag.
func (v *JudgeVerifier) Type() ports.StrategyType { return ports.StrategyLLMAsAJudge }

// VerifyStep asks the judge model to annotate and rate the candidate.
// The returned score is the rating scaled to 0.0-1.0.
func (v *JudgeVerifier) VerifyStep(ctx context.Context, req ports.VerifyRequest) (domain.Annotation, float64, error) {
	prompt, err := v.buildPrompt(req)
	if err != nil {
		return "", 0, err
	}

	options := map[string]any{
		"temperature": DefaultJudgeTemperature,
		"max_tokens":  DefaultJudgeMaxTokens,
	}

	response, err := v.llmClient.Complete(ctx, prompt, options)
	if err != nil {
		return "", 0, fmt.Errorf("%w: judge call failed: %w", ports.ErrBackendUnavailable, err)
	}

	annotation, rating, err := v.parseResponse(response)
	if err != nil {
		return "", 0, err
	}

	score := float64(rating) * JudgeRatingScale

	v.logger.Debug("judge verified step",
		zap.String("annotation", annotation.String()),
		zap.Int("rating", rating),
		zap.Float64("score", score))

	return annotation, score, nil
}

func (v *JudgeVerifier) buildPrompt(req ports.VerifyRequest) (string, error) {
	annotations := make([]string, 0, len(domain.Annotations()))
	for _, a := range domain.Annotations() {
		annotations = append(annotations, a.String())
	}

	var buf bytes.Buffer
	data := struct {
		Objective   string
		ChatHistory string
		Chain       string
		Step        string
		Annotations string
	}{
		Objective:   req.Objective,
		ChatHistory: strings.Join(req.ChatHistory, "\n"),
		Chain:       strings.Join(req.Chain, "\n  - "),
		Step:        req.Candidate,
		Annotations: strings.Join(annotations, ", "),
	}
	if err := v.prompt.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute judge prompt template: %w", err)
	}
	return buf.String(), nil
}

// parseResponse extracts and validates the judge's structured output.
// Schema violations surface as *domain.FormatError.
func (v *JudgeVerifier) parseResponse(response string) (domain.Annotation, int, error) {
	jsonStr := llm.ExtractJSON(response)
	if jsonStr == "" {
		return "", 0, &domain.FormatError{
			Backend: "judge",
			Err:     fmt.Errorf("no valid JSON found in response (%d chars)", len(response)),
		}
	}

	var parsed judgeResponse
	if err := json.Unmarshal([]byte(jsonStr), &parsed); err != nil {
		return "", 0, &domain.FormatError{Backend: "judge", Err: err}
	}

	if err := v.validate.Struct(parsed); err != nil {
		return "", 0, &domain.FormatError{Backend: "judge", Field: "step_annotation", Err: err}
	}

	annotation, err := domain.ParseAnnotation(parsed.StepAnnotation)
	if err != nil {
		return "", 0, err
	}

	return annotation, *parsed.StepRating, nil
}
