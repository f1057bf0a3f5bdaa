// Package generation implements the ports.GenerationBackend contract over a
// generic LLM client using structured-JSON prompting. Each generation stage
// requests a fixed output schema and treats any deviation as a backend
// contract violation rather than coercing the output.
package generation

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

var _ ports.GenerationBackend = (*Backend)(nil)

// Default request parameters for generation stages. Rationale generation
// gets more headroom than the other stages because it produces multi-step
// chains.
const (
	defaultMaxTokens          = 1024
	defaultRationaleMaxTokens = 2048
)

const understandPromptTemplate = `A user sent a new message in an ongoing chat.

Chat history (may be empty):
{{.Chat}}

New message: {{.Message}}

Understand the message in terms of the underlying intent and objective.

IMPORTANT: You must respond with valid JSON in exactly this format:
{"clear_rephrasing_of_message": "<rephrase the user's message in clearer form; leave empty unless a rephrasing is useful>", "why_is_user_asking_this": "<why is the user asking this at this point in the ongoing chat?>", "what_is_user_objective": "<the user's overall objectives implicit or explicit within this chat>", "message_decomposition": ["<simpler sub-message>", ...]}`

const rationalePromptTemplate = `Respond to the following message. Think step by step and lay out the full reasoning chain behind your answer before stating it.

Message:
{{.Structured}}

IMPORTANT: You must respond with valid JSON in exactly this format:
{"rationale": "<your step-by-step reasoning, written as complete sentences>", "answer": "<the answer the reasoning leads to>"}`

const responsePromptTemplate = `Compose a response to the user in a conversational style.

Raw message from user: {{.Message}}

Structured understanding of the message:
{{.Structured}}

Rationale behind the response:
{{.Rationale}}

IMPORTANT: You must respond with valid JSON in exactly this format:
{"response_to_user": "<the conversational response>"}`

// understoodPayload mirrors the JSON schema requested from the understand
// stage. The objective is the one field every downstream verification
// depends on, so it is the one field validation requires.
type understoodPayload struct {
	Rephrasing  string   `json:"clear_rephrasing_of_message"`
	WhyAsking   string   `json:"why_is_user_asking_this"`
	Objective   string   `json:"what_is_user_objective" validate:"required"`
	SubMessages []string `json:"message_decomposition"`
}

type rationalePayload struct {
	Rationale string `json:"rationale" validate:"required"`
	Answer    string `json:"answer" validate:"required"`
}

type responsePayload struct {
	ResponseToUser string `json:"response_to_user" validate:"required"`
}

// Backend generates every pipeline artifact through a single LLM client.
// It is stateless and safe for concurrent use.
type Backend struct {
	llmClient ports.LLMClient
	validate  *validator.Validate
	logger    *zap.Logger

	understandTmpl *template.Template
	rationaleTmpl  *template.Template
	responseTmpl   *template.Template
}

// NewBackend creates a generation backend over the given LLM client.
func NewBackend(llmClient ports.LLMClient, logger *zap.Logger) (*Backend, error) {
	if llmClient == nil {
		return nil, fmt.Errorf("LLM client cannot be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	b := &Backend{
		llmClient: llmClient,
		validate:  validator.New(),
		logger:    logger,
	}

	var err error
	if b.understandTmpl, err = template.New("understand").Parse(understandPromptTemplate); err != nil {
		return nil, fmt.Errorf("failed to parse understand template: %w", err)
	}
	if b.rationaleTmpl, err = template.New("rationale").Parse(rationalePromptTemplate); err != nil {
		return nil, fmt.Errorf("failed to parse rationale template: %w", err)
	}
	if b.responseTmpl, err = template.New("response").Parse(responsePromptTemplate); err != nil {
		return nil, fmt.Errorf("failed to parse response template: %w", err)
	}

	return b, nil
}

// UnderstandMessage produces the structured understanding of a raw user
// message given prior chat.
func (b *Backend) UnderstandMessage(ctx context.Context, chat []string, message string) (domain.UnderstoodMessage, error) {
	prompt, err := execute(b.understandTmpl, struct {
		Chat    string
		Message string
	}{Chat: strings.Join(chat, "\n"), Message: message})
	if err != nil {
		return domain.UnderstoodMessage{}, err
	}

	var payload understoodPayload
	if err := b.generateInto(ctx, "understand", prompt, defaultMaxTokens, &payload); err != nil {
		return domain.UnderstoodMessage{}, err
	}

	return domain.UnderstoodMessage{
		Rephrasing:  payload.Rephrasing,
		WhyAsking:   payload.WhyAsking,
		Objective:   payload.Objective,
		SubMessages: payload.SubMessages,
	}, nil
}

// GenerateRationale produces a step-by-step rationale and an answer from a
// structured understanding.
func (b *Backend) GenerateRationale(ctx context.Context, structured domain.UnderstoodMessage) (string, string, error) {
	prompt, err := execute(b.rationaleTmpl, struct {
		Structured string
	}{Structured: structured.String()})
	if err != nil {
		return "", "", err
	}

	var payload rationalePayload
	if err := b.generateInto(ctx, "rationale", prompt, defaultRationaleMaxTokens, &payload); err != nil {
		return "", "", err
	}
	return payload.Rationale, payload.Answer, nil
}

// GenerateResponse produces the conversational response from the raw
// message, the structured understanding, and the validated rationale.
func (b *Backend) GenerateResponse(ctx context.Context, message string, structured domain.UnderstoodMessage, rationale string) (string, error) {
	prompt, err := execute(b.responseTmpl, struct {
		Message    string
		Structured string
		Rationale  string
	}{Message: message, Structured: structured.String(), Rationale: rationale})
	if err != nil {
		return "", err
	}

	var payload responsePayload
	if err := b.generateInto(ctx, "response", prompt, defaultMaxTokens, &payload); err != nil {
		return "", err
	}
	return payload.ResponseToUser, nil
}

// generateInto runs one generation call and decodes the response into out,
// enforcing the requested schema. Call failures carry
// ports.ErrBackendUnavailable; schema violations surface as
// *domain.FormatError.
func (b *Backend) generateInto(ctx context.Context, stage, prompt string, maxTokens int, out any) error {
	options := map[string]any{
		"max_tokens":      maxTokens,
		"response_format": map[string]string{"type": "json_object"},
	}

	response, err := b.llmClient.Complete(ctx, prompt, options)
	if err != nil {
		return fmt.Errorf("%w: %s generation failed: %w", ports.ErrBackendUnavailable, stage, err)
	}

	jsonStr := llm.ExtractJSON(response)
	if jsonStr == "" {
		return &domain.FormatError{
			Backend: stage,
			Err:     fmt.Errorf("no valid JSON found in response (%d chars)", len(response)),
		}
	}

	if err := json.Unmarshal([]byte(jsonStr), out); err != nil {
		return &domain.FormatError{Backend: stage, Err: err}
	}
	if err := b.validate.Struct(out); err != nil {
		return &domain.FormatError{Backend: stage, Err: err}
	}

	b.logger.Debug("generation stage completed",
		zap.String("stage", stage),
		zap.Int("response_chars", len(response)))

	return nil
}

func execute(tmpl *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute %s template: %w", tmpl.Name(), err)
	}
	return buf.String(), nil
}
