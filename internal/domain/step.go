package domain

import "strings"

// Step is one immutable unit of a decomposed reasoning chain: a text span
// plus its ordinal position among the qualifying steps. Steps are created by
// the segmenter and never mutated afterwards.
type Step struct {
	// Index is the step's zero-based position in the chain.
	Index int `json:"index"`

	// Text is the step's sentence text, trailing punctuation included.
	Text string `json:"text"`
}

// VerificationResult pairs a Step with the annotation and score one verifier
// strategy assigned to it. Score semantics are strategy-defined: a judge
// scales its 0-5 rating to 0.0-1.0, a classifier returns a raw model logit.
type VerificationResult struct {
	Step       Step       `json:"step"`
	Annotation Annotation `json:"annotation"`

	// Score is the strategy-defined numeric judgment for the step.
	Score float64 `json:"score"`
}

// ReasoningChain holds the ordered steps of one generation round together
// with their verification results. It is owned by the orchestrator for the
// lifetime of a single request and discarded when the round completes.
type ReasoningChain struct {
	// Rationale is the raw generated rationale the steps were cut from.
	Rationale string `json:"rationale"`

	// Answer is the answer the rationale leads to, produced in the same
	// generation call.
	Answer string `json:"answer"`

	// Steps are the qualifying steps in rationale order.
	Steps []Step `json:"steps"`

	// Results holds one entry per step, in step order. It is empty until
	// the verification fan-out for the round has completed.
	Results []VerificationResult `json:"results,omitempty"`
}

// Texts returns the step texts in chain order. Verifier strategies receive
// the full chain as context when judging an individual step.
func (c ReasoningChain) Texts() []string {
	texts := make([]string, len(c.Steps))
	for i, s := range c.Steps {
		texts[i] = s.Text
	}
	return texts
}

// String renders the chain as an indented bullet list, the form judge
// prompts embed it in.
func (c ReasoningChain) String() string {
	return strings.Join(c.Texts(), "\n  - ")
}
