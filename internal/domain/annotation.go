// Package domain contains pure, dependency-free domain models and types
// for the step-verification pipeline.
package domain

import "fmt"

// Annotation is the closed set of judgments a verifier strategy may assign
// to a reasoning step. Values outside this set are a contract violation of
// the producing backend, never silently coerced.
type Annotation string

const (
	// AnnotationEssentialAndValid marks a step that is both necessary for
	// reaching the answer and logically sound. It is the only annotation
	// that satisfies the per-step soft constraint.
	AnnotationEssentialAndValid Annotation = "essential_valid"

	// AnnotationUnnecessary marks a step that does not contribute to the
	// answer even if it is not wrong.
	AnnotationUnnecessary Annotation = "unnecessary"

	// AnnotationLogicallyFalse marks a step containing a logical error.
	AnnotationLogicallyFalse Annotation = "logically_false"

	// AnnotationNotBackedByPriorFacts marks a step that introduces claims
	// not supported by earlier steps or the conversation.
	AnnotationNotBackedByPriorFacts Annotation = "not_backed_by_prior_facts"

	// AnnotationBadDeductiveReasoning marks a step whose conclusion does
	// not follow from its premises.
	AnnotationBadDeductiveReasoning Annotation = "bad_deductive_reasoning"

	// AnnotationDoesNotSeemRight marks a step a verifier rejects without
	// a more specific diagnosis. Classifier strategies only ever produce
	// this value or AnnotationEssentialAndValid.
	AnnotationDoesNotSeemRight Annotation = "does_not_seem_right"
)

// Annotations lists every member of the closed annotation set in a stable
// order, for prompt construction and validation messages.
func Annotations() []Annotation {
	return []Annotation{
		AnnotationEssentialAndValid,
		AnnotationUnnecessary,
		AnnotationLogicallyFalse,
		AnnotationNotBackedByPriorFacts,
		AnnotationBadDeductiveReasoning,
		AnnotationDoesNotSeemRight,
	}
}

// ParseAnnotation validates that raw is a member of the closed annotation
// set. It returns a FormatError when the value is outside the set, since an
// unknown annotation always means the producing backend broke its contract.
func ParseAnnotation(raw string) (Annotation, error) {
	for _, a := range Annotations() {
		if string(a) == raw {
			return a, nil
		}
	}
	return "", &FormatError{
		Backend: "verifier",
		Field:   "step_annotation",
		Err:     fmt.Errorf("%q is not in the annotation set %v", raw, Annotations()),
	}
}

// IsValid reports whether the annotation is a member of the closed set.
func (a Annotation) IsValid() bool {
	for _, known := range Annotations() {
		if a == known {
			return true
		}
	}
	return false
}

// String returns the wire value of the annotation.
func (a Annotation) String() string { return string(a) }
