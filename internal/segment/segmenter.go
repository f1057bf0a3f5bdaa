// Package segment splits generated rationale text into ordered, verifiable
// reasoning steps.
package segment

import (
	"strings"
	"unicode"

	"github.com/ahrav/go-scrutiny/internal/domain"
)

// DefaultMinSpaces is the minimum number of interior space characters a
// fragment needs to qualify as a step. Two spaces means three words;
// anything shorter is treated as noise, not reasoning.
const DefaultMinSpaces = 2

// Segmenter cuts a rationale into sentence-level steps using a heuristic
// boundary detector. It splits on a '.' or '?' followed by whitespace while
// suppressing boundaries that look like abbreviations or initials. It is not
// a full sentence parser; false splits and merges on unusual prose are an
// accepted limitation.
// A Segmenter is immutable and safe for concurrent use.
type Segmenter struct {
	minSpaces int
}

// Option configures a Segmenter.
type Option func(*Segmenter)

// WithMinSpaces overrides the minimum interior space count a fragment needs
// to qualify as a step. Negative values are treated as zero.
func WithMinSpaces(n int) Option {
	return func(s *Segmenter) {
		if n < 0 {
			n = 0
		}
		s.minSpaces = n
	}
}

// New creates a Segmenter with the default minimum word threshold unless
// overridden by options.
func New(opts ...Option) *Segmenter {
	s := &Segmenter{minSpaces: DefaultMinSpaces}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Segment splits rationale into qualifying steps in text order. Empty
// fragments and fragments below the minimum word threshold are dropped;
// surviving steps are numbered by their position among the survivors. The
// result is empty when nothing qualifies. No returned step is ever empty,
// whatever the threshold.
func (s *Segmenter) Segment(rationale string) []domain.Step {
	var steps []domain.Step
	for _, fragment := range splitSentences(rationale) {
		// Text ending on a boundary leaves an empty trailing fragment.
		if strings.TrimSpace(fragment) == "" {
			continue
		}
		if strings.Count(fragment, " ") < s.minSpaces {
			continue
		}
		steps = append(steps, domain.Step{Index: len(steps), Text: fragment})
	}
	return steps
}

// splitSentences cuts text at every whitespace character preceded by '.' or
// '?', unless the characters immediately before the whitespace form an
// initial ("e.g.": word char, period, word char, period) or a short
// abbreviation ("Mr.": capital, lowercase, period). The boundary whitespace
// itself is consumed; everything else, trailing punctuation included, stays
// with its fragment.
func splitSentences(text string) []string {
	runes := []rune(text)

	var fragments []string
	start := 0
	for i, r := range runes {
		if !unicode.IsSpace(r) || i == 0 {
			continue
		}
		if runes[i-1] != '.' && runes[i-1] != '?' {
			continue
		}
		if looksLikeInitial(runes, i) || looksLikeAbbreviation(runes, i) {
			continue
		}
		fragments = append(fragments, string(runes[start:i]))
		start = i + 1
	}
	if start <= len(runes) {
		fragments = append(fragments, string(runes[start:]))
	}
	return fragments
}

// looksLikeInitial reports whether the four runes before the boundary at i
// match a word char, a period, a word char, and the boundary punctuation,
// as in "e.g. " or "U.S. ".
func looksLikeInitial(runes []rune, i int) bool {
	if i < 4 {
		return false
	}
	return isWordRune(runes[i-4]) && runes[i-3] == '.' && isWordRune(runes[i-2])
}

// looksLikeAbbreviation reports whether the three runes before the boundary
// at i match a capital, a lowercase letter, and a period, as in "Mr. ".
func looksLikeAbbreviation(runes []rune, i int) bool {
	if i < 3 {
		return false
	}
	return unicode.IsUpper(runes[i-3]) && unicode.IsLower(runes[i-2]) && runes[i-1] == '.'
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_'
}
