package segment

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSegment_SplitsOnSentenceBoundaries(t *testing.T) {
	t.Parallel()

	s := New()
	steps := s.Segment("First we gather materials. Then we assemble them. Finally we test the result.")

	require.Len(t, steps, 3)
	assert.Equal(t, "First we gather materials.", steps[0].Text)
	assert.Equal(t, "Then we assemble them.", steps[1].Text)
	assert.Equal(t, "Finally we test the result.", steps[2].Text)
}

func TestSegment_IndicesFollowSurvivorOrder(t *testing.T) {
	t.Parallel()

	// The short middle fragment is dropped and must not leave a gap in
	// the indices of the surviving steps.
	s := New()
	steps := s.Segment("We start with a plan. Yes. We finish with a test of everything.")

	require.Len(t, steps, 2)
	assert.Equal(t, 0, steps[0].Index)
	assert.Equal(t, "We start with a plan.", steps[0].Text)
	assert.Equal(t, 1, steps[1].Index)
	assert.Equal(t, "We finish with a test of everything.", steps[1].Text)
}

func TestSegment_Boundaries(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		rationale string
		want      []string
	}{
		{
			name:      "question mark boundary",
			rationale: "Can the rocket reach orbit? It can with enough thrust applied.",
			want: []string{
				"Can the rocket reach orbit?",
				"It can with enough thrust applied.",
			},
		},
		{
			name:      "initials are not boundaries",
			rationale: "The U.S. space program uses similar staging for their rockets today.",
			want: []string{
				"The U.S. space program uses similar staging for their rockets today.",
			},
		},
		{
			name:      "latin abbreviation is not a boundary",
			rationale: "Light fuels burn faster, e.g. hydrogen burns fastest of all fuels.",
			want: []string{
				"Light fuels burn faster, e.g. hydrogen burns fastest of all fuels.",
			},
		},
		{
			name:      "honorific is not a boundary",
			rationale: "Mr. Goddard pioneered liquid fuel rockets in the early twenties.",
			want: []string{
				"Mr. Goddard pioneered liquid fuel rockets in the early twenties.",
			},
		},
		{
			name:      "period without following space is not a boundary",
			rationale: "The ratio is 3.5 between the two stages of the rocket.",
			want: []string{
				"The ratio is 3.5 between the two stages of the rocket.",
			},
		},
		{
			name:      "newline counts as boundary whitespace",
			rationale: "First we build the frame.\nThen we attach the engine mounts.",
			want: []string{
				"First we build the frame.",
				"Then we attach the engine mounts.",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			steps := New().Segment(tt.rationale)
			texts := make([]string, len(steps))
			for i, step := range steps {
				texts[i] = step.Text
			}
			assert.Equal(t, tt.want, texts)
		})
	}
}

func TestSegment_DropsShortFragments(t *testing.T) {
	t.Parallel()

	s := New()

	assert.Empty(t, s.Segment("Yes. No. Maybe."))
	assert.Empty(t, s.Segment(""))
	assert.Empty(t, s.Segment("Two words."))
}

func TestSegment_Idempotent(t *testing.T) {
	t.Parallel()

	s := New()

	// Re-segmenting an already-segmented step yields that same step.
	first := s.Segment("First, gather materials. Next, assemble the frame. Then attach the engine.")
	require.Len(t, first, 3)

	for _, step := range first {
		again := s.Segment(step.Text)
		require.Len(t, again, 1)
		assert.Equal(t, step.Text, again[0].Text)
	}

	// A fragment below the word threshold re-segments to nothing.
	assert.Empty(t, s.Segment("Done now."))
}

func TestSegment_WithMinSpaces(t *testing.T) {
	t.Parallel()

	s := New(WithMinSpaces(4))
	steps := s.Segment("This one has five words total. Too short here.")

	require.Len(t, steps, 1)
	assert.Equal(t, "This one has five words total.", steps[0].Text)
}

func TestSegment_TrailingBoundaryLeavesNoEmptyStep(t *testing.T) {
	t.Parallel()

	// A rationale ending on a sentence boundary produces an empty
	// trailing fragment; it must never surface as a step, even with a
	// zero word threshold.
	s := New(WithMinSpaces(0))
	steps := s.Segment("We compute the required thrust. ")

	require.Len(t, steps, 1)
	assert.Equal(t, "We compute the required thrust.", steps[0].Text)

	for _, step := range New().Segment("First we build the frame. Then we attach the engine. ") {
		assert.NotEmpty(t, step.Text)
	}
}

func TestWithMinSpaces_NegativeClampsToZero(t *testing.T) {
	t.Parallel()

	s := New(WithMinSpaces(-1))
	steps := s.Segment("One. Two.")

	// With a zero threshold every non-empty fragment qualifies.
	require.Len(t, steps, 2)
	assert.Equal(t, "One.", steps[0].Text)
}
