package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractJSON(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		response string
		want     string
	}{
		{
			name:     "bare object",
			response: `{"step_annotation": "essential_valid", "step_rating": 5}`,
			want:     `{"step_annotation": "essential_valid", "step_rating": 5}`,
		},
		{
			name:     "object surrounded by prose",
			response: `Sure, here is my verdict: {"step_rating": 3} let me know if you need more`,
			want:     `{"step_rating": 3}`,
		},
		{
			name:     "json code fence",
			response: "```json\n{\"rationale\": \"abc\"}\n```",
			want:     `{"rationale": "abc"}`,
		},
		{
			name:     "anonymous code fence",
			response: "```\n{\"rationale\": \"abc\"}\n```",
			want:     `{"rationale": "abc"}`,
		},
		{
			name:     "nested objects",
			response: `{"outer": {"inner": 1}, "other": 2}`,
			want:     `{"outer": {"inner": 1}, "other": 2}`,
		},
		{
			name:     "braces inside string values",
			response: `{"text": "a } brace and a { brace"}`,
			want:     `{"text": "a } brace and a { brace"}`,
		},
		{
			name:     "escaped quotes inside strings",
			response: `{"text": "he said \"hi\" }"}`,
			want:     `{"text": "he said \"hi\" }"}`,
		},
		{
			name:     "no json",
			response: "the step looks correct to me",
			want:     "",
		},
		{
			name:     "unbalanced braces",
			response: `{"partial": "object"`,
			want:     "",
		},
		{
			name:     "empty input",
			response: "",
			want:     "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, ExtractJSON(tt.response))
		})
	}
}
