package generation

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahrav/go-scrutiny/internal/domain"
	"github.com/ahrav/go-scrutiny/internal/ports"
	"github.com/ahrav/go-scrutiny/internal/testutils"
)

func TestUnderstandMessage(t *testing.T) {
	t.Parallel()

	client := testutils.NewMockLLMClient("test-model")
	client.AddResponse(testutils.MockResponse{
		Pattern: "Understand the message",
		Response: `{"clear_rephrasing_of_message": "How do I build a moon rocket?",
			"why_is_user_asking_this": "curiosity about rocketry",
			"what_is_user_objective": "build a small rocket that can reach the moon",
			"message_decomposition": ["what fuel", "what size"]}`,
	})

	backend, err := NewBackend(client, nil)
	require.NoError(t, err)

	structured, err := backend.UnderstandMessage(context.Background(),
		[]string{"earlier message"}, "how do i build a rocket to the moon")
	require.NoError(t, err)

	assert.Equal(t, "How do I build a moon rocket?", structured.Rephrasing)
	assert.Equal(t, "curiosity about rocketry", structured.WhyAsking)
	assert.Equal(t, "build a small rocket that can reach the moon", structured.Objective)
	assert.Equal(t, []string{"what fuel", "what size"}, structured.SubMessages)
}

func TestUnderstandMessage_MissingObjectiveIsFormatError(t *testing.T) {
	t.Parallel()

	client := testutils.NewMockLLMClient("test-model")
	client.AddResponse(testutils.MockResponse{
		Pattern:  "Understand the message",
		Response: `{"clear_rephrasing_of_message": "rephrased", "why_is_user_asking_this": "reason"}`,
	})

	backend, err := NewBackend(client, nil)
	require.NoError(t, err)

	_, err = backend.UnderstandMessage(context.Background(), nil, "message")

	var formatErr *domain.FormatError
	require.ErrorAs(t, err, &formatErr)
	assert.Equal(t, "understand", formatErr.Backend)
}

func TestGenerateRationale(t *testing.T) {
	t.Parallel()

	client := testutils.NewMockLLMClient("test-model")
	client.AddResponse(testutils.MockResponse{
		Pattern: "Think step by step",
		Response: `{"rationale": "First we compute thrust. Then we pick a fuel. Finally we test the design.",
			"answer": "Use a staged solid-fuel design."}`,
	})

	backend, err := NewBackend(client, nil)
	require.NoError(t, err)

	rationale, answer, err := backend.GenerateRationale(context.Background(), domain.UnderstoodMessage{
		Objective: "build a small rocket that can reach the moon",
	})
	require.NoError(t, err)
	assert.Equal(t, "First we compute thrust. Then we pick a fuel. Finally we test the design.", rationale)
	assert.Equal(t, "Use a staged solid-fuel design.", answer)
}

func TestGenerateRationale_MissingFieldIsFormatError(t *testing.T) {
	t.Parallel()

	client := testutils.NewMockLLMClient("test-model")
	client.AddResponse(testutils.MockResponse{
		Pattern:  "Think step by step",
		Response: `{"rationale": "steps only, no answer"}`,
	})

	backend, err := NewBackend(client, nil)
	require.NoError(t, err)

	_, _, err = backend.GenerateRationale(context.Background(), domain.UnderstoodMessage{Objective: "x"})

	var formatErr *domain.FormatError
	require.ErrorAs(t, err, &formatErr)
	assert.Equal(t, "rationale", formatErr.Backend)
}

func TestGenerateResponse(t *testing.T) {
	t.Parallel()

	client := testutils.NewMockLLMClient("test-model")
	client.AddResponse(testutils.MockResponse{
		Pattern:  "conversational style",
		Response: `{"response_to_user": "You'll want a staged design with a high thrust-to-weight ratio."}`,
	})

	backend, err := NewBackend(client, nil)
	require.NoError(t, err)

	response, err := backend.GenerateResponse(context.Background(), "how do i build a rocket",
		domain.UnderstoodMessage{Objective: "build a rocket"}, "First we compute thrust.")
	require.NoError(t, err)
	assert.Equal(t, "You'll want a staged design with a high thrust-to-weight ratio.", response)
}

func TestGenerate_BackendFailure(t *testing.T) {
	t.Parallel()

	client := testutils.NewMockLLMClient("test-model")
	client.AddResponse(testutils.MockResponse{Pattern: "", Err: assert.AnError})

	backend, err := NewBackend(client, nil)
	require.NoError(t, err)

	_, err = backend.UnderstandMessage(context.Background(), nil, "message")
	assert.ErrorIs(t, err, ports.ErrBackendUnavailable)

	_, _, err = backend.GenerateRationale(context.Background(), domain.UnderstoodMessage{Objective: "x"})
	assert.ErrorIs(t, err, ports.ErrBackendUnavailable)

	_, err = backend.GenerateResponse(context.Background(), "m", domain.UnderstoodMessage{Objective: "x"}, "r")
	assert.ErrorIs(t, err, ports.ErrBackendUnavailable)
}

func TestGenerate_NonJSONResponseIsFormatError(t *testing.T) {
	t.Parallel()

	client := testutils.NewMockLLMClient("test-model")
	client.AddResponse(testutils.MockResponse{Pattern: "", Response: "plain prose with no structure"})

	backend, err := NewBackend(client, nil)
	require.NoError(t, err)

	_, err = backend.UnderstandMessage(context.Background(), nil, "message")

	var formatErr *domain.FormatError
	assert.ErrorAs(t, err, &formatErr)
}

func TestNewBackend_NilClient(t *testing.T) {
	t.Parallel()

	_, err := NewBackend(nil, nil)
	assert.Error(t, err)
}
