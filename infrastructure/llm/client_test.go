package llm

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahrav/go-scrutiny/internal/ports"
)

// fakeCore is a scripted CoreLLM for middleware and client tests.
type fakeCore struct {
	mu       sync.Mutex
	model    string
	response string
	errs     []error
	calls    int
	delay    time.Duration
}

func (f *fakeCore) DoRequest(ctx context.Context, prompt string, opts map[string]any) (string, int, int, error) {
	f.mu.Lock()
	f.calls++
	var err error
	if len(f.errs) > 0 {
		err = f.errs[0]
		f.errs = f.errs[1:]
	}
	delay := f.delay
	f.mu.Unlock()

	if delay > 0 {
		select {
		case <-ctx.Done():
			return "", 0, 0, ctx.Err()
		case <-time.After(delay):
		}
	}
	if err != nil {
		return "", 0, 0, err
	}
	return f.response, 10, 20, nil
}

func (f *fakeCore) GetModel() string { return f.model }

func (f *fakeCore) SetModel(m string) { f.model = m }

func (f *fakeCore) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// Tests that touch the provider factory registry stay sequential; the
// registry map is written at init time and has no lock.
func TestNewClient(t *testing.T) {
	RegisterProviderFactory("fake", func(config ClientConfig) (CoreLLM, error) {
		return &fakeCore{model: config.Model, response: "hello"}, nil
	})

	client, err := NewClient("fake", ClientConfig{Model: "test-model"})
	require.NoError(t, err)

	response, err := client.Complete(context.Background(), "prompt", nil)
	require.NoError(t, err)
	assert.Equal(t, "hello", response)
	assert.Equal(t, "test-model", client.GetModel())
}

func TestNewClient_Validation(t *testing.T) {
	_, err := NewClient("openai", ClientConfig{})
	assert.ErrorContains(t, err, "model is required")

	_, err = NewClient("no-such-provider", ClientConfig{Model: "m"})
	assert.ErrorContains(t, err, "unknown provider")
}

func TestClient_EstimateTokens(t *testing.T) {
	RegisterProviderFactory("fake-estimate", func(config ClientConfig) (CoreLLM, error) {
		return &fakeCore{model: config.Model}, nil
	})

	client, err := NewClient("fake-estimate", ClientConfig{Model: "m"})
	require.NoError(t, err)

	tokens, err := client.EstimateTokens("0123456789ab")
	require.NoError(t, err)
	assert.Equal(t, 3, tokens)
}

func TestRetryMiddleware_RetriesTransientErrors(t *testing.T) {
	t.Parallel()

	transient := &ProviderError{Type: ErrorTypeServerError, Provider: "fake", StatusCode: 503}
	core := &fakeCore{response: "ok", errs: []error{transient, transient}}

	wrapped := RetryMiddleware(3, time.Millisecond, 10*time.Millisecond)(core)
	response, _, _, err := wrapped.DoRequest(context.Background(), "prompt", nil)

	require.NoError(t, err)
	assert.Equal(t, "ok", response)
	assert.Equal(t, 3, core.callCount())
}

func TestRetryMiddleware_DoesNotRetryPermanentErrors(t *testing.T) {
	t.Parallel()

	permanent := &ProviderError{Type: ErrorTypeAuthentication, Provider: "fake", StatusCode: 401}
	core := &fakeCore{errs: []error{permanent}}

	wrapped := RetryMiddleware(3, time.Millisecond, 10*time.Millisecond)(core)
	_, _, _, err := wrapped.DoRequest(context.Background(), "prompt", nil)

	require.Error(t, err)
	var providerErr *ProviderError
	assert.ErrorAs(t, err, &providerErr)
	assert.Equal(t, 1, core.callCount())
}

func TestRetryMiddleware_ExhaustsAttemptBudget(t *testing.T) {
	t.Parallel()

	transient := &ProviderError{Type: ErrorTypeNetwork, Provider: "fake"}
	core := &fakeCore{errs: []error{transient, transient, transient}}

	wrapped := RetryMiddleware(2, time.Millisecond, 10*time.Millisecond)(core)
	_, _, _, err := wrapped.DoRequest(context.Background(), "prompt", nil)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "after 3 attempts")
	assert.Equal(t, 3, core.callCount())
}

func TestTimeoutMiddleware(t *testing.T) {
	t.Parallel()

	core := &fakeCore{response: "slow", delay: 200 * time.Millisecond}
	wrapped := TimeoutMiddleware(20 * time.Millisecond)(core)

	_, _, _, err := wrapped.DoRequest(context.Background(), "prompt", nil)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.ErrorIs(t, err, ports.ErrTimeout)
}

func TestMiddleware_AppliedFirstOutermost(t *testing.T) {
	var order []string
	tag := func(name string) Middleware {
		return func(next CoreLLM) CoreLLM {
			return &taggingCore{next: next, name: name, order: &order}
		}
	}

	RegisterProviderFactory("fake-order", func(config ClientConfig) (CoreLLM, error) {
		return &fakeCore{model: config.Model, response: "ok"}, nil
	})

	client, err := NewClient("fake-order", ClientConfig{
		Model:      "m",
		Middleware: []Middleware{tag("outer"), tag("inner")},
	})
	require.NoError(t, err)

	_, err = client.Complete(context.Background(), "prompt", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"outer", "inner"}, order)
}

type taggingCore struct {
	next  CoreLLM
	name  string
	order *[]string
}

func (c *taggingCore) DoRequest(ctx context.Context, prompt string, opts map[string]any) (string, int, int, error) {
	*c.order = append(*c.order, c.name)
	return c.next.DoRequest(ctx, prompt, opts)
}

func (c *taggingCore) GetModel() string { return c.next.GetModel() }

func (c *taggingCore) SetModel(m string) { c.next.SetModel(m) }

func TestProviderError(t *testing.T) {
	t.Parallel()

	err := &ProviderError{
		Type:       ErrorTypeRateLimit,
		Provider:   "openai",
		StatusCode: 429,
		Message:    "slow down",
	}
	assert.True(t, err.IsRetryable())
	assert.Contains(t, err.Error(), "openai")
	assert.Contains(t, err.Error(), "429")
	assert.Contains(t, err.Error(), "slow down")

	assert.False(t, (&ProviderError{Type: ErrorTypeBadRequest}).IsRetryable())
	assert.False(t, (&ProviderError{Type: ErrorTypeAuthentication}).IsRetryable())
}

func TestProviderError_MatchesPortSentinels(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		errType  ErrorType
		sentinel error
	}{
		{"rate limit", ErrorTypeRateLimit, ports.ErrRateLimited},
		{"timeout", ErrorTypeTimeout, ports.ErrTimeout},
		{"authentication", ErrorTypeAuthentication, ports.ErrAuthenticationFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := &ProviderError{Type: tt.errType, Provider: "fake"}
			assert.ErrorIs(t, err, tt.sentinel)
		})
	}

	// Unrelated sentinels must not match through the mapping.
	err := &ProviderError{Type: ErrorTypeBadRequest, Provider: "fake"}
	assert.NotErrorIs(t, err, ports.ErrRateLimited)
	assert.NotErrorIs(t, err, ports.ErrTimeout)
}

func TestClassifyHTTPStatus(t *testing.T) {
	t.Parallel()

	tests := []struct {
		status int
		want   ErrorType
	}{
		{401, ErrorTypeAuthentication},
		{403, ErrorTypeAuthentication},
		{429, ErrorTypeRateLimit},
		{400, ErrorTypeBadRequest},
		{404, ErrorTypeBadRequest},
		{500, ErrorTypeServerError},
		{503, ErrorTypeServerError},
		{200, ErrorTypeUnknown},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ClassifyHTTPStatus(tt.status), "status %d", tt.status)
	}
}
