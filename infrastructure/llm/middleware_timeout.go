package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ahrav/go-scrutiny/internal/ports"
)

// timeoutLLM enforces a per-request deadline so verification workers never
// block indefinitely on a hung backend.
type timeoutLLM struct {
	next    CoreLLM
	timeout time.Duration
}

// TimeoutMiddleware creates middleware that enforces request timeouts.
func TimeoutMiddleware(timeout time.Duration) Middleware {
	return func(next CoreLLM) CoreLLM {
		return &timeoutLLM{next: next, timeout: timeout}
	}
}

// DoRequest executes the request with a timeout context. Deadline hits are
// tagged with ports.ErrTimeout so callers can match them without inspecting
// context internals.
func (t *timeoutLLM) DoRequest(ctx context.Context, prompt string, opts map[string]any) (string, int, int, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	resp, in, out, err := t.next.DoRequest(ctx, prompt, opts)
	if err != nil && errors.Is(err, context.DeadlineExceeded) {
		return resp, in, out, fmt.Errorf("%w: %w", ports.ErrTimeout, err)
	}
	return resp, in, out, err
}

// GetModel returns the model name from the wrapped implementation.
func (t *timeoutLLM) GetModel() string { return t.next.GetModel() }

// SetModel updates the model name in the wrapped implementation.
func (t *timeoutLLM) SetModel(m string) { t.next.SetModel(m) }
