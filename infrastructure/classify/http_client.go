// Package classify provides a client for a remote sequence-classification
// scoring service. The service wraps a Cappy-style binary classifier:
// given a paired (instruction, response) text input it returns the model's
// raw logit for the pair. Model loading and device placement live behind
// the service; this client only speaks its request/response contract.
//
// There is no SDK for this bespoke service, so the client is a thin
// net/http wrapper.
package classify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ahrav/go-scrutiny/internal/ports"
)

var _ ports.ClassifierClient = (*HTTPClient)(nil)

// DefaultTimeout bounds a single scoring request.
const DefaultTimeout = 30 * time.Second

// scoreRequest is the JSON body sent to the scoring endpoint.
type scoreRequest struct {
	Instruction string `json:"instruction"`
	Response    string `json:"response"`
}

// scoreResponse is the JSON body the scoring endpoint returns. Score is the
// classifier's raw logit, not a probability.
type scoreResponse struct {
	Score float64 `json:"score"`
}

// HTTPClient implements ports.ClassifierClient against a scoring service
// endpoint. It is stateless and safe for concurrent use.
type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
}

// ClientOption configures an HTTPClient.
type ClientOption func(*HTTPClient)

// WithHTTPClient overrides the underlying HTTP client, primarily for tests.
func WithHTTPClient(c *http.Client) ClientOption {
	return func(h *HTTPClient) { h.httpClient = c }
}

// NewHTTPClient creates a client for the scoring service at baseURL.
func NewHTTPClient(baseURL string, opts ...ClientOption) (*HTTPClient, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("classifier base URL cannot be empty")
	}

	client := &HTTPClient{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// Score posts the (instruction, response) pair to the scoring service and
// returns the model's scalar score.
func (h *HTTPClient) Score(ctx context.Context, instruction, response string) (float64, error) {
	body, err := json.Marshal(scoreRequest{Instruction: instruction, Response: response})
	if err != nil {
		return 0, fmt.Errorf("failed to encode score request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.baseURL+"/score", bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("failed to build score request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ports.ErrBackendUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return 0, fmt.Errorf("%w: scoring service returned HTTP %d: %s",
			ports.ErrInvalidResponse, resp.StatusCode, payload)
	}

	var parsed scoreResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return 0, fmt.Errorf("%w: %w", ports.ErrInvalidResponse, err)
	}

	return parsed.Score, nil
}
