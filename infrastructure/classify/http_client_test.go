package classify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahrav/go-scrutiny/internal/ports"
)

func TestScore(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/score", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req scoreRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "does the answer meet the objective?", req.Instruction)
		assert.Equal(t, "yes it does", req.Response)

		_ = json.NewEncoder(w).Encode(scoreResponse{Score: 1.42})
	}))
	defer srv.Close()

	client, err := NewHTTPClient(srv.URL)
	require.NoError(t, err)

	score, err := client.Score(context.Background(), "does the answer meet the objective?", "yes it does")
	require.NoError(t, err)
	assert.Equal(t, 1.42, score)
}

func TestScore_NegativeLogit(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(scoreResponse{Score: -3.7})
	}))
	defer srv.Close()

	client, err := NewHTTPClient(srv.URL)
	require.NoError(t, err)

	score, err := client.Score(context.Background(), "instruction", "response")
	require.NoError(t, err)
	assert.Equal(t, -3.7, score)
}

func TestScore_ServerError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not loaded", http.StatusInternalServerError)
	}))
	defer srv.Close()

	client, err := NewHTTPClient(srv.URL)
	require.NoError(t, err)

	_, err = client.Score(context.Background(), "instruction", "response")
	require.ErrorIs(t, err, ports.ErrInvalidResponse)
	assert.Contains(t, err.Error(), "500")
	assert.Contains(t, err.Error(), "model not loaded")
}

func TestScore_MalformedBody(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("not json"))
	}))
	defer srv.Close()

	client, err := NewHTTPClient(srv.URL)
	require.NoError(t, err)

	_, err = client.Score(context.Background(), "instruction", "response")
	assert.ErrorIs(t, err, ports.ErrInvalidResponse)
}

func TestScore_ServiceDown(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	client, err := NewHTTPClient(srv.URL)
	require.NoError(t, err)

	_, err = client.Score(context.Background(), "instruction", "response")
	assert.ErrorIs(t, err, ports.ErrBackendUnavailable)
}

func TestScore_ContextCancelled(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	client, err := NewHTTPClient(srv.URL)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = client.Score(ctx, "instruction", "response")
	assert.Error(t, err)
}

func TestNewHTTPClient_EmptyURL(t *testing.T) {
	t.Parallel()

	_, err := NewHTTPClient("")
	assert.Error(t, err)
}
