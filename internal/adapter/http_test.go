package adapter_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feral-file/pkp-indexer/internal/adapter"
)

func fastRetry() adapter.RetryConfig {
	return adapter.RetryConfig{
		InitialInterval: time.Millisecond,
		MaxInterval:     5 * time.Millisecond,
		MaxElapsedTime:  time.Second,
	}
}

func TestRealHTTPClient_GetBytes(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "secret", r.Header.Get("X-DUNE-API-KEY"))
		_, _ = w.Write([]byte("blockchain,network\n"))
	}))
	defer server.Close()

	client := adapter.NewHTTPClientWithRetry(5*time.Second, fastRetry())
	body, err := client.GetBytes(context.Background(), server.URL, map[string]string{"X-DUNE-API-KEY": "secret"})

	require.NoError(t, err)
	assert.Equal(t, "blockchain,network\n", string(body))
}

func TestRealHTTPClient_PostBytes_RetriesRateLimitWithSameBody(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		assert.NoError(t, err)
		assert.Equal(t, `{"a":1}`, string(body))
		assert.Equal(t, "application/x-ndjson", r.Header.Get("Content-Type"))

		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"rows_written":1}`))
	}))
	defer server.Close()

	client := adapter.NewHTTPClientWithRetry(5*time.Second, fastRetry())
	body, err := client.PostBytes(context.Background(), server.URL,
		map[string]string{"Content-Type": "application/x-ndjson"}, []byte(`{"a":1}`))

	require.NoError(t, err)
	assert.Equal(t, `{"rows_written":1}`, string(body))
	assert.Equal(t, int32(3), calls.Load())
}

func TestRealHTTPClient_NonRetryableStatus(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"bad table"}`))
	}))
	defer server.Close()

	client := adapter.NewHTTPClientWithRetry(5*time.Second, fastRetry())
	_, err := client.PostBytes(context.Background(), server.URL, nil, nil)

	require.Error(t, err)
	var statusErr *adapter.HTTPStatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusBadRequest, statusErr.StatusCode)
	assert.Contains(t, statusErr.Body, "bad table")
	assert.Equal(t, int32(1), calls.Load())
}

func TestRealHTTPClient_ContextCanceled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := adapter.NewHTTPClientWithRetry(5*time.Second, fastRetry())
	_, err := client.GetBytes(ctx, server.URL, nil)
	assert.Error(t, err)
}
