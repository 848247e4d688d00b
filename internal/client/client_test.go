package client

import (
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPingWithRetry_ImmediateSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	if err := pingWithRetry(c); err != nil {
		t.Fatalf("pingWithRetry failed on immediate success: %v", err)
	}
}

func TestPingWithRetry_SucceedsAfterFailures(t *testing.T) {
	var calls atomic.Int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := calls.Add(1)
		if n < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	if err := c.WaitReady(); err != nil {
		t.Fatalf("pingWithRetry failed: %v (calls=%d)", err, calls.Load())
	}
	if calls.Load() < 3 {
		t.Fatalf("expected at least 3 calls, got %d", calls.Load())
	}
}

func TestPingWithRetry_AllFail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	err := pingWithRetry(c)
	if err == nil {
		t.Fatal("expected error when all pings fail")
	}
}

func TestTypedCalls(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v0/version", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"version":"1.0.0","gitCommit":"abc","buildTime":"now"}`))
	})
	mux.HandleFunc("/v0/providers", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"providers":[{"id":"dynamo","name":"NVIDIA Dynamo"}],"count":1}`))
	})
	mux.HandleFunc("/v0/deployments/plan", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		w.Header().Set("Content-Type", "application/problem+json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"title":"Bad Request","detail":"Invalid deployment request","errors":[{"message":"modelId is required"}]}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := NewClient(srv.URL + "/")

	v, err := c.GetVersion()
	require.NoError(t, err)
	assert.Equal(t, "abc", v.GitCommit)

	list, err := c.ListProviders()
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "dynamo", list[0].ID)

	_, err = c.Plan([]byte(`{"provider":"dynamo"}`))
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Equal(t, []string{"modelId is required"}, apiErr.Errors)
	assert.Contains(t, err.Error(), "Invalid deployment request")
}
