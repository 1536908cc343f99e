package rest

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/tunegrid/internal/optimizer"
	"github.com/vk/tunegrid/internal/tunable"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := New(Config{
		BaseURL:      srv.URL + "/",
		Token:        "secret",
		RetryMax:     2,
		RetryWaitMin: time.Millisecond,
		RetryWaitMax: 5 * time.Millisecond,
	})
	require.NoError(t, err)
	return c
}

func TestClient_CreateExperiment(t *testing.T) {
	// --- Arrange ---
	params := []tunable.Descriptor{
		{Name: "a", Type: tunable.TypeInt, Bounds: &tunable.Bounds{Min: 1, Max: 10}},
		{Name: "b", Type: tunable.TypeCategorical, CategoricalValues: []string{"x", "y"}},
	}
	var got createExperimentRequest
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/experiments", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "secret", user)
		assert.Empty(t, pass)

		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":                 "exp-1",
			"name":               got.Name,
			"observation_budget": got.ObservationBudget,
			"parameters":         got.Parameters,
		})
	}))

	// --- Act ---
	exp, err := c.CreateExperiment(context.Background(), "binder", 20, params)

	// --- Assert ---
	require.NoError(t, err)
	assert.Equal(t, "exp-1", exp.ID)
	assert.Equal(t, 20, exp.Budget)
	if diff := cmp.Diff(params, got.Parameters); diff != "" {
		t.Errorf("parameters sent mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(params, exp.Parameters); diff != "" {
		t.Errorf("parameters returned mismatch (-want +got):\n%s", diff)
	}
}

func TestClient_SuggestionObservationProgress(t *testing.T) {
	var observed optimizer.Observation
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/experiments/exp-1/suggestions", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id": "s-1", "assignments": {"a": 7, "rate": 0.25, "b": "y"}}`))
	})
	mux.HandleFunc("POST /v1/experiments/exp-1/observations", func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&observed))
		w.WriteHeader(http.StatusCreated)
	})
	mux.HandleFunc("GET /v1/experiments/exp-1", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id": "exp-1", "observation_budget": 5, "progress": {"observation_count": 3}}`))
	})
	c := newTestClient(t, mux)
	ctx := context.Background()

	s, err := c.CreateSuggestion(ctx, "exp-1")
	require.NoError(t, err)
	assert.Equal(t, "s-1", s.ID)
	assert.Equal(t, tunable.Assignment{"a": int64(7), "rate": 0.25, "b": "y"}, s.Assignment)

	require.NoError(t, c.CreateObservation(ctx, "exp-1", optimizer.Succeeded("s-1", 0.75)))
	assert.Equal(t, "s-1", observed.SuggestionID)
	require.NotNil(t, observed.Value)
	assert.Equal(t, 0.75, *observed.Value)
	assert.False(t, observed.Failed)

	progress, err := c.FetchProgress(ctx, "exp-1")
	require.NoError(t, err)
	assert.Equal(t, &optimizer.Progress{ObservationCount: 3, Budget: 5}, progress)
	assert.Equal(t, 2, progress.Remaining())
}

func TestClient_RetriesTransientFailures(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"id": "exp-1", "observation_budget": 1}`))
	}))

	progress, err := c.FetchProgress(context.Background(), "exp-1")
	require.NoError(t, err)
	assert.Equal(t, 1, progress.Budget)
	assert.Equal(t, int32(3), calls.Load())
}

func TestClient_APIErrors(t *testing.T) {
	testCases := []struct {
		name          string
		status        int
		body          string
		wantMessage   string
		wantTemporary bool
		wantCalls     int32
	}{
		{name: "json message", status: http.StatusBadRequest, body: `{"message": "bounds are invalid"}`, wantMessage: "bounds are invalid", wantCalls: 1},
		{name: "plain body", status: http.StatusNotFound, body: "no such experiment\n", wantMessage: "no such experiment", wantCalls: 1},
		{name: "server error after retries", status: http.StatusInternalServerError, body: "", wantTemporary: true, wantCalls: 3},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var calls atomic.Int32
			c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				calls.Add(1)
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			}))

			_, err := c.CreateSuggestion(context.Background(), "exp-1")

			var apiErr *APIError
			require.True(t, errors.As(err, &apiErr), "expected *APIError, got %v", err)
			assert.Equal(t, tc.status, apiErr.StatusCode)
			assert.Equal(t, tc.wantMessage, apiErr.Message)
			assert.Equal(t, tc.wantTemporary, apiErr.Temporary())
			assert.Equal(t, "/v1/experiments/exp-1/suggestions", apiErr.Path)
			assert.Equal(t, tc.wantCalls, calls.Load())
		})
	}
}

func TestClient_MissingExperimentID(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))

	_, err := c.CreateExperiment(context.Background(), "x", 1, nil)
	require.ErrorContains(t, err, "response carries no id")
}

func TestNew_Validation(t *testing.T) {
	_, err := New(Config{})
	require.ErrorContains(t, err, "URL is required")

	_, err = New(Config{BaseURL: "ftp://example.com"})
	require.ErrorContains(t, err, "must use http or https")

	c, err := New(Config{BaseURL: "https://api.example.com/", RetryMax: -1})
	require.NoError(t, err)
	assert.Equal(t, 0, c.http.RetryMax)
}
