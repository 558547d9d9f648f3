package redact

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newNERTestServer(t *testing.T, handler http.HandlerFunc) *HFRecognizer {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return NewHFRecognizer(HFRecognizerConfig{
		Model:   "dslim/bert-base-NER",
		BaseURL: srv.URL,
		APIKey:  "test-key",
	})
}

func TestHFRecognize(t *testing.T) {
	var gotPath, gotAuth string
	var gotBody nerRequest

	rec := newNERTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

		json.NewEncoder(w).Encode([]nerEntity{
			{EntityGroup: "PER", Score: 0.99, Word: "Jane Doe", Start: 11, End: 19},
			{EntityGroup: "LOC", Score: 0.97, Word: "Boston", Start: 34, End: 40},
		})
	})

	entities, err := rec.Recognize(context.Background(), "Patient is Jane Doe, admitted in Boston.")
	require.NoError(t, err)

	assert.Equal(t, "/models/dslim/bert-base-NER", gotPath)
	assert.Equal(t, "Bearer test-key", gotAuth)
	assert.Equal(t, "Patient is Jane Doe, admitted in Boston.", gotBody.Inputs)
	assert.True(t, gotBody.Options.WaitForModel)
	assert.Equal(t, "simple", gotBody.Parameters.AggregationStrategy)

	require.Len(t, entities, 2)
	assert.Equal(t, Entity{Label: "PER", Start: 11, End: 19}, entities[0])
	assert.Equal(t, Entity{Label: "LOC", Start: 34, End: 40}, entities[1])
}

func TestHFRecognizeWarmupRetry(t *testing.T) {
	var calls int
	rec := newNERTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			json.NewEncoder(w).Encode(loadingError{Error: "model is loading", EstimatedTime: 0.01})
			return
		}
		json.NewEncoder(w).Encode([]nerEntity{{EntityGroup: "PER", Start: 0, End: 4}})
	})

	entities, err := rec.Recognize(context.Background(), "Jane was seen today.")
	require.NoError(t, err)
	assert.Equal(t, 2, calls, "loading response must trigger exactly one retry")
	require.Len(t, entities, 1)
}

func TestHFRecognizeNoRetryOnceWarmed(t *testing.T) {
	var calls int
	rec := newNERTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls <= 1 {
			json.NewEncoder(w).Encode([]nerEntity{})
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
		json.NewEncoder(w).Encode(loadingError{Error: "overloaded"})
	})

	_, err := rec.Recognize(context.Background(), "first call warms the model")
	require.NoError(t, err)

	_, err = rec.Recognize(context.Background(), "second call fails fast")
	require.Error(t, err)
	assert.Equal(t, 2, calls, "no warmup retry after a successful call")
}

func TestHFRecognizeServerError(t *testing.T) {
	rec := newNERTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"invalid token"}`, http.StatusUnauthorized)
	})

	_, err := rec.Recognize(context.Background(), "text")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}
