package embeddings

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRemoteTestServer(t *testing.T, handler http.HandlerFunc) (*httptest.Server, *RemoteProvider) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	p, err := NewRemoteProvider(RemoteConfig{
		BaseURL: srv.URL,
		Model:   "sentence-transformers/all-MiniLM-L6-v2",
		APIKey:  "test-key",
	})
	require.NoError(t, err)
	return srv, p
}

func TestNewRemoteProviderValidation(t *testing.T) {
	_, err := NewRemoteProvider(RemoteConfig{APIKey: "k"})
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, err = NewRemoteProvider(RemoteConfig{Model: "m"})
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestRemoteEmbedDocuments(t *testing.T) {
	var gotPath, gotAuth string
	var gotBody remoteRequest

	_, p := newRemoteTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

		vectors := make([][]float32, len(gotBody.Inputs))
		for i := range vectors {
			vectors[i] = []float32{float32(i), 0.5}
		}
		json.NewEncoder(w).Encode(vectors)
	})

	vectors, err := p.EmbedDocuments(context.Background(), []string{"first chunk", "second chunk"})
	require.NoError(t, err)

	assert.Equal(t, "/models/sentence-transformers/all-MiniLM-L6-v2", gotPath)
	assert.Equal(t, "Bearer test-key", gotAuth)
	assert.Equal(t, []string{"first chunk", "second chunk"}, gotBody.Inputs)
	assert.True(t, gotBody.Options.WaitForModel)

	require.Len(t, vectors, 2)
	assert.Equal(t, []float32{0, 0.5}, vectors[0])
	assert.Equal(t, []float32{1, 0.5}, vectors[1])
}

func TestRemoteEmbedQuery(t *testing.T) {
	_, p := newRemoteTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([][]float32{{0.1, 0.2, 0.3}})
	})

	vector, err := p.EmbedQuery(context.Background(), "what is the diagnosis")
	require.NoError(t, err)
	assert.Equal(t, []float32{0.1, 0.2, 0.3}, vector)
}

func TestRemoteEmptyInput(t *testing.T) {
	_, p := newRemoteTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request expected for empty input")
	})

	_, err := p.EmbedDocuments(context.Background(), nil)
	assert.ErrorIs(t, err, ErrEmptyInput)

	_, err = p.EmbedQuery(context.Background(), "")
	assert.ErrorIs(t, err, ErrEmptyInput)
}

func TestRemoteServerError(t *testing.T) {
	_, p := newRemoteTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"model too busy"}`, http.StatusServiceUnavailable)
	})

	_, err := p.EmbedDocuments(context.Background(), []string{"text"})
	require.ErrorIs(t, err, ErrEmbeddingFailed)
	assert.Contains(t, err.Error(), "503")
}

func TestRemoteVectorCountMismatch(t *testing.T) {
	_, p := newRemoteTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([][]float32{{0.1}})
	})

	_, err := p.EmbedDocuments(context.Background(), []string{"one", "two"})
	assert.ErrorIs(t, err, ErrEmbeddingFailed)
}
