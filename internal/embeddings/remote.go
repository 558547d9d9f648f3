package embeddings

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const defaultRemoteBaseURL = "https://api-inference.huggingface.co"

// RemoteConfig holds configuration for the hosted inference provider.
type RemoteConfig struct {
	// BaseURL is the inference API root. Defaults to the Hugging Face
	// hosted endpoint.
	BaseURL string

	// Model is the feature-extraction model name.
	Model string

	// APIKey is the bearer token for the inference API.
	APIKey string

	// Dimension overrides the detected output dimension when positive.
	Dimension int
}

// RemoteProvider generates embeddings through the Hugging Face inference
// API's feature-extraction pipeline.
type RemoteProvider struct {
	config    RemoteConfig
	client    *http.Client
	dimension int
}

// NewRemoteProvider creates a provider backed by the hosted inference API.
func NewRemoteProvider(cfg RemoteConfig) (*RemoteProvider, error) {
	if cfg.Model == "" {
		return nil, fmt.Errorf("%w: model required", ErrInvalidConfig)
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: API key required for remote provider", ErrInvalidConfig)
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultRemoteBaseURL
	}
	dimension := cfg.Dimension
	if dimension <= 0 {
		dimension = detectDimension(cfg.Model)
	}

	return &RemoteProvider{
		config:    cfg,
		client:    &http.Client{Timeout: 60 * time.Second},
		dimension: dimension,
	}, nil
}

// remoteRequest is the feature-extraction request body. wait_for_model makes
// the API block until a cold model is loaded instead of returning 503.
type remoteRequest struct {
	Inputs  []string      `json:"inputs"`
	Options remoteOptions `json:"options"`
}

type remoteOptions struct {
	WaitForModel bool `json:"wait_for_model"`
}

// EmbedDocuments generates embeddings for multiple texts in one call.
func (p *RemoteProvider) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, fmt.Errorf("%w: texts cannot be empty", ErrEmptyInput)
	}

	vectors, err := p.embed(ctx, texts)
	if err != nil {
		return nil, err
	}
	if len(vectors) != len(texts) {
		return nil, fmt.Errorf("%w: got %d vectors for %d texts", ErrEmbeddingFailed, len(vectors), len(texts))
	}
	return vectors, nil
}

// EmbedQuery generates an embedding for a single query.
func (p *RemoteProvider) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, fmt.Errorf("%w: text cannot be empty", ErrEmptyInput)
	}

	vectors, err := p.embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vectors) == 0 {
		return nil, fmt.Errorf("%w: empty response", ErrEmbeddingFailed)
	}
	return vectors[0], nil
}

func (p *RemoteProvider) embed(ctx context.Context, texts []string) ([][]float32, error) {
	body, err := json.Marshal(remoteRequest{
		Inputs:  texts,
		Options: remoteOptions{WaitForModel: true},
	})
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s", p.config.BaseURL, p.config.Model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.config.APIKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEmbeddingFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("%w: status %d: %s", ErrEmbeddingFailed, resp.StatusCode, string(respBody))
	}

	var vectors [][]float32
	if err := json.NewDecoder(resp.Body).Decode(&vectors); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	return vectors, nil
}

// Dimension returns the embedding dimension for the configured model.
func (p *RemoteProvider) Dimension() int {
	return p.dimension
}

// Close is a no-op for the HTTP-backed provider.
func (p *RemoteProvider) Close() error {
	return nil
}
