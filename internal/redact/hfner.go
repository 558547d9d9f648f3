package redact

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"
)

const defaultHFBaseURL = "https://api-inference.huggingface.co"

// HFRecognizerConfig holds configuration for the hosted NER recognizer.
type HFRecognizerConfig struct {
	// Model is the token-classification model, e.g. dslim/bert-base-NER.
	Model string

	// BaseURL overrides the inference API endpoint (for tests or a
	// self-hosted deployment).
	BaseURL string

	// APIKey is the inference API token.
	APIKey string
}

// HFRecognizer recognizes entities via the Hugging Face inference API's
// token-classification pipeline.
//
// The first call may find the model not yet loaded on the inference side;
// the recognizer asks the API to load it (wait_for_model) and retries once
// after the reported warm-up estimate. This is a one-time initialization
// cost, not a per-call retry: once a call has succeeded, failures are
// surfaced immediately.
type HFRecognizer struct {
	config HFRecognizerConfig
	client *http.Client

	mu     sync.Mutex
	warmed bool
}

// NewHFRecognizer creates a recognizer for the configured model.
func NewHFRecognizer(cfg HFRecognizerConfig) *HFRecognizer {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultHFBaseURL
	}
	return &HFRecognizer{
		config: cfg,
		client: &http.Client{},
	}
}

// nerRequest is the token-classification request body.
type nerRequest struct {
	Inputs     string     `json:"inputs"`
	Options    apiOptions `json:"options"`
	Parameters struct {
		AggregationStrategy string `json:"aggregation_strategy"`
	} `json:"parameters"`
}

type apiOptions struct {
	WaitForModel bool `json:"wait_for_model"`
}

// nerEntity is one entity in the token-classification response.
type nerEntity struct {
	EntityGroup string  `json:"entity_group"`
	Score       float64 `json:"score"`
	Word        string  `json:"word"`
	Start       int     `json:"start"`
	End         int     `json:"end"`
}

// loadingError is the API's "model is loading" response body.
type loadingError struct {
	Error         string  `json:"error"`
	EstimatedTime float64 `json:"estimated_time"`
}

// Recognize runs the NER pipeline over text.
func (r *HFRecognizer) Recognize(ctx context.Context, text string) ([]Entity, error) {
	body, status, err := r.call(ctx, text)
	if err != nil {
		return nil, err
	}

	if status == http.StatusServiceUnavailable && !r.isWarmed() {
		// Model not loaded yet. Wait out the reported estimate once,
		// then retry.
		var loading loadingError
		wait := 10 * time.Second
		if json.Unmarshal(body, &loading) == nil && loading.EstimatedTime > 0 {
			wait = time.Duration(loading.EstimatedTime * float64(time.Second))
		}
		if wait > time.Minute {
			wait = time.Minute
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(wait):
		}
		body, status, err = r.call(ctx, text)
		if err != nil {
			return nil, err
		}
	}

	if status != http.StatusOK {
		return nil, fmt.Errorf("ner api status %d: %s", status, string(body))
	}
	r.setWarmed()

	var raw []nerEntity
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("decoding ner response: %w", err)
	}

	entities := make([]Entity, 0, len(raw))
	for _, e := range raw {
		entities = append(entities, Entity{
			Label: e.EntityGroup,
			Start: e.Start,
			End:   e.End,
		})
	}
	return entities, nil
}

func (r *HFRecognizer) call(ctx context.Context, text string) ([]byte, int, error) {
	req := nerRequest{Inputs: text, Options: apiOptions{WaitForModel: true}}
	req.Parameters.AggregationStrategy = "simple"

	payload, err := json.Marshal(req)
	if err != nil {
		return nil, 0, fmt.Errorf("marshaling ner request: %w", err)
	}

	url := r.config.BaseURL + "/models/" + r.config.Model
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, 0, fmt.Errorf("creating ner request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if r.config.APIKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+r.config.APIKey)
	}

	resp, err := r.client.Do(httpReq)
	if err != nil {
		return nil, 0, fmt.Errorf("calling ner api: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, fmt.Errorf("reading ner response: %w", err)
	}
	return body, resp.StatusCode, nil
}

func (r *HFRecognizer) isWarmed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.warmed
}

func (r *HFRecognizer) setWarmed() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.warmed = true
}
