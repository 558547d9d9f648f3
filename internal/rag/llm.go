package rag

import (
	"fmt"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/Balavardhanreddysheelam/Medical-rag-agent/internal/config"
)

// NewLLM creates the chat model client. Any OpenAI-compatible endpoint
// works; the default configuration points BaseURL at Groq.
func NewLLM(cfg config.LLMConfig) (llms.Model, error) {
	if !cfg.APIKey.IsSet() {
		return nil, fmt.Errorf("llm: API key required")
	}

	opts := []openai.Option{
		openai.WithToken(cfg.APIKey.Value()),
		openai.WithModel(cfg.Model),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
	}

	llm, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("llm: creating client: %w", err)
	}
	return llm, nil
}
