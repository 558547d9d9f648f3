// Package rag answers questions over the indexed document chunks using
// retrieval-augmented generation.
package rag

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"go.uber.org/zap"

	"github.com/Balavardhanreddysheelam/Medical-rag-agent/internal/vectorstore"
)

// promptTemplate grounds the model in the retrieved context and tells it
// not to invent answers outside of it.
const promptTemplate = `You are a helpful medical assistant. Use the following pieces of redacted context to answer the question at the end.
If you don't know the answer, just say that you don't know, don't try to make up an answer.

Context:
%s

Question: %s

Answer:`

var (
	// ErrEmptyQuery indicates an empty question.
	ErrEmptyQuery = errors.New("query cannot be empty")

	// ErrRetrievalFailed indicates the retrieval stage failed.
	ErrRetrievalFailed = errors.New("retrieval failed")
)

// queryEmbedder is the subset of embeddings.Provider the service needs.
type queryEmbedder interface {
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// searcher is the subset of vectorstore.Store the service needs.
type searcher interface {
	Search(ctx context.Context, vector []float32, k int) ([]vectorstore.ScoredChunk, error)
}

// Service retrieves relevant chunks and streams a generated answer.
type Service struct {
	embedder    queryEmbedder
	store       searcher
	llm         llms.Model
	topK        int
	temperature float64
	logger      *zap.Logger
}

// NewService creates the query service. topK bounds how many chunks are
// retrieved per question.
func NewService(embedder queryEmbedder, store searcher, llm llms.Model, topK int, temperature float64, logger *zap.Logger) *Service {
	if topK <= 0 {
		topK = 3
	}
	return &Service{
		embedder:    embedder,
		store:       store,
		llm:         llm,
		topK:        topK,
		temperature: temperature,
		logger:      logger,
	}
}

// Answer retrieves context for the question and starts streaming a
// generated answer. The returned Stream yields fragments as the model
// produces them; cancelling ctx aborts generation.
//
// An empty index is not an error: the prompt is rendered with empty
// context and the model answers from that.
func (s *Service) Answer(ctx context.Context, question string) (*Stream, error) {
	if strings.TrimSpace(question) == "" {
		return nil, ErrEmptyQuery
	}

	vector, err := s.embedder.EmbedQuery(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("%w: embedding query: %v", ErrRetrievalFailed, err)
	}

	chunks, err := s.store.Search(ctx, vector, s.topK)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRetrievalFailed, err)
	}

	s.logger.Debug("retrieved context",
		zap.Int("chunks", len(chunks)),
		zap.Int("top_k", s.topK))

	prompt := fmt.Sprintf(promptTemplate, buildContext(chunks), question)
	return s.generate(ctx, prompt), nil
}

// buildContext joins chunk texts with blank lines, preserving the
// similarity ranking order.
func buildContext(chunks []vectorstore.ScoredChunk) string {
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}
	return strings.Join(texts, "\n\n")
}

// generate starts the model call in the background and returns a Stream
// fed by the model's streaming callback.
func (s *Service) generate(ctx context.Context, prompt string) *Stream {
	stream := newStream()
	go func() {
		defer stream.finish()

		_, err := llms.GenerateFromSinglePrompt(ctx, s.llm, prompt,
			llms.WithTemperature(s.temperature),
			llms.WithStreamingFunc(func(ctx context.Context, chunk []byte) error {
				return stream.push(ctx, string(chunk))
			}),
		)
		if err != nil {
			stream.fail(fmt.Errorf("generating answer: %w", err))
		}
	}()
	return stream
}
