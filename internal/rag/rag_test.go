package rag

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/schema"
	"go.uber.org/zap"

	"github.com/Balavardhanreddysheelam/Medical-rag-agent/internal/vectorstore"
)

type fakeEmbedder struct {
	err error
}

func (e *fakeEmbedder) EmbedQuery(_ context.Context, _ string) ([]float32, error) {
	if e.err != nil {
		return nil, e.err
	}
	return []float32{0.1, 0.2}, nil
}

type fakeSearcher struct {
	chunks []vectorstore.ScoredChunk
	err    error
	gotK   int
}

func (s *fakeSearcher) Search(_ context.Context, _ []float32, k int) ([]vectorstore.ScoredChunk, error) {
	s.gotK = k
	if s.err != nil {
		return nil, s.err
	}
	return s.chunks, nil
}

// fakeLLM streams fragments through the streaming callback, mirroring how
// a real model client behaves under llms.WithStreamingFunc.
type fakeLLM struct {
	fragments []string
	err       error
	gotPrompt string
}

func (f *fakeLLM) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	if len(messages) > 0 && len(messages[0].Parts) > 0 {
		if text, ok := messages[0].Parts[0].(llms.TextContent); ok {
			f.gotPrompt = text.Text
		}
	}
	if f.err != nil {
		return nil, f.err
	}

	opts := llms.CallOptions{}
	for _, o := range options {
		o(&opts)
	}

	var full strings.Builder
	for _, frag := range f.fragments {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		full.WriteString(frag)
		if opts.StreamingFunc != nil {
			if err := opts.StreamingFunc(ctx, []byte(frag)); err != nil {
				return nil, err
			}
		}
	}
	return &llms.ContentResponse{
		Choices: []*llms.ContentChoice{{Content: full.String()}},
	}, nil
}

func (f *fakeLLM) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	resp, err := f.GenerateContent(ctx, []llms.MessageContent{
		llms.TextParts(schema.ChatMessageTypeHuman, prompt),
	}, options...)
	if err != nil {
		return "", err
	}
	return resp.Choices[0].Content, nil
}

func collect(t *testing.T, stream *Stream) string {
	t.Helper()
	var b strings.Builder
	for frag := range stream.Fragments() {
		b.WriteString(frag)
	}
	return b.String()
}

func scoredChunks(texts ...string) []vectorstore.ScoredChunk {
	chunks := make([]vectorstore.ScoredChunk, len(texts))
	for i, text := range texts {
		chunks[i] = vectorstore.ScoredChunk{Text: text, Score: 1 - float32(i)*0.1}
	}
	return chunks
}

func TestAnswerStreamsFragments(t *testing.T) {
	store := &fakeSearcher{chunks: scoredChunks("first chunk", "second chunk", "third chunk")}
	llm := &fakeLLM{fragments: []string{"The patient ", "was stable."}}
	svc := NewService(&fakeEmbedder{}, store, llm, 3, 0, zap.NewNop())

	stream, err := svc.Answer(context.Background(), "How was the patient?")
	require.NoError(t, err)

	answer := collect(t, stream)
	assert.Equal(t, "The patient was stable.", answer)
	assert.NoError(t, stream.Err())

	assert.Equal(t, 3, store.gotK)
	assert.Contains(t, llm.gotPrompt, "first chunk\n\nsecond chunk\n\nthird chunk",
		"context must join chunks in rank order")
	assert.Contains(t, llm.gotPrompt, "Question: How was the patient?")
	assert.Contains(t, llm.gotPrompt, "helpful medical assistant")
}

func TestAnswerEmptyQuery(t *testing.T) {
	svc := NewService(&fakeEmbedder{}, &fakeSearcher{}, &fakeLLM{}, 3, 0, zap.NewNop())

	_, err := svc.Answer(context.Background(), "   ")
	assert.ErrorIs(t, err, ErrEmptyQuery)
}

func TestAnswerEmptyIndex(t *testing.T) {
	llm := &fakeLLM{fragments: []string{"I don't know."}}
	svc := NewService(&fakeEmbedder{}, &fakeSearcher{}, llm, 3, 0, zap.NewNop())

	stream, err := svc.Answer(context.Background(), "Any history of surgery?")
	require.NoError(t, err)

	assert.Equal(t, "I don't know.", collect(t, stream))
	assert.Contains(t, llm.gotPrompt, "Question: Any history of surgery?")
}

func TestAnswerRetrievalErrors(t *testing.T) {
	embedErr := errors.New("embedding offline")
	searchErr := errors.New("index offline")

	svc := NewService(&fakeEmbedder{err: embedErr}, &fakeSearcher{}, &fakeLLM{}, 3, 0, zap.NewNop())
	_, err := svc.Answer(context.Background(), "question")
	assert.ErrorIs(t, err, ErrRetrievalFailed)

	svc = NewService(&fakeEmbedder{}, &fakeSearcher{err: searchErr}, &fakeLLM{}, 3, 0, zap.NewNop())
	_, err = svc.Answer(context.Background(), "question")
	assert.ErrorIs(t, err, ErrRetrievalFailed)
}

func TestAnswerGenerationError(t *testing.T) {
	llm := &fakeLLM{err: errors.New("model unavailable")}
	svc := NewService(&fakeEmbedder{}, &fakeSearcher{}, llm, 3, 0, zap.NewNop())

	stream, err := svc.Answer(context.Background(), "question")
	require.NoError(t, err)

	assert.Empty(t, collect(t, stream))
	assert.Error(t, stream.Err())
}

func TestAnswerCancellationAbortsGeneration(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	llm := &fakeLLM{fragments: []string{"one ", "two ", "three"}}
	svc := NewService(&fakeEmbedder{}, &fakeSearcher{}, llm, 3, 0, zap.NewNop())

	stream, err := svc.Answer(ctx, "question")
	require.NoError(t, err)

	// Read one fragment, then walk away.
	<-stream.Fragments()
	cancel()
	for range stream.Fragments() {
	}

	assert.Error(t, stream.Err())
}

func TestNewServiceDefaultTopK(t *testing.T) {
	store := &fakeSearcher{}
	svc := NewService(&fakeEmbedder{}, store, &fakeLLM{fragments: []string{"ok"}}, 0, 0, zap.NewNop())

	stream, err := svc.Answer(context.Background(), "question")
	require.NoError(t, err)
	collect(t, stream)

	assert.Equal(t, 3, store.gotK)
}
