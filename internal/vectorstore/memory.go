package vectorstore

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	chromem "github.com/philippgille/chromem-go"
)

// MemoryStore is an in-process Store backed by chromem-go. It keeps the
// whole index in memory, so it only suits development and tests.
type MemoryStore struct {
	db         *chromem.DB
	collection *chromem.Collection
	name       string
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore(collection string) (*MemoryStore, error) {
	if collection == "" {
		return nil, fmt.Errorf("%w: collection name required", ErrInvalidConfig)
	}
	store := &MemoryStore{db: chromem.NewDB(), name: collection}
	if err := store.EnsureCollection(context.Background()); err != nil {
		return nil, err
	}
	return store, nil
}

// EnsureCollection creates the collection if missing.
func (s *MemoryStore) EnsureCollection(_ context.Context) error {
	// Embeddings are always supplied by the caller, so the collection's
	// embedding func must never run.
	collection, err := s.db.GetOrCreateCollection(s.name, nil, noEmbeddingFunc)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrOperationFailed, err)
	}
	s.collection = collection
	return nil
}

func noEmbeddingFunc(_ context.Context, _ string) ([]float32, error) {
	return nil, errors.New("embedding func must not be called, embeddings are precomputed")
}

// Upsert adds points to the in-memory collection. chromem overwrites
// documents with the same ID.
func (s *MemoryStore) Upsert(ctx context.Context, points []Point) error {
	for _, p := range points {
		doc := chromem.Document{
			ID:        p.ID,
			Content:   p.Payload.Text,
			Embedding: p.Vector,
			Metadata: map[string]string{
				"source":      p.Payload.Source,
				"chunk_index": strconv.Itoa(p.Payload.ChunkIndex),
			},
		}
		if err := s.collection.AddDocument(ctx, doc); err != nil {
			return fmt.Errorf("%w: %v", ErrOperationFailed, err)
		}
	}
	return nil
}

// Search returns up to k most similar chunks. chromem rejects result counts
// above the collection size, so k is clamped first.
func (s *MemoryStore) Search(ctx context.Context, vector []float32, k int) ([]ScoredChunk, error) {
	count := s.collection.Count()
	if count == 0 || k <= 0 {
		return nil, nil
	}
	if k > count {
		k = count
	}

	results, err := s.collection.QueryEmbedding(ctx, vector, k, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOperationFailed, err)
	}

	chunks := make([]ScoredChunk, 0, len(results))
	for _, res := range results {
		index, _ := strconv.Atoi(res.Metadata["chunk_index"])
		chunks = append(chunks, ScoredChunk{
			Text:       res.Content,
			Source:     res.Metadata["source"],
			ChunkIndex: index,
			Score:      res.Similarity,
		})
	}
	return chunks, nil
}

// Close is a no-op for the in-memory store.
func (s *MemoryStore) Close() error {
	return nil
}
