// Package vectorstore provides the vector index holding embedded document
// chunks.
//
// Two implementations exist: QdrantStore speaks gRPC to a Qdrant server and
// is the production backend; MemoryStore wraps an in-process chromem-go
// database for development and tests.
package vectorstore

import (
	"context"
	"errors"
)

var (
	// ErrInvalidConfig indicates invalid store configuration.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrConnectionFailed indicates the index server is unreachable.
	ErrConnectionFailed = errors.New("connection failed")

	// ErrOperationFailed indicates an index operation failure.
	ErrOperationFailed = errors.New("vector store operation failed")
)

// Payload is the metadata stored with each point.
type Payload struct {
	// Text is the verbatim chunk text.
	Text string

	// Source is the originating document's filename.
	Source string

	// ChunkIndex is the chunk's position within its document.
	ChunkIndex int
}

// Point is one embedded chunk ready for indexing.
type Point struct {
	// ID is a UUID string identifying the point. Re-upserting the same ID
	// overwrites the existing point.
	ID string

	// Vector is the chunk embedding.
	Vector []float32

	// Payload carries the chunk text and provenance.
	Payload Payload
}

// ScoredChunk is a search hit, highest similarity first.
type ScoredChunk struct {
	Text       string
	Source     string
	ChunkIndex int
	Score      float32
}

// Store is the vector index interface.
type Store interface {
	// EnsureCollection creates the configured collection if it does not
	// exist. Idempotent.
	EnsureCollection(ctx context.Context) error

	// Upsert writes points to the collection, overwriting points whose
	// IDs already exist.
	Upsert(ctx context.Context, points []Point) error

	// Search returns up to k chunks most similar to vector, ranked by
	// descending similarity.
	Search(ctx context.Context, vector []float32, k int) ([]ScoredChunk, error)

	// Close releases the store's resources.
	Close() error
}
