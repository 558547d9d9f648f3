// Package ingest runs the document ingestion pipeline: extract text, redact
// identifiers, chunk, embed and index.
package ingest

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Balavardhanreddysheelam/Medical-rag-agent/internal/chunk"
	"github.com/Balavardhanreddysheelam/Medical-rag-agent/internal/embeddings"
	"github.com/Balavardhanreddysheelam/Medical-rag-agent/internal/extract"
	"github.com/Balavardhanreddysheelam/Medical-rag-agent/internal/redact"
	"github.com/Balavardhanreddysheelam/Medical-rag-agent/internal/vectorstore"
)

// pointNamespace is the UUIDv5 namespace for point IDs. IDs are derived
// from the document content hash and chunk ordinal, so re-ingesting the
// same document overwrites its own points instead of duplicating them.
var pointNamespace = uuid.MustParse("8c2d61bf-0d7b-4a3c-9d6a-1f2e4b5c6d7e")

// embedder is the subset of embeddings.Provider the pipeline needs.
type embedder interface {
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)
}

// upserter is the subset of vectorstore.Store the pipeline needs.
type upserter interface {
	Upsert(ctx context.Context, points []vectorstore.Point) error
}

var (
	_ embedder = (embeddings.Provider)(nil)
	_ upserter = (vectorstore.Store)(nil)
)

// Service ingests uploaded documents into the vector index.
type Service struct {
	redactor redact.Redactor
	splitter *chunk.Splitter
	embedder embedder
	store    upserter
	logger   *zap.Logger
}

// NewService creates the ingestion service.
func NewService(redactor redact.Redactor, splitter *chunk.Splitter, embedder embedder, store upserter, logger *zap.Logger) *Service {
	return &Service{
		redactor: redactor,
		splitter: splitter,
		embedder: embedder,
		store:    store,
		logger:   logger,
	}
}

// Process runs the full pipeline for one uploaded document and returns the
// number of chunks indexed. A document that yields no chunks (empty or
// whitespace-only content) returns 0 without touching the index.
func (s *Service) Process(ctx context.Context, data []byte, filename string) (int, error) {
	extractor, err := extract.ForFilename(filename)
	if err != nil {
		return 0, err
	}

	text, err := extractor.Extract(data)
	if err != nil {
		return 0, fmt.Errorf("extracting %s: %w", filename, err)
	}

	redacted, err := s.redactor.Redact(ctx, text)
	if err != nil {
		return 0, fmt.Errorf("redacting %s: %w", filename, err)
	}

	chunks := s.splitter.Split(redacted)
	if len(chunks) == 0 {
		s.logger.Info("document yielded no chunks", zap.String("filename", filename))
		return 0, nil
	}

	vectors, err := s.embedder.EmbedDocuments(ctx, chunks)
	if err != nil {
		return 0, fmt.Errorf("embedding %s: %w", filename, err)
	}
	if len(vectors) != len(chunks) {
		return 0, fmt.Errorf("embedding %s: got %d vectors for %d chunks", filename, len(vectors), len(chunks))
	}

	docSum := sha256.Sum256(data)
	points := make([]vectorstore.Point, len(chunks))
	for i := range chunks {
		points[i] = vectorstore.Point{
			ID:     pointID(docSum, i),
			Vector: vectors[i],
			Payload: vectorstore.Payload{
				Text:       chunks[i],
				Source:     filename,
				ChunkIndex: i,
			},
		}
	}

	if err := s.store.Upsert(ctx, points); err != nil {
		return 0, fmt.Errorf("indexing %s: %w", filename, err)
	}

	s.logger.Info("document ingested",
		zap.String("filename", filename),
		zap.Int("chunks", len(chunks)))
	return len(chunks), nil
}

// pointID derives a deterministic UUID for one chunk of a document.
func pointID(docSum [sha256.Size]byte, ordinal int) string {
	name := make([]byte, sha256.Size+8)
	copy(name, docSum[:])
	binary.BigEndian.PutUint64(name[sha256.Size:], uint64(ordinal))
	return uuid.NewSHA1(pointNamespace, name).String()
}
