// Medragd is a retrieval-augmented question answering service for medical
// documents.
//
// It ingests uploaded documents through a redaction and chunking pipeline
// into a Qdrant vector index, and answers questions by retrieving relevant
// chunks and streaming a model-generated answer over SSE.
//
// Configuration is loaded from an optional YAML file plus environment
// variables. See internal/config for details.
//
// Usage:
//
//	# Start with defaults
//	medragd
//
//	# Configure via flag and environment
//	medragd -config config.yaml
//	SERVER_PORT=9000 LLM_API_KEY=... medragd
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/Balavardhanreddysheelam/Medical-rag-agent/internal/chunk"
	"github.com/Balavardhanreddysheelam/Medical-rag-agent/internal/config"
	"github.com/Balavardhanreddysheelam/Medical-rag-agent/internal/embeddings"
	"github.com/Balavardhanreddysheelam/Medical-rag-agent/internal/ingest"
	"github.com/Balavardhanreddysheelam/Medical-rag-agent/internal/logging"
	"github.com/Balavardhanreddysheelam/Medical-rag-agent/internal/rag"
	"github.com/Balavardhanreddysheelam/Medical-rag-agent/internal/redact"
	"github.com/Balavardhanreddysheelam/Medical-rag-agent/internal/server"
	"github.com/Balavardhanreddysheelam/Medical-rag-agent/internal/vectorstore"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file")
	flag.Parse()

	// Local development convenience; absence of a .env file is fine.
	_ = godotenv.Load()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		log.Printf("received signal %v, shutting down", sig)
		cancel()
	}()

	if err := run(ctx, *configPath); err != nil {
		log.Fatalf("medragd: %v", err)
	}
}

// run wires all dependencies and blocks until ctx is cancelled.
func run(ctx context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		return fmt.Errorf("initializing logger: %w", err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	logger.Info("starting medragd",
		zap.Int("port", cfg.Server.Port),
		zap.String("vector_backend", cfg.VectorStore.Backend),
		zap.String("embedding_provider", cfg.Embedding.Provider),
		zap.String("llm_model", cfg.LLM.Model))

	provider, err := embeddings.NewProvider(cfg.Embedding)
	if err != nil {
		return fmt.Errorf("initializing embedding provider: %w", err)
	}
	defer func() {
		_ = provider.Close()
	}()

	// The collection dimension and the provider's output dimension must
	// agree or every upsert and search would fail later.
	if dim := provider.Dimension(); dim != 0 && dim != cfg.VectorStore.Dimension {
		return fmt.Errorf("embedding dimension %d does not match collection dimension %d", dim, cfg.VectorStore.Dimension)
	}

	store, err := vectorstore.New(cfg.VectorStore, logger)
	if err != nil {
		return fmt.Errorf("initializing vector store: %w", err)
	}
	defer func() {
		_ = store.Close()
	}()

	// Best effort at startup; ingestion fails loudly later if the
	// collection is still missing.
	if err := store.EnsureCollection(ctx); err != nil {
		logger.Warn("could not ensure collection at startup", zap.Error(err))
	}

	redactor, err := redact.New(cfg.Redaction, logger)
	if err != nil {
		return fmt.Errorf("initializing redactor: %w", err)
	}

	llm, err := rag.NewLLM(cfg.LLM)
	if err != nil {
		return fmt.Errorf("initializing llm: %w", err)
	}

	splitter := chunk.NewSplitter(cfg.Ingest.ChunkSize, cfg.Ingest.ChunkOverlap)
	ingestSvc := ingest.NewService(redactor, splitter, provider, store, logger)
	ragSvc := rag.NewService(provider, store, llm, cfg.Query.TopK, cfg.LLM.Temperature, logger)

	srv, err := server.NewServer(ingestSvc, ragSvc, *cfg, logger)
	if err != nil {
		return fmt.Errorf("initializing http server: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}

	logger.Info("shutdown complete")
	return nil
}
