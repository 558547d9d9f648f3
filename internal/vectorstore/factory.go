package vectorstore

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/Balavardhanreddysheelam/Medical-rag-agent/internal/config"
)

// New creates a Store for the configured backend.
func New(cfg config.VectorStoreConfig, logger *zap.Logger) (Store, error) {
	switch cfg.Backend {
	case config.StoreQdrant, "":
		return NewQdrantStore(cfg, logger)
	case config.StoreMemory:
		return NewMemoryStore(cfg.Collection)
	default:
		return nil, fmt.Errorf("%w: unknown backend %q", ErrInvalidConfig, cfg.Backend)
	}
}
