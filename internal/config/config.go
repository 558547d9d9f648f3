// Package config provides configuration loading for medragd.
//
// Configuration is loaded from an optional YAML file overlaid with
// environment variables. Missing credentials fail validation at startup,
// before any request is served.
package config

import (
	"errors"
	"fmt"
	"regexp"
	"time"
)

// ErrInvalidConfig indicates invalid configuration.
var ErrInvalidConfig = errors.New("invalid configuration")

// collectionNamePattern validates collection names.
// Pattern: lowercase letters, numbers, underscores, 1-64 characters.
var collectionNamePattern = regexp.MustCompile(`^[a-z0-9_]{1,64}$`)

// Embedding provider names accepted by embedding.provider.
const (
	ProviderRemote    = "remote"
	ProviderFastEmbed = "fastembed"
	ProviderOpenAI    = "openai"
)

// Redaction modes accepted by redaction.mode.
const (
	RedactionPattern = "pattern"
	RedactionEntity  = "entity"
)

// Vector store backends accepted by vectorstore.backend.
const (
	StoreQdrant = "qdrant"
	StoreMemory = "memory"
)

// Config holds the complete medragd configuration.
type Config struct {
	Server      ServerConfig      `koanf:"server"`
	Logging     LoggingConfig     `koanf:"logging"`
	VectorStore VectorStoreConfig `koanf:"vectorstore"`
	Embedding   EmbeddingConfig   `koanf:"embedding"`
	Redaction   RedactionConfig   `koanf:"redaction"`
	LLM         LLMConfig         `koanf:"llm"`
	Ingest      IngestConfig      `koanf:"ingest"`
	Query       QueryConfig       `koanf:"query"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	CORSOrigins     []string      `koanf:"cors_origins"`
	UploadPerMinute int           `koanf:"upload_per_minute"`
	QueryPerMinute  int           `koanf:"query_per_minute"`
}

// LoggingConfig holds logger configuration.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"` // "json" or "console"
}

// VectorStoreConfig holds vector index configuration.
type VectorStoreConfig struct {
	// Backend selects the store implementation: "qdrant" or "memory".
	// The memory backend is for development and tests only.
	Backend string `koanf:"backend"`

	// Host is the Qdrant server hostname or IP address.
	Host string `koanf:"host"`

	// Port is the Qdrant gRPC port (6334, NOT the HTTP REST port 6333).
	Port int `koanf:"port"`

	// APIKey authenticates against Qdrant Cloud. Optional for local.
	APIKey Secret `koanf:"api_key"`

	// UseTLS enables TLS for the gRPC connection.
	UseTLS bool `koanf:"use_tls"`

	// Collection is the collection holding document chunks.
	Collection string `koanf:"collection"`

	// Dimension is the collection's vector dimensionality.
	// MUST match the embedding provider's output dimension; the daemon
	// refuses to start on a mismatch.
	Dimension int `koanf:"dimension"`
}

// EmbeddingConfig holds embedding backend configuration.
type EmbeddingConfig struct {
	// Provider selects the backend: "remote", "fastembed" or "openai".
	Provider string `koanf:"provider"`

	// Model is the embedding model name.
	Model string `koanf:"model"`

	// BaseURL overrides the backend endpoint (remote and openai providers).
	BaseURL string `koanf:"base_url"`

	// APIKey authenticates the remote or openai provider.
	APIKey Secret `koanf:"api_key"`

	// CacheDir is the model cache directory (fastembed provider).
	CacheDir string `koanf:"cache_dir"`

	// Dimension overrides the detected output dimension for models
	// not in the built-in table. Ignored by the fastembed provider,
	// whose local models have fixed dimensions.
	Dimension int `koanf:"dimension"`
}

// RedactionConfig holds redaction engine configuration.
type RedactionConfig struct {
	// Mode selects the engine: "pattern" or "entity".
	Mode string `koanf:"mode"`

	// PatternsFile is an optional TOML file with extra pattern categories.
	PatternsFile string `koanf:"patterns_file"`

	// Entity configures the entity-based engine.
	Entity EntityConfig `koanf:"entity"`
}

// EntityConfig holds named-entity recognizer configuration.
type EntityConfig struct {
	Model   string   `koanf:"model"`
	BaseURL string   `koanf:"base_url"`
	APIKey  Secret   `koanf:"api_key"`
	Labels  []string `koanf:"labels"`
}

// LLMConfig holds text-generation configuration.
type LLMConfig struct {
	Model       string  `koanf:"model"`
	BaseURL     string  `koanf:"base_url"`
	APIKey      Secret  `koanf:"api_key"`
	Temperature float64 `koanf:"temperature"`
}

// IngestConfig holds ingestion pipeline configuration.
type IngestConfig struct {
	ChunkSize      int   `koanf:"chunk_size"`
	ChunkOverlap   int   `koanf:"chunk_overlap"`
	MaxUploadBytes int64 `koanf:"max_upload_bytes"`
}

// QueryConfig holds query pipeline configuration.
type QueryConfig struct {
	TopK int `koanf:"top_k"`
}

// applyDefaults sets default values for unset fields.
func applyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "0.0.0.0"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8000
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 10 * time.Second
	}
	if len(cfg.Server.CORSOrigins) == 0 {
		cfg.Server.CORSOrigins = []string{"*"}
	}
	if cfg.Server.UploadPerMinute == 0 {
		cfg.Server.UploadPerMinute = 5
	}
	if cfg.Server.QueryPerMinute == 0 {
		cfg.Server.QueryPerMinute = 10
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
	if cfg.VectorStore.Backend == "" {
		cfg.VectorStore.Backend = StoreQdrant
	}
	if cfg.VectorStore.Host == "" {
		cfg.VectorStore.Host = "localhost"
	}
	if cfg.VectorStore.Port == 0 {
		cfg.VectorStore.Port = 6334
	}
	if cfg.VectorStore.Collection == "" {
		cfg.VectorStore.Collection = "medical_docs"
	}
	if cfg.VectorStore.Dimension == 0 {
		cfg.VectorStore.Dimension = 384
	}
	if cfg.Embedding.Provider == "" {
		cfg.Embedding.Provider = ProviderRemote
	}
	if cfg.Embedding.Model == "" {
		cfg.Embedding.Model = "sentence-transformers/all-MiniLM-L6-v2"
	}
	if cfg.Redaction.Mode == "" {
		cfg.Redaction.Mode = RedactionPattern
	}
	if cfg.Redaction.Entity.Model == "" {
		cfg.Redaction.Entity.Model = "dslim/bert-base-NER"
	}
	if len(cfg.Redaction.Entity.Labels) == 0 {
		cfg.Redaction.Entity.Labels = []string{"PER", "LOC", "ORG", "DATE", "PHONE", "EMAIL"}
	}
	if cfg.LLM.Model == "" {
		cfg.LLM.Model = "llama-3.1-8b-instant"
	}
	if cfg.LLM.BaseURL == "" {
		cfg.LLM.BaseURL = "https://api.groq.com/openai/v1"
	}
	if cfg.Ingest.ChunkSize == 0 {
		cfg.Ingest.ChunkSize = 1000
	}
	if cfg.Ingest.ChunkOverlap == 0 {
		cfg.Ingest.ChunkOverlap = 200
	}
	if cfg.Ingest.MaxUploadBytes == 0 {
		cfg.Ingest.MaxUploadBytes = 10 * 1024 * 1024 // 10MB
	}
	if cfg.Query.TopK == 0 {
		cfg.Query.TopK = 3
	}
}

// Validate validates the configuration.
//
// Returns an error if required credentials are missing, the collection
// name is unsafe, or pipeline parameters are inconsistent. Called once
// at startup; a failure here prevents the process from serving anything.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("%w: invalid server port: %d", ErrInvalidConfig, c.Server.Port)
	}
	if c.Server.ShutdownTimeout <= 0 {
		return fmt.Errorf("%w: shutdown timeout must be positive", ErrInvalidConfig)
	}

	switch c.VectorStore.Backend {
	case StoreQdrant, StoreMemory:
	default:
		return fmt.Errorf("%w: unknown vector store backend %q", ErrInvalidConfig, c.VectorStore.Backend)
	}
	if !collectionNamePattern.MatchString(c.VectorStore.Collection) {
		return fmt.Errorf("%w: collection name must match ^[a-z0-9_]{1,64}$, got %q", ErrInvalidConfig, c.VectorStore.Collection)
	}
	if c.VectorStore.Dimension <= 0 {
		return fmt.Errorf("%w: vector dimension must be positive", ErrInvalidConfig)
	}

	switch c.Embedding.Provider {
	case ProviderRemote:
		if !c.Embedding.APIKey.IsSet() {
			return fmt.Errorf("%w: embedding.api_key is required for the remote provider", ErrInvalidConfig)
		}
	case ProviderFastEmbed:
	case ProviderOpenAI:
		if c.Embedding.BaseURL == "" && !c.Embedding.APIKey.IsSet() {
			return fmt.Errorf("%w: embedding.api_key is required for the openai provider", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown embedding provider %q", ErrInvalidConfig, c.Embedding.Provider)
	}

	switch c.Redaction.Mode {
	case RedactionPattern:
	case RedactionEntity:
		if !c.Redaction.Entity.APIKey.IsSet() {
			return fmt.Errorf("%w: redaction.entity.api_key is required for entity mode", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown redaction mode %q", ErrInvalidConfig, c.Redaction.Mode)
	}

	if !c.LLM.APIKey.IsSet() {
		return fmt.Errorf("%w: llm.api_key is required", ErrInvalidConfig)
	}

	if c.Ingest.ChunkSize <= 0 {
		return fmt.Errorf("%w: chunk size must be positive", ErrInvalidConfig)
	}
	if c.Ingest.ChunkOverlap < 0 || c.Ingest.ChunkOverlap >= c.Ingest.ChunkSize {
		return fmt.Errorf("%w: chunk overlap must be in [0, chunk size)", ErrInvalidConfig)
	}
	if c.Query.TopK <= 0 {
		return fmt.Errorf("%w: top_k must be positive", ErrInvalidConfig)
	}

	return nil
}
