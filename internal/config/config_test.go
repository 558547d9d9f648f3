package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfigFile(t, `
llm:
  api_key: test-key
embedding:
  provider: fastembed
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 8000, cfg.Server.Port)
	assert.Equal(t, "medical_docs", cfg.VectorStore.Collection)
	assert.Equal(t, 384, cfg.VectorStore.Dimension)
	assert.Equal(t, StoreQdrant, cfg.VectorStore.Backend)
	assert.Equal(t, 1000, cfg.Ingest.ChunkSize)
	assert.Equal(t, 200, cfg.Ingest.ChunkOverlap)
	assert.Equal(t, 3, cfg.Query.TopK)
	assert.Equal(t, RedactionPattern, cfg.Redaction.Mode)
	assert.Equal(t, "llama-3.1-8b-instant", cfg.LLM.Model)
}

func TestLoadEnvOverride(t *testing.T) {
	path := writeConfigFile(t, `
llm:
  api_key: test-key
embedding:
  provider: fastembed
`)

	t.Setenv("SERVER_PORT", "9001")
	t.Setenv("VECTORSTORE_COLLECTION", "trial_notes")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9001, cfg.Server.Port)
	assert.Equal(t, "trial_notes", cfg.VectorStore.Collection)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg := &Config{}
		applyDefaults(cfg)
		cfg.LLM.APIKey = "key"
		cfg.Embedding.Provider = ProviderFastEmbed
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "valid config",
			mutate: func(c *Config) {},
		},
		{
			name:    "missing llm api key",
			mutate:  func(c *Config) { c.LLM.APIKey = "" },
			wantErr: "llm.api_key",
		},
		{
			name:    "remote provider without api key",
			mutate:  func(c *Config) { c.Embedding.Provider = ProviderRemote },
			wantErr: "embedding.api_key",
		},
		{
			name:    "unknown embedding provider",
			mutate:  func(c *Config) { c.Embedding.Provider = "cloud" },
			wantErr: "unknown embedding provider",
		},
		{
			name:    "entity mode without api key",
			mutate:  func(c *Config) { c.Redaction.Mode = RedactionEntity },
			wantErr: "redaction.entity.api_key",
		},
		{
			name:    "unsafe collection name",
			mutate:  func(c *Config) { c.VectorStore.Collection = "Medical Docs" },
			wantErr: "collection name",
		},
		{
			name:    "overlap not smaller than chunk size",
			mutate:  func(c *Config) { c.Ingest.ChunkOverlap = c.Ingest.ChunkSize },
			wantErr: "chunk overlap",
		},
		{
			name:    "negative top_k",
			mutate:  func(c *Config) { c.Query.TopK = -1 },
			wantErr: "top_k",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidConfig)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestSecretRedaction(t *testing.T) {
	s := Secret("super-secret")
	assert.Equal(t, "[REDACTED]", s.String())
	assert.Equal(t, "super-secret", s.Value())
	assert.True(t, s.IsSet())

	data, err := s.MarshalJSON()
	require.NoError(t, err)
	assert.NotContains(t, string(data), "super-secret")

	var empty Secret
	assert.Equal(t, "", empty.String())
	assert.False(t, empty.IsSet())
}
