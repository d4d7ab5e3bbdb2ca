package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoader_Defaults(t *testing.T) {
	cfg, err := NewLoader().Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, 1000, cfg.Index.ChunkSize)
	assert.Equal(t, 100, cfg.Index.ChunkOverlap)
	assert.Equal(t, 3, cfg.Retrieval.TopK)
	assert.InDelta(t, 0.2, cfg.Generation.Temperature, 1e-9)
	assert.Equal(t, 800, cfg.Generation.MaxTokens)
	assert.Equal(t, "You are a helpful assistant.", cfg.Generation.SystemPrompt)
	assert.True(t, cfg.Validation.EnablePromptValidation)
	assert.False(t, cfg.Cache.Enabled)
}

func TestLoader_YAMLOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := `
server:
  addr: ":9090"
index:
  chunk_size: 500
  chunk_overlap: 50
retrieval:
  top_k: 5
cache:
  enabled: true
  ttl: 10m
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))

	cfg, err := NewLoader().WithConfigPath(path).Load()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, 500, cfg.Index.ChunkSize)
	assert.Equal(t, 50, cfg.Index.ChunkOverlap)
	assert.Equal(t, 5, cfg.Retrieval.TopK)
	assert.True(t, cfg.Cache.Enabled)
	assert.Equal(t, 10*time.Minute, cfg.Cache.TTL)

	// Untouched sections keep their defaults.
	assert.Equal(t, 800, cfg.Generation.MaxTokens)
}

func TestLoader_EnvOverridesYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("retrieval:\n  top_k: 5\n"), 0o644))

	t.Setenv("RAGSHIELD_RETRIEVAL_TOP_K", "7")
	t.Setenv("RAGSHIELD_AZURE_API_KEY", "secret-from-env")
	t.Setenv("RAGSHIELD_SERVER_READ_TIMEOUT", "45s")
	t.Setenv("RAGSHIELD_VALIDATION_ENABLE_RELEVANCE_VALIDATION", "false")

	cfg, err := NewLoader().WithConfigPath(path).Load()
	require.NoError(t, err)

	assert.Equal(t, 7, cfg.Retrieval.TopK)
	assert.Equal(t, "secret-from-env", cfg.Azure.APIKey)
	assert.Equal(t, 45*time.Second, cfg.Server.ReadTimeout)
	assert.False(t, cfg.Validation.EnableRelevanceValidation)
}

func TestLoader_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := NewLoader().WithConfigPath(filepath.Join(t.TempDir(), "absent.yaml")).Load()
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Server.Addr)
}

func TestLoader_MalformedYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: [not a map"), 0o644))

	_, err := NewLoader().WithConfigPath(path).Load()
	assert.Error(t, err)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "defaults are valid", mutate: func(c *Config) {}},
		{
			name:    "overlap not below size",
			mutate:  func(c *Config) { c.Index.ChunkOverlap = c.Index.ChunkSize },
			wantErr: "chunk_overlap",
		},
		{
			name:    "zero chunk size",
			mutate:  func(c *Config) { c.Index.ChunkSize = 0 },
			wantErr: "chunk_size",
		},
		{
			name:    "negative top_k",
			mutate:  func(c *Config) { c.Retrieval.TopK = -1 },
			wantErr: "top_k",
		},
		{
			name:    "temperature out of range",
			mutate:  func(c *Config) { c.Generation.Temperature = 3 },
			wantErr: "temperature",
		},
		{
			name: "model confirmation without prompt validation",
			mutate: func(c *Config) {
				c.Validation.EnablePromptValidation = false
				c.Validation.EnableModelConfirmation = true
			},
			wantErr: "enable_model_confirmation",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}

func TestConfig_ValidateForAzure(t *testing.T) {
	cfg := DefaultConfig()
	err := cfg.ValidateForAzure()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "azure.endpoint")

	cfg.Azure.Endpoint = "https://example.openai.azure.com"
	cfg.Azure.APIKey = "key"
	cfg.Azure.ChatDeployment = "gpt-4o"
	cfg.Azure.EmbeddingDeployment = "text-embedding-3-small"
	assert.NoError(t, cfg.ValidateForAzure())
}
