package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, DefaultHost, cfg.Catalogue.Host)
	assert.Equal(t, 3, cfg.Retry.MaxRetries)
	assert.Equal(t, 500*time.Millisecond, cfg.Retry.Backoff)
	assert.Equal(t, ProgressLines, cfg.Progress.Mode)
	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.NoError(t, cfg.Validate())
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("CDLI_HOST", "http://localhost:8765/")
	t.Setenv("CDLI_MAX_RETRIES", "5")
	t.Setenv("CDLI_RETRY_BACKOFF", "1s")
	t.Setenv("CDLI_CONCURRENCY", "2")
	t.Setenv("CDLI_PROGRESS", "none")
	t.Setenv("CDLI_LOG_LEVEL", "debug")
	t.Setenv("CDLI_RETRY_NETWORK_ERRORS", "false")
	t.Setenv("CDLI_RETRY_STRATEGY", "exponential")
	t.Setenv("CDLI_RATE_LIMIT_STRATEGY", "sliding_window")

	cfg := DefaultConfig()
	require.NoError(t, cfg.LoadFromEnv())

	assert.Equal(t, "http://localhost:8765/", cfg.Catalogue.Host)
	assert.Equal(t, 5, cfg.Retry.MaxRetries)
	assert.Equal(t, time.Second, cfg.Retry.Backoff)
	assert.Equal(t, 2, cfg.Export.Concurrency)
	assert.Equal(t, ProgressNone, cfg.Progress.Mode)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.False(t, cfg.Retry.RetryNetworkErrors)
	assert.Equal(t, "exponential", cfg.Retry.Strategy)
	assert.Equal(t, "sliding_window", cfg.RateLimit.Strategy)
	assert.NoError(t, cfg.Validate())
}

func TestLoadFromEnvInvalidValues(t *testing.T) {
	t.Setenv("CDLI_MAX_RETRIES", "many")
	t.Setenv("CDLI_RETRY_BACKOFF", "soon")

	err := DefaultConfig().LoadFromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CDLI_MAX_RETRIES")
	assert.Contains(t, err.Error(), "CDLI_RETRY_BACKOFF")
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
catalogue:
  host: https://cdli.example.org/
export:
  format: csv
  concurrency: 4
rate_limit:
  requests_per_minute: 120
  strategy: sliding_window
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg := DefaultConfig()
	require.NoError(t, cfg.LoadFromFile(path))

	assert.Equal(t, "https://cdli.example.org/", cfg.Catalogue.Host)
	assert.Equal(t, "csv", cfg.Export.Format)
	assert.Equal(t, 4, cfg.Export.Concurrency)
	assert.Equal(t, 120, cfg.RateLimit.RequestsPerMinute)
	assert.Equal(t, "sliding_window", cfg.RateLimit.Strategy)
	// untouched sections keep their defaults
	assert.Equal(t, 3, cfg.Retry.MaxRetries)
}

func TestLoadFromFileErrors(t *testing.T) {
	cfg := DefaultConfig()
	assert.Error(t, cfg.LoadFromFile(filepath.Join(t.TempDir(), "missing.yaml")))

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("export: [unclosed"), 0644))
	assert.Error(t, cfg.LoadFromFile(path))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"bad host", func(c *Config) { c.Catalogue.Host = "cdli.earth" }, "invalid catalogue host"},
		{"negative retries", func(c *Config) { c.Retry.MaxRetries = -1 }, "max retries"},
		{"bad retry strategy", func(c *Config) { c.Retry.Strategy = "random" }, "invalid retry strategy"},
		{"negative concurrency", func(c *Config) { c.Export.Concurrency = -2 }, "export concurrency"},
		{"bad rate strategy", func(c *Config) { c.RateLimit.Strategy = "leaky" }, "invalid rate limit strategy"},
		{"bad progress mode", func(c *Config) { c.Progress.Mode = "fancy" }, "invalid progress mode"},
		{"bad log level", func(c *Config) { c.Logging.Level = "chatty" }, "invalid log level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidateJoinsErrors(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Retry.MaxRetries = -1
	cfg.Progress.Mode = "fancy"

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "max retries")
	assert.Contains(t, err.Error(), "invalid progress mode")
}

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := DefaultConfig()
	cfg.Export.Format = "tsv"
	cfg.Retry.Backoff = 2 * time.Second
	require.NoError(t, cfg.Save(path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "tsv", loaded.Export.Format)
	assert.Equal(t, 2*time.Second, loaded.Retry.Backoff)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("export:\n  format: csv\n"), 0644))
	t.Setenv("CDLI_FORMAT", "ttl")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "ttl", cfg.Export.Format)
}
