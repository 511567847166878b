package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, 10, cfg.Batch.MaxURLs)
	assert.Equal(t, 3*time.Second, cfg.Batch.ArticleTimeout)
	assert.Equal(t, 0, cfg.Batch.Concurrency)
	assert.Equal(t, uint64(0), cfg.HTTP.MaxRetries)
	assert.Equal(t, "none", cfg.Extract.Fallback)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_File(t *testing.T) {
	p := filepath.Join(t.TempDir(), "jaundice.yaml")
	require.NoError(t, os.WriteFile(p, []byte(`
http:
  timeout: 5s
  max_retries: 2
batch:
  concurrency: 4
  article_timeout: 1500ms
vocabulary:
  path: /data/charged_dict.zip
extract:
  fallback: readability
`), 0o600))

	cfg, err := Load(p)
	require.NoError(t, err)

	assert.Equal(t, 5*time.Second, cfg.HTTP.Timeout)
	assert.Equal(t, uint64(2), cfg.HTTP.MaxRetries)
	assert.Equal(t, 4, cfg.Batch.Concurrency)
	assert.Equal(t, 1500*time.Millisecond, cfg.Batch.ArticleTimeout)
	assert.Equal(t, "/data/charged_dict.zip", cfg.Vocabulary.Path)
	assert.Equal(t, "readability", cfg.Extract.Fallback)
	assert.Equal(t, 10, cfg.Batch.MaxURLs, "ファイルにない項目は既定値のまま")
	assert.NoError(t, cfg.Validate())
}

func TestLoad_EnvOverrides(t *testing.T) {
	p := filepath.Join(t.TempDir(), "jaundice.yaml")
	require.NoError(t, os.WriteFile(p, []byte("batch:\n  concurrency: 4\n"), 0o600))

	t.Setenv("JAUNDICE_CONCURRENCY", "8")
	t.Setenv("JAUNDICE_ARTICLE_TIMEOUT", "2s")
	t.Setenv("JAUNDICE_MORPH_SERIALIZE", "true")
	t.Setenv("JAUNDICE_SERVER_ADDR", "127.0.0.1:9000")

	cfg, err := Load(p)
	require.NoError(t, err)
	assert.Equal(t, 8, cfg.Batch.Concurrency, "環境変数はファイルより優先される")
	assert.Equal(t, 2*time.Second, cfg.Batch.ArticleTimeout)
	assert.True(t, cfg.Morph.Serialize)
	assert.Equal(t, "127.0.0.1:9000", cfg.Server.Addr)
}

func TestLoad_ConfigPathFromEnv(t *testing.T) {
	p := filepath.Join(t.TempDir(), "env.yaml")
	require.NoError(t, os.WriteFile(p, []byte("log:\n  level: debug\n"), 0o600))
	t.Setenv("JAUNDICE_CONFIG", p)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoad_Errors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "none.yaml"))
		assert.Error(t, err)
	})

	t.Run("broken yaml", func(t *testing.T) {
		p := filepath.Join(t.TempDir(), "broken.yaml")
		require.NoError(t, os.WriteFile(p, []byte("batch: [oops"), 0o600))
		_, err := Load(p)
		assert.Error(t, err)
	})

	t.Run("invalid env value", func(t *testing.T) {
		t.Setenv("JAUNDICE_MAX_URLS", "ten")
		_, err := Load("")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "JAUNDICE_MAX_URLS")
	})
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"zero http timeout", func(c *Config) { c.HTTP.Timeout = 0 }},
		{"negative article timeout", func(c *Config) { c.Batch.ArticleTimeout = -time.Second }},
		{"negative concurrency", func(c *Config) { c.Batch.Concurrency = -1 }},
		{"negative rate", func(c *Config) { c.Batch.RatePerSecond = -1 }},
		{"empty vocabulary", func(c *Config) { c.Vocabulary.Path = "" }},
		{"unknown fallback", func(c *Config) { c.Extract.Fallback = "magic" }},
		{"empty server addr", func(c *Config) { c.Server.Addr = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
