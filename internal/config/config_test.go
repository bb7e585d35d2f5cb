package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleYAML = `
logging:
  level: debug
scheduler:
  interval: 5m
  timezone: Mars/Olympus
  runOnStart: false
gemini:
  model: gemini-test
  maxConcurrent: 2
catalog:
  source: database
feeds:
  - url: https://example.com/economy.xml
    category: economy
    source: Example Daily
`

func TestLoadMergesFileOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleYAML), 0o600))

	t.Setenv(configPathEnv, path)
	t.Setenv(geminiAPIKeyEnv, "secret")
	t.Setenv(geminiModelEnv, "")
	t.Setenv(logLevelEnv, "")
	t.Setenv(intervalEnv, "")

	cfg := Load()

	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, 5*time.Minute, cfg.Scheduler.Interval)
	assert.False(t, cfg.Scheduler.ShouldRunOnStart())
	assert.Equal(t, "UTC", cfg.Scheduler.Location().String())
	assert.Equal(t, "gemini-test", cfg.Gemini.Model)
	assert.Equal(t, 2, cfg.Gemini.MaxConcurrent)
	assert.Equal(t, "secret", cfg.Gemini.APIKey)
	assert.Equal(t, 30*time.Second, cfg.Gemini.AcquireTimeout)
	assert.Equal(t, 5, cfg.Gemini.MaxRetries)
	assert.InDelta(t, 1.5, cfg.Gemini.BackoffMultiplier, 1e-9)
	assert.Equal(t, CatalogSourceDatabase, cfg.Catalog.Source)
	require.Len(t, cfg.Feeds, 1)
	assert.Equal(t, "Example Daily", cfg.Feeds[0].Source)
}

func TestLoadDefaultsWithoutFile(t *testing.T) {
	t.Setenv(configPathEnv, "")
	t.Setenv(intervalEnv, "90s")

	cfg := Load()

	assert.Equal(t, 90*time.Second, cfg.Scheduler.Interval)
	assert.True(t, cfg.Scheduler.ShouldRunOnStart())
	assert.Equal(t, "UTC", cfg.Scheduler.Location().String())
	assert.Equal(t, 15000, cfg.Extractor.MaxChars)
	assert.Equal(t, CatalogSourceConfig, cfg.Catalog.Source)
}

func TestGeminiURL(t *testing.T) {
	t.Parallel()

	g := GeminiConfig{Endpoint: "https://host/v1beta/models/", Model: "m"}
	assert.Equal(t, "https://host/v1beta/models/m:generateContent", g.URL())
}

func TestDefaultOverloadMarkersAreCopied(t *testing.T) {
	t.Parallel()

	cfg := Default()
	assert.Equal(t, DefaultOverloadMarkers, cfg.Gemini.OverloadMarkers)

	cfg.Gemini.OverloadMarkers[0] = "changed"
	assert.Equal(t, "The model is overloaded", DefaultOverloadMarkers[0])
}
