package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_MissingFileReturnsDefaults(t *testing.T) {
	cfg, err := LoadConfig("/nonexistent/appraisal_config.yaml")
	require.NoError(t, err)

	assert.Equal(t, "gemini-1.5-pro", cfg.Inference.Model)
	assert.Equal(t, 2000, cfg.Pipeline.BaselineYearBuilt)
	assert.Equal(t, 24*time.Hour, cfg.Pipeline.GetOrphanRetention())
	assert.True(t, cfg.RateLimit.Enabled)
}

func TestLoadConfig_FileOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
database:
  type: mysql
  mysql:
    host: dbhost
    port: 3307
inference:
  model: gemini-1.5-flash
  timeout_seconds: 30
pipeline:
  baseline_year_built: 1990
  sweep_enabled: true
  sweep_time: "04:30"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "mysql", cfg.Database.Type)
	assert.Equal(t, "dbhost", cfg.Database.MySQL.Host)
	assert.Equal(t, 3307, cfg.Database.MySQL.Port)
	assert.Equal(t, "gemini-1.5-flash", cfg.Inference.Model)
	assert.Equal(t, 30*time.Second, cfg.Inference.GetTimeout())
	assert.Equal(t, 1990, cfg.Pipeline.BaselineYearBuilt)
	assert.True(t, cfg.Pipeline.SweepEnabled)
	assert.Equal(t, "04:30", cfg.Pipeline.SweepTime)

	// Untouched sections keep their defaults
	assert.Equal(t, 5, cfg.Inference.FailureThreshold)
	assert.Equal(t, 1000, cfg.Cleanup.MaxDeletionCount)
}

func TestLoadConfig_InvalidYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("database: [unclosed"), 0o644))

	_, err := LoadConfig(path)
	assert.Error(t, err)
}
