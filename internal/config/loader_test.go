package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test Plan for Load:
// - Defaults apply when no config file exists
// - A codegraph.yml in the working directory overrides defaults
// - A malformed config file is an error
// - validate rejects non-positive tunables

func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	return dir
}

func TestLoad_Defaults(t *testing.T) {
	chdirTemp(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "localhost", cfg.Store.Host)
	assert.Equal(t, 90*time.Second, cfg.Store.Timeout)
	assert.Equal(t, 500, cfg.Store.MaxIdleConns)
	assert.Equal(t, 100, cfg.Store.RequestsPerSec)

	assert.Equal(t, "gemini-embedding-001", cfg.Embedding.Model)
	assert.Equal(t, 30*time.Second, cfg.Embedding.Timeout)
	assert.Equal(t, 4000, cfg.Embedding.RequestsPerMin)

	assert.Equal(t, 2048, cfg.Chunking.TargetSize)
	assert.Equal(t, 1000, cfg.Pipeline.QueueCapacity)
	assert.Equal(t, 100, cfg.Pipeline.MaxConcurrent)
	assert.Equal(t, []string{".git"}, cfg.Walk.Ignore)
}

func TestLoad_ConfigFile(t *testing.T) {
	dir := chdirTemp(t)

	yml := `
store:
  host: graphdb.internal
chunking:
  target_size: 512
pipeline:
  max_concurrent: 8
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "codegraph.yml"), []byte(yml), 0o644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "graphdb.internal", cfg.Store.Host)
	assert.Equal(t, 512, cfg.Chunking.TargetSize)
	assert.Equal(t, 8, cfg.Pipeline.MaxConcurrent)
	// Untouched settings keep their defaults.
	assert.Equal(t, 1000, cfg.Pipeline.QueueCapacity)
}

func TestLoad_MalformedFile(t *testing.T) {
	dir := chdirTemp(t)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "codegraph.yml"), []byte("store: [not: a map"), 0o644))

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_InvalidValues(t *testing.T) {
	dir := chdirTemp(t)

	yml := `
chunking:
  target_size: 0
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "codegraph.yml"), []byte(yml), 0o644))

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "target_size")
}

func TestValidate(t *testing.T) {
	t.Parallel()

	cfg := Default()
	require.NoError(t, validate(cfg))

	cfg.Pipeline.QueueCapacity = -1
	assert.Error(t, validate(cfg))

	cfg = Default()
	cfg.Store.RequestsPerSec = 0
	assert.Error(t, validate(cfg))

	cfg = Default()
	cfg.Embedding.RequestsPerMin = 0
	assert.Error(t, validate(cfg))
}
