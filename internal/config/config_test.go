package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "3000", cfg.Server.Port)
	assert.Equal(t, "stderr", cfg.Diagnostics.Sink)
	assert.True(t, cfg.Diagnostics.Enabled)
	assert.Equal(t, 1000, cfg.Diagnostics.BufferSize)
	assert.Equal(t, "schemascope:diagnostics", cfg.Redis.ListKey)
	assert.Equal(t, "/metrics", cfg.Metrics.Path)
	assert.Empty(t, cfg.Database.DSN)
}

func TestLoadFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(`
server:
  port: "4000"
diagnostics:
  sink: file
  max_per_second: 2.5
`), 0o644))
	t.Setenv("SCHEMASCOPE_DEBUG_KEY", "letmein")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "4000", cfg.Server.Port)
	assert.Equal(t, "file", cfg.Diagnostics.Sink)
	assert.Equal(t, 2.5, cfg.Diagnostics.MaxPerSecond)
	assert.Equal(t, "letmein", cfg.Debug.Key)
}

// chdir changes the working directory for the duration of the test, like
// testing.T.Chdir (Go 1.24+), and restores it on cleanup.
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(prev) })
}
