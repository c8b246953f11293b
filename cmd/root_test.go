package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBusCommand(t *testing.T) {
	dir := t.TempDir()
	cfg := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte("bus:\n  days: 2\nlogging:\n  level: error\n"), 0o644))
	out := filepath.Join(dir, "out")

	rootCmd.SetArgs([]string{"bus", "-c", cfg, "-o", out, "--seed", "3"})
	require.NoError(t, Execute())
	assert.FileExists(t, filepath.Join(out, "bus_load.csv"))
	assert.Equal(t, uint64(3), seed)
}

func TestUnknownConfigFormat(t *testing.T) {
	cfg := filepath.Join(t.TempDir(), "config.ini")
	require.NoError(t, os.WriteFile(cfg, []byte("x=1"), 0o644))
	rootCmd.SetArgs([]string{"ev", "-c", cfg})
	assert.Error(t, Execute())
}

func TestBadSentryDSNDoesNotFailRun(t *testing.T) {
	dir := t.TempDir()
	cfg := filepath.Join(dir, "config.yaml")
	data := "bus:\n  days: 1\nsimulation:\n  charts: false\nmonitoring:\n  sentry_dsn: not-a-dsn\nlogging:\n  level: error\n"
	require.NoError(t, os.WriteFile(cfg, []byte(data), 0o644))
	out := filepath.Join(dir, "out")

	rootCmd.SetArgs([]string{"bus", "-c", cfg, "-o", out})
	require.NoError(t, Execute())
	assert.FileExists(t, filepath.Join(out, "bus_load.csv"))
	assert.NoFileExists(t, filepath.Join(out, "bus_load.html"))
}
