package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewConsoleOnly(t *testing.T) {
	var buf bytes.Buffer
	logger, closeFn, err := New(Config{Level: "warn", Out: &buf})
	require.NoError(t, err)
	defer closeFn()

	logger.Info("hidden")
	logger.Warn("Error downloading file", zap.String("file", "a.txt"))
	_ = logger.Sync()

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "WARN")
	assert.Contains(t, out, "Error downloading file")
	assert.Contains(t, out, `"file": "a.txt"`)
}

func TestNewInvalidLevelFallsBackToInfo(t *testing.T) {
	var buf bytes.Buffer
	logger, closeFn, err := New(Config{Level: "chatty", Out: &buf})
	require.NoError(t, err)
	defer closeFn()

	logger.Debug("debug line")
	logger.Info("info line")
	_ = logger.Sync()

	assert.NotContains(t, buf.String(), "debug line")
	assert.Contains(t, buf.String(), "info line")
}

func TestNewWritesFile(t *testing.T) {
	var buf bytes.Buffer
	path := filepath.Join(t.TempDir(), "seviper.log")
	logger, closeFn, err := New(Config{Level: "info", File: path, Out: &buf})
	require.NoError(t, err)

	logger.Info("Processing completed.")
	_ = logger.Sync()
	closeFn()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Processing completed.")
	assert.Contains(t, buf.String(), "Processing completed.")
}

func TestNewBadFile(t *testing.T) {
	_, _, err := New(Config{File: filepath.Join(t.TempDir(), "missing", "dir", "x.log")})
	assert.Error(t, err)
}
