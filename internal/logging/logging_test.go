package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultLogPath(t *testing.T) {
	path := DefaultLogPath()

	assert.Equal(t, "textindexer.log", filepath.Base(path))
	assert.Contains(t, path, ".textindexer")
}

func TestDefaultConfig_IsQuiet(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "warn", cfg.Level)
	assert.Empty(t, cfg.FilePath)
	assert.True(t, cfg.WriteToStderr)
}

func TestDebugConfig_WritesFileOnly(t *testing.T) {
	cfg := DebugConfig()

	assert.Equal(t, "debug", cfg.Level)
	assert.Equal(t, "json", cfg.Format)
	assert.Equal(t, DefaultLogPath(), cfg.FilePath)
	assert.False(t, cfg.WriteToStderr)
}

func TestSetup_WritesJSONToFile(t *testing.T) {
	// Given: a debug config pointing into a temp dir
	logPath := filepath.Join(t.TempDir(), "logs", "test.log")
	cfg := DebugConfig()
	cfg.FilePath = logPath

	// When: logging through the configured logger
	logger, cleanup, err := Setup(cfg)
	require.NoError(t, err)
	logger.Debug("file indexed", "file", "/tmp/a.txt")
	cleanup()

	// Then: the file holds one JSON record with the attribute
	data, err := os.ReadFile(logPath)
	require.NoError(t, err)
	var record map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(data), &record))
	assert.Equal(t, "file indexed", record["msg"])
	assert.Equal(t, "/tmp/a.txt", record["file"])
}

func TestSetup_FiltersBelowLevel(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "test.log")
	cfg := Config{Level: "warn", Format: "text", FilePath: logPath}

	logger, cleanup, err := Setup(cfg)
	require.NoError(t, err)
	logger.Info("hidden")
	logger.Warn("shown")
	cleanup()

	data, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "hidden")
	assert.Contains(t, string(data), "shown")
}

func TestSetup_NoOutputFails(t *testing.T) {
	_, _, err := Setup(Config{Level: "info"})
	assert.Error(t, err)
}

func TestParseLevel(t *testing.T) {
	tests := map[string]string{
		"debug":   "DEBUG",
		"INFO":    "INFO",
		"warning": "WARN",
		"error":   "ERROR",
		"bogus":   "INFO",
	}
	for in, want := range tests {
		assert.Equal(t, want, parseLevel(in).String(), in)
	}
}

func TestForComponent(t *testing.T) {
	logger := ForComponent("watcher")
	assert.NotNil(t, logger)
}

func TestRotatingWriter_RotatesAndKeepsLimit(t *testing.T) {
	// Given: a writer with a 1 MB limit keeping 2 files
	path := filepath.Join(t.TempDir(), "rot.log")
	w, err := NewRotatingWriter(path, 1, 2)
	require.NoError(t, err)
	defer w.Close()

	chunk := []byte(strings.Repeat("x", megabyte/2+1) + "\n")

	// When: writing enough to rotate three times
	for i := 0; i < 8; i++ {
		_, err := w.Write(chunk)
		require.NoError(t, err)
	}

	// Then: the current file and at most two rotated files exist
	assert.FileExists(t, path)
	assert.FileExists(t, path+".1")
	assert.FileExists(t, path+".2")
	assert.NoFileExists(t, path+".3")

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.LessOrEqual(t, info.Size(), int64(megabyte))
}

func TestRotatingWriter_AppendsToExisting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "append.log")
	require.NoError(t, os.WriteFile(path, []byte("old\n"), 0o644))

	w, err := NewRotatingWriter(path, 1, 2)
	require.NoError(t, err)
	_, err = w.Write([]byte("new\n"))
	require.NoError(t, err)
	require.NoError(t, w.Sync())
	require.NoError(t, w.Close())
	require.NoError(t, w.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "old\nnew\n", string(data))
}
