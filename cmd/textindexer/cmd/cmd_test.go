package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ierrors "github.com/Aman-CERP/textindexer/internal/errors"
	"github.com/Aman-CERP/textindexer/internal/ui"
	"github.com/Aman-CERP/textindexer/pkg/version"
)

// runCmd executes the root command with args and returns stdout.
func runCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cmd := NewRootCmd()
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)

	err := cmd.Execute()
	return out.String(), err
}

func writeTree(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("Hello world"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.txt"), []byte("Hello there"), 0o644))
	return dir
}

func TestVersionCmd_DefaultOutput(t *testing.T) {
	out, err := runCmd(t, "version")

	require.NoError(t, err)
	assert.Contains(t, out, "textindexer")
	assert.Contains(t, out, version.Short())
	assert.Contains(t, out, "commit:")
}

func TestVersionCmd_ShortAndJSON(t *testing.T) {
	out, err := runCmd(t, "version", "--short")
	require.NoError(t, err)
	assert.Equal(t, version.Short(), strings.TrimSpace(out))

	out, err = runCmd(t, "version", "--json")
	require.NoError(t, err)
	var info version.BuildInfo
	require.NoError(t, json.Unmarshal([]byte(out), &info))
	assert.Equal(t, version.GetInfo().Version, info.Version)
}

func TestSearchCmd_FindsExactMatches(t *testing.T) {
	// Given: a directory with two files
	dir := writeTree(t)

	// When: searching through the CLI
	out, err := runCmd(t, "search", "Hello", "--path", dir)

	// Then: both files are printed in order
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "a.txt")+"\n"+filepath.Join(dir, "b.txt")+"\n", out)
}

func TestSearchCmd_JSON(t *testing.T) {
	dir := writeTree(t)

	out, err := runCmd(t, "search", "world", "--path", dir, "--format", "json")

	require.NoError(t, err)
	var res ui.SearchResult
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, []string{filepath.Join(dir, "a.txt")}, res.Matches)
}

func TestSearchCmd_BadFormat(t *testing.T) {
	_, err := runCmd(t, "search", "x", "--path", t.TempDir(), "--format", "xml")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown format")
}

func TestSearchCmd_MissingPath(t *testing.T) {
	_, err := runCmd(t, "search", "x", "--path", filepath.Join(t.TempDir(), "nope"))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "path does not exist")
}

func TestStatusCmd_JSON(t *testing.T) {
	dir := writeTree(t)

	out, err := runCmd(t, "status", "--path", dir, "--format", "json")

	require.NoError(t, err)
	var parsed map[string]map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &parsed))
	assert.Equal(t, float64(3), parsed["stats"]["indexed_words"])
	assert.Equal(t, float64(2), parsed["stats"]["files_indexed"])
}

func TestConfigCmd_InitShowPath(t *testing.T) {
	xdg := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", xdg)
	run := func(args ...string) string {
		cmd := NewRootCmd()
		out := &bytes.Buffer{}
		cmd.SetOut(out)
		cmd.SetArgs(args)
		require.NoError(t, cmd.Execute())
		return out.String()
	}

	// When: creating, then re-creating with --force
	out := run("config", "init")
	path := filepath.Join(xdg, "textindexer", "config.yaml")
	assert.Contains(t, out, "Created "+path)
	assert.FileExists(t, path)

	assert.Contains(t, run("config", "init"), "already exists")
	assert.Contains(t, run("config", "init", "--force"), "Backed up")

	// Then: path and show reflect the file
	assert.Equal(t, path+"\n", run("config", "path"))
	assert.Contains(t, run("config", "show"), "poll_interval: 1s")
	assert.Contains(t, run("config", "restore"), "Restored")
}

func TestConfigCmd_InvalidConfigFails(t *testing.T) {
	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("indexer:\n  workers: 0\n"), 0o644))

	_, err := runCmd(t, "--config", bad, "config", "show")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load configuration")
}

func TestConfigCmd_MissingConfigFile(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "missing.yaml")

	_, err := runCmd(t, "--config", missing, "config", "show")

	require.Error(t, err)
	assert.Equal(t, ierrors.ErrCodeConfigNotFound, ierrors.GetCode(err))
}
