package version

import (
	"encoding/json"
	"runtime"
	"runtime/debug"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubBuildInfo resets the ldflags variables and replaces the embedded
// build info for the duration of the test.
func stubBuildInfo(t *testing.T, bi *debug.BuildInfo) {
	t.Helper()
	oldVersion, oldCommit, oldDate, oldRead := Version, Commit, Date, readBuildInfo
	t.Cleanup(func() {
		Version, Commit, Date, readBuildInfo = oldVersion, oldCommit, oldDate, oldRead
	})
	Version, Commit, Date = "dev", unknown, unknown
	readBuildInfo = func() (*debug.BuildInfo, bool) { return bi, bi != nil }
}

func TestGetInfo_LdflagsWin(t *testing.T) {
	// Given: ldflags values and conflicting VCS settings
	stubBuildInfo(t, &debug.BuildInfo{
		Main: debug.Module{Version: "v9.9.9"},
		Settings: []debug.BuildSetting{
			{Key: "vcs.revision", Value: "ffffffffffffffffffff"},
		},
	})
	Version, Commit = "1.2.3", "abc123"

	// When: getting structured info
	info := GetInfo()

	// Then: ldflags values are kept
	assert.Equal(t, "1.2.3", info.Version)
	assert.Equal(t, "abc123", info.Commit)
	assert.Equal(t, runtime.GOOS, info.OS)
	assert.Equal(t, runtime.GOARCH, info.Arch)
}

func TestGetInfo_FallsBackToEmbeddedVCS(t *testing.T) {
	// Given: no ldflags and a go install build
	stubBuildInfo(t, &debug.BuildInfo{
		GoVersion: "go1.25.5",
		Main:      debug.Module{Version: "v0.3.0"},
		Settings: []debug.BuildSetting{
			{Key: "vcs.revision", Value: "0123456789abcdef0123"},
			{Key: "vcs.time", Value: "2026-01-02T03:04:05Z"},
			{Key: "vcs.modified", Value: "true"},
		},
	})

	// When: getting structured info
	info := GetInfo()

	// Then: embedded values fill the gaps
	assert.Equal(t, "v0.3.0", info.Version)
	assert.Equal(t, "0123456789ab", info.Commit)
	assert.Equal(t, "2026-01-02T03:04:05Z", info.Date)
	assert.True(t, info.Modified)
	assert.Equal(t, "go1.25.5", info.GoVersion)
	assert.Contains(t, String(), "0123456789ab-dirty")
}

func TestGetInfo_DevelBuildKeepsDev(t *testing.T) {
	stubBuildInfo(t, &debug.BuildInfo{Main: debug.Module{Version: "(devel)"}})

	assert.Equal(t, "dev", Short())
	assert.Equal(t, unknown, GetInfo().Commit)
}

func TestGetInfo_NoBuildInfo(t *testing.T) {
	stubBuildInfo(t, nil)

	info := GetInfo()

	assert.Equal(t, "dev", info.Version)
	assert.Equal(t, runtime.Version(), info.GoVersion)
}

func TestString_ContainsBuildInfo(t *testing.T) {
	stubBuildInfo(t, nil)
	Commit = "abc123"

	s := String()

	assert.Contains(t, s, "textindexer dev")
	assert.Contains(t, s, "commit: abc123")
	assert.Contains(t, s, runtime.GOOS+"/"+runtime.GOARCH)
	assert.NotContains(t, s, "dirty")
}

func TestBuildInfo_JSON(t *testing.T) {
	data, err := json.Marshal(BuildInfo{Version: "1.0.0", GoVersion: "go1.25.5"})

	require.NoError(t, err)
	assert.Contains(t, string(data), `"go_version":"go1.25.5"`)
	assert.NotContains(t, string(data), "modified")
}
