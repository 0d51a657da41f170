// Package version reports which textindexer build is running.
//
// Release builds stamp Version, Commit and Date through ldflags:
//
//	-X github.com/Aman-CERP/textindexer/pkg/version.Version=$(VERSION)
//
// Builds without ldflags (go install, go build in a checkout) fall back to
// the module version and VCS settings the toolchain embeds.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

const unknown = "unknown"

// Set via ldflags.
var (
	Version = "dev"
	Commit  = unknown
	Date    = unknown
)

// readBuildInfo is replaced in tests.
var readBuildInfo = debug.ReadBuildInfo

// BuildInfo is structured version information for JSON output.
type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	Date      string `json:"date"`
	Modified  bool   `json:"modified,omitempty"`
	GoVersion string `json:"go_version"`
	OS        string `json:"os"`
	Arch      string `json:"arch"`
}

// Platform returns "os/arch".
func (b BuildInfo) Platform() string {
	return b.OS + "/" + b.Arch
}

// GetInfo returns the build information, preferring ldflags values over
// what the toolchain embedded.
func GetInfo() BuildInfo {
	info := BuildInfo{
		Version:   Version,
		Commit:    Commit,
		Date:      Date,
		GoVersion: runtime.Version(),
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
	}
	if bi, ok := readBuildInfo(); ok {
		info = withEmbedded(info, bi)
	}
	return info
}

// withEmbedded fills fields still at their defaults from bi.
func withEmbedded(info BuildInfo, bi *debug.BuildInfo) BuildInfo {
	if info.Version == "dev" && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
		info.Version = bi.Main.Version
	}
	if bi.GoVersion != "" {
		info.GoVersion = bi.GoVersion
	}
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			if info.Commit == unknown {
				info.Commit = shortRevision(s.Value)
			}
		case "vcs.time":
			if info.Date == unknown {
				info.Date = s.Value
			}
		case "vcs.modified":
			info.Modified = s.Value == "true"
		}
	}
	return info
}

func shortRevision(rev string) string {
	if len(rev) > 12 {
		return rev[:12]
	}
	return rev
}

// String returns a one-line summary of the build.
func String() string {
	info := GetInfo()
	commit := info.Commit
	if info.Modified {
		commit += "-dirty"
	}
	return fmt.Sprintf("textindexer %s (commit: %s, built: %s, go: %s, %s)",
		info.Version, commit, info.Date, info.GoVersion, info.Platform())
}

// Short returns just the version.
func Short() string {
	return GetInfo().Version
}
