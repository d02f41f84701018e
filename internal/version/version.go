// Package version reports build metadata for the ecorpus binary.
//
// Version, Commit and Date may be injected at link time:
//
//	-ldflags "-X ecorpus-go/internal/version.Version=v1.0.0 -X ecorpus-go/internal/version.Commit=abc123"
//
// Otherwise they are read from the module build info, falling back to
// development placeholders.
package version

import (
	"fmt"
	"runtime/debug"
)

var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

// Info contains version information.
type Info struct {
	Version string `json:"version"`
	Commit  string `json:"commit"`
	Date    string `json:"date"`
}

// buildInfo is swapped in tests.
var buildInfo = debug.ReadBuildInfo

func setting(key string) string {
	info, ok := buildInfo()
	if !ok {
		return ""
	}
	for _, s := range info.Settings {
		if s.Key == key {
			return s.Value
		}
	}
	return ""
}

// GetVersion prefers the link-time version, then the module version.
func GetVersion() string {
	if Version != "dev" && Version != "" {
		return Version
	}
	if info, ok := buildInfo(); ok && info.Main.Version != "" && info.Main.Version != "(devel)" {
		return info.Main.Version
	}
	return "development"
}

func GetCommit() string {
	if Commit != "unknown" && Commit != "" {
		return Commit
	}
	if rev := setting("vcs.revision"); rev != "" {
		return rev
	}
	return "unknown"
}

func GetBuildDate() string {
	if Date != "unknown" && Date != "" {
		return Date
	}
	if t := setting("vcs.time"); t != "" {
		return t
	}
	return "unknown"
}

func GetInfo() Info {
	return Info{Version: GetVersion(), Commit: GetCommit(), Date: GetBuildDate()}
}

// GetFullVersion formats the version with a short commit and the build date
// when they are known.
func GetFullVersion() string {
	info := GetInfo()
	if info.Commit == "unknown" || len(info.Commit) <= 7 {
		return info.Version
	}
	short := info.Commit[:7]
	if info.Date != "unknown" {
		return fmt.Sprintf("%s (%s, built %s)", info.Version, short, info.Date)
	}
	return fmt.Sprintf("%s (%s)", info.Version, short)
}
