// Package versions provides version information for kauth.
package versions

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

// Build-time values, set via ldflags by the release pipeline.
var (
	// Version is the current version of kauth
	Version = "dev"
	// Commit is the git commit hash of the build
	Commit = "unknown"
	// BuildDate is the date when the binary was built
	BuildDate = "unknown"
)

// VersionInfo represents the version information of the binary.
type VersionInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildDate string `json:"build_date"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
}

// GetVersionInfo returns the version information, falling back to Go module
// build info when ldflags were not set (e.g. `go install`).
func GetVersionInfo() VersionInfo {
	version := Version
	commit := Commit

	if info, ok := debug.ReadBuildInfo(); ok {
		if version == "dev" && info.Main.Version != "" && info.Main.Version != "(devel)" {
			version = info.Main.Version
		}
		if commit == "unknown" {
			for _, setting := range info.Settings {
				if setting.Key == "vcs.revision" {
					commit = setting.Value
					break
				}
			}
		}
	}

	return VersionInfo{
		Version:   version,
		Commit:    commit,
		BuildDate: BuildDate,
		GoVersion: runtime.Version(),
		Platform:  fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH),
	}
}
