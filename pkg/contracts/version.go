// Package contracts holds the shared domain types and the version
// information of the module.
package contracts

import (
	"fmt"
	"runtime"
)

// Version is the current application version.
const Version = "3.0.0"

var (
	// BuildTime is set during build using ldflags.
	BuildTime = "unknown"

	// GitCommit is set during build using ldflags.
	GitCommit = "unknown"
)

// VersionInfo contains detailed version information.
type VersionInfo struct {
	Version      string `json:"version"`
	BuildTime    string `json:"build_time"`
	GitCommit    string `json:"git_commit"`
	GoVersion    string `json:"go_version"`
	OS           string `json:"os"`
	Architecture string `json:"architecture"`
}

// GetVersionInfo returns detailed version information.
func GetVersionInfo() VersionInfo {
	return VersionInfo{
		Version:      Version,
		BuildTime:    BuildTime,
		GitCommit:    GitCommit,
		GoVersion:    runtime.Version(),
		OS:           runtime.GOOS,
		Architecture: runtime.GOARCH,
	}
}

// GetVersionString returns a formatted version string.
func GetVersionString() string {
	return fmt.Sprintf("spooker v%s", Version)
}

// GetFullVersionString returns a detailed version string.
func GetFullVersionString() string {
	info := GetVersionInfo()
	return fmt.Sprintf("%s (built: %s, commit: %s, go: %s, os: %s/%s)",
		GetVersionString(), info.BuildTime, info.GitCommit,
		info.GoVersion, info.OS, info.Architecture)
}
