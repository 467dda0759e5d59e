// Package version reports what binary is running
package version

import "runtime"

// stamped with -ldflags "-X shelfscan/internal/core/version.version=v0.3.0 ..."
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

type BuildInfo struct {
	Service string `json:"service"`
	Version string `json:"version"`
	Commit  string `json:"commit"`
	Date    string `json:"date"`
	Go      string `json:"go"`
}

func Info() BuildInfo {
	return BuildInfo{Service: "shelfscan-api", Version: version, Commit: commit, Date: date, Go: runtime.Version()}
}
