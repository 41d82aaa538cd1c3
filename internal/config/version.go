package config

import (
	"fmt"
)

// Set with -ldflags "-X github.com/bobmcallan/auth-mcp/internal/config.Version=...".
var (
	Version   = "dev"
	Build     = "unknown"
	GitCommit = "unknown"
)

// BuildInfo is the build metadata reported by --version, the startup log
// and the initialize handshake.
type BuildInfo struct {
	Version   string
	Build     string
	GitCommit string
}

func (b BuildInfo) String() string {
	return fmt.Sprintf("%s (build: %s, commit: %s)", b.Version, b.Build, b.GitCommit)
}

// GetBuildInfo returns the linked-in build metadata.
func GetBuildInfo() BuildInfo {
	return BuildInfo{Version: Version, Build: Build, GitCommit: GitCommit}
}

// GetVersion returns the version advertised as serverInfo.version.
func GetVersion() string {
	return Version
}

// GetFullVersion returns version with build info.
func GetFullVersion() string {
	return GetBuildInfo().String()
}
