package cli

import (
	"fmt"
	"strings"
)

const unknownBuildValue = "unknown"

var (
	// AppVersion is intended to be overridden at build time:
	// go build -ldflags="-X github.com/nimburion/notify/pkg/cli.AppVersion=v1.2.3"
	AppVersion = "dev"

	// GitCommit is intended to be overridden at build time.
	GitCommit = unknownBuildValue

	// BuildTime is intended to be overridden at build time (RFC3339 recommended).
	BuildTime = unknownBuildValue
)

// VersionInfo contains build metadata for the binary.
type VersionInfo struct {
	Name      string `json:"name" yaml:"name"`
	Version   string `json:"version" yaml:"version"`
	Commit    string `json:"commit" yaml:"commit"`
	BuildTime string `json:"build_time" yaml:"build_time"`
}

// CurrentVersion returns the build metadata for name.
func CurrentVersion(name string) VersionInfo {
	return VersionInfo{
		Name:      orDefault(name, unknownBuildValue),
		Version:   orDefault(AppVersion, "dev"),
		Commit:    orDefault(GitCommit, unknownBuildValue),
		BuildTime: orDefault(BuildTime, unknownBuildValue),
	}
}

func (v VersionInfo) String() string {
	return fmt.Sprintf("%s %s (commit=%s, build_time=%s)", v.Name, v.Version, v.Commit, v.BuildTime)
}

func orDefault(v, fallback string) string {
	if trimmed := strings.TrimSpace(v); trimmed != "" {
		return trimmed
	}
	return fallback
}
