package nqcrypt

import "fmt"

// Version of the nqcrypt library
const Version = "0.3.0"

// Build information (set by ldflags during build)
var (
	GitCommit string
	BuildDate string
)

// VersionInfo returns formatted version information
func VersionInfo() string {
	if GitCommit == "" {
		return fmt.Sprintf("nqcrypt v%s", Version)
	}
	return fmt.Sprintf("nqcrypt v%s (commit: %s, built: %s)", Version, shortCommit(GitCommit), BuildDate)
}

// VersionDetails contains detailed version information
type VersionDetails struct {
	Version   string `json:"version" yaml:"version"`
	GitCommit string `json:"git_commit,omitempty" yaml:"git_commit,omitempty"`
	BuildDate string `json:"build_date,omitempty" yaml:"build_date,omitempty"`
}

// FullVersionInfo returns the version and build details.
func FullVersionInfo() VersionDetails {
	return VersionDetails{
		Version:   Version,
		GitCommit: GitCommit,
		BuildDate: BuildDate,
	}
}

func shortCommit(commit string) string {
	if len(commit) > 7 {
		return commit[:7]
	}
	return commit
}
