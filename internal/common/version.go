package common

import "fmt"

// Set at build time:
//
//	go build -ldflags "-X rtl-layout-auditor/internal/common.Version=1.2.0 -X rtl-layout-auditor/internal/common.Build=$(date +%F)"
var (
	Version   = "dev"
	Build     = "unknown"
	GitCommit = "unknown"
)

// GetVersion returns the version string
func GetVersion() string {
	return Version
}

// GetBuild returns the build timestamp
func GetBuild() string {
	return Build
}

// GetGitCommit returns the git commit hash
func GetGitCommit() string {
	return GitCommit
}

// GetFullVersion returns version, build and commit in one line
func GetFullVersion() string {
	if Build == "unknown" {
		return Version
	}
	return fmt.Sprintf("%s-%s (%s)", Version, Build, GitCommit)
}
