// Package version holds build identification injected via -ldflags.
package version

import "fmt"

var (
	// Version is the current application version
	Version = "dev"
	// GitSHA is the git commit SHA
	GitSHA = "unknown"
	// BuildTime is the build timestamp
	BuildTime = "unknown"
)

// String returns the one-line form used by -version flags and the
// /api/version endpoint.
func String() string {
	return fmt.Sprintf("lanetrack %s (%s, built %s)", Version, GitSHA, BuildTime)
}
