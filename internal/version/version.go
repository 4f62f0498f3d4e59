// Package version carries build metadata stamped in via -ldflags.
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

// String returns the one-line form used in startup logs and the version
// endpoint.
func String() string {
	return fmt.Sprintf("luxreport %s (%s, built %s)", Version, GitSHA, BuildTime)
}
