// Package version exposes build-time version information for the
// signature analysis binaries.
package version

// Set at build time with
// -ldflags "-X signature-analyzer/internal/version.Version=...".
var (
	// Version is the release version of the analysis core.
	Version = "0.1.0-dev"

	// BuildTime is the UTC timestamp of the build.
	BuildTime = "unknown"

	// GitCommit is the source revision the binary was built from.
	GitCommit = "unknown"
)
