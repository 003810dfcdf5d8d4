// Package version carries build identification, set via ldflags:
// go build -ldflags "-X github.com/gitmcp/gitmcp/internal/version.Version=v1.2.0".
package version

var Version = "1.0.0"

// Build metadata, also set at link time.
var (
	BuildTime = "unknown"
	GitCommit = "unknown"
)
