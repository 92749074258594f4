// Package version holds build metadata injected via ldflags:
//
//	-X github.com/kailas-cloud/docfusion/internal/version.Version=v1.2.0
package version

import "fmt"

//nolint:revive // Set via ldflags at build time.
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

// String renders the metadata as one line prefixed with the binary name.
func String() string {
	return fmt.Sprintf("docfusion %s (commit %s, built %s)", Version, Commit, Date)
}
