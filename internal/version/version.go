// Package version holds build-time identifiers, overridden via -ldflags in
// release builds. Left as defaults in local/dev builds.
package version

var (
	// Version is the registryd release version.
	Version = "dev"
	// Commit is the git commit SHA the binary was built from.
	Commit = "unknown"
)
