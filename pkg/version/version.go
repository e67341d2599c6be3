// Package version holds build metadata injected via -ldflags.
package version

var (
	// Version is the pipet version.
	Version = "dev"
	// GitCommit is the commit the binary was built from.
	GitCommit = ""
)
