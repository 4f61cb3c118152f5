// Package version holds the build-time version string, set with
// -ldflags at release time.
package version

// Version is overwritten by the release build via -ldflags
// "-X github.com/dm-line/lineemu/pkg/version.Version=...".
var Version = "dev"
