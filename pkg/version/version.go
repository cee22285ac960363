// Package version holds the keyspan version string.
package version

// Version is the current keyspan version.
// Overridden at build time via -ldflags "-X .../pkg/version.Version=vX.Y.Z".
var Version = "v0.3.0"
