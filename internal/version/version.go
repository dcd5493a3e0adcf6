// Package version carries build-time identity for konserve.
package version

// Marker is the fingerprint string stamped into every archive's manifest
// and checked again at restore time. Release builds override it with
//
//	-ldflags "-X konserve-go/internal/version.Marker=<value>"
var Marker = "DEFAULT_FINGERPRINT"

// Version is the human-readable release version, also set via ldflags.
var Version = "dev"
