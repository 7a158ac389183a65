// ABOUTME: Build identity constants
// ABOUTME: Reported in logs and the TUI header
package version

const (
	// Version is the release version of this build.
	Version = "0.1.0"

	// Product is the user-facing product name.
	Product = "Mixdeck"
)
