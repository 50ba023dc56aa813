// ABOUTME: Product and version constants
// ABOUTME: Reported by the CLI, the monitor endpoint and the mDNS advertisement
package version

const (
	// Product is the human readable product name
	Product = "Noisemaker"

	// Manufacturer identifies the maintainer
	Manufacturer = "Resonate"

	// Version is the release version
	Version = "0.3.0"
)

// String returns "Product Version"
func String() string {
	return Product + " " + Version
}
