package hldr

// Version information for the HLDR detector.
const (
	// Version is the current version of the detector.
	Version = "0.1.0"

	// VersionMajor is the major version number.
	VersionMajor = 0

	// VersionMinor is the minor version number.
	VersionMinor = 1

	// VersionPatch is the patch version number.
	VersionPatch = 0
)

// Info provides runtime information about the detector.
type Info struct {
	// Version is the detector version string.
	Version string

	// Algorithm names the detection algorithm.
	Algorithm string
}

// GetInfo returns information about the detector.
func GetInfo() Info {
	return Info{
		Version:   Version,
		Algorithm: "view-consistency chain check (Artho et al.)",
	}
}
