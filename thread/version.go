package thread

// Version information for the threading primitives.
const (
	// Version is the current version of the thread package.
	Version = "0.1.0"

	// VersionMajor is the major version number.
	VersionMajor = 0

	// VersionMinor is the minor version number.
	VersionMinor = 1

	// VersionPatch is the patch version number.
	VersionPatch = 0
)

// Info provides runtime information about the threading primitives.
type Info struct {
	// Version is the package version string.
	Version string

	// Threads is the number of live threads started by this package.
	Threads int

	// CGO indicates whether the implementation requires CGO.
	CGO bool
}

// GetInfo returns information about the threading runtime.
//
// Example:
//
//	info := thread.GetInfo()
//	fmt.Printf("threadcore %s, %d threads\n", info.Version, info.Threads)
func GetInfo() Info {
	return Info{
		Version: Version,
		Threads: Count(),
		CGO:     false,
	}
}
