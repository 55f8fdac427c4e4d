// Package buildinfo carries the identity constants and build stamps the
// boot banner, uname, and the window title report.
package buildinfo

// OSName and OSRelease identify the system to uname and the boot banner.
const (
	OSName    = "IronVeil"
	OSRelease = "nexis"
)

// ABIVersion is the syscall ABI the kernel exposes to NVEX program
// images. The loader rejects images built against a newer or different
// major version.
const ABIVersion = "1.0.0"

// Build stamps, overridden at link time:
//
//	-ldflags "-X ironveil/internal/buildinfo.Version=v0.3.0"
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

// Short picks the most specific stamp available: a release version,
// else a commit hash, else "dev".
func Short() string {
	if Version != "" && Version != "dev" {
		return Version
	}
	if Commit != "" && Commit != "unknown" {
		return Commit
	}
	return "dev"
}
