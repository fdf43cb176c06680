package version

import (
	"strconv"
	"strings"
)

// will be replaced with the release version when using goreleaser
var version = "development"

// raw build number of the running binary, set with -ldflags "-X ...version.build=2042"
var build = "0"

// Info is a version string paired with its build number.
type Info struct {
	Version string `json:"version"`
	Build   int    `json:"build"`
}

func (i Info) String() string {
	return i.Version + "+" + strconv.Itoa(i.Build)
}

// Version returns the version of the running binary
func Version() string {
	return version
}

// RawBuild returns the build number of the running binary as it was embedded,
// including any architecture offset. Invalid values are reported as 0.
func RawBuild() int {
	n, err := strconv.Atoi(strings.TrimSpace(build))
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// Local reads the version information linked into the running binary.
type Local struct{}

func (Local) Current() (Info, error) {
	return Info{Version: Version(), Build: RawBuild()}, nil
}
