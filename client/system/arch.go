package system

import (
	"runtime"

	"github.com/netbirdio/updater/version"
)

// Arch is a platform ABI tag. The empty value means the platform has no such concept.
type Arch string

var goArchToABI = map[string]Arch{
	"arm":   version.ArchARMv7,
	"arm64": version.ArchARM64,
	"386":   version.ArchX86,
	"amd64": version.ArchX86_64,
}

// DetectArch returns the ABI tag of the running binary
func DetectArch() Arch {
	return archOf(runtime.GOARCH)
}

func archOf(goarch string) Arch {
	return goArchToABI[goarch]
}

// ArchDetector reports the ABI tag of the running platform
type ArchDetector interface {
	Arch() Arch
}

// RuntimeArch detects the tag from the Go runtime
type RuntimeArch struct{}

func (RuntimeArch) Arch() Arch {
	return DetectArch()
}

// StaticArch always reports the same tag, used when the tag is configured explicitly
type StaticArch Arch

func (s StaticArch) Arch() Arch {
	return Arch(s)
}
