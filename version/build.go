package version

// Architecture tags as reported by client/system.
const (
	ArchARMv7  = "armeabi-v7a"
	ArchARM64  = "arm64-v8a"
	ArchX86    = "x86"
	ArchX86_64 = "x86_64"
)

// split builds share one version but carry a per-architecture offset in the build number
const bandWidth = 1000

var buildOffsets = map[string]int{
	ArchARMv7:  1000,
	ArchARM64:  2000,
	ArchX86:    3000,
	ArchX86_64: 4000,
}

// BuildOffset returns the additive offset used for split builds of arch
func BuildOffset(arch string) (int, bool) {
	offset, ok := buildOffsets[arch]
	return offset, ok
}

// NormalizeBuild removes the architecture offset from a raw build number.
// Builds outside the band of arch, and builds for unknown architectures, are returned unchanged.
func NormalizeBuild(raw int, arch string) int {
	offset, ok := buildOffsets[arch]
	if !ok {
		return raw
	}
	if raw >= offset && raw < offset+bandWidth {
		return raw - offset
	}
	return raw
}
