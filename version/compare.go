package version

import (
	"errors"
	"math"
	"strconv"
	"strings"
)

// IsNewer reports whether candidate is a newer release than current.
// The build number decides first, the dotted version string only breaks ties.
func IsNewer(current, candidate Info) bool {
	if candidate.Build != current.Build {
		return candidate.Build > current.Build
	}
	return CompareVersions(candidate.Version, current.Version) > 0
}

// CompareVersions compares two dotted version strings segment by segment.
// Non-numeric segments count as 0, numeric segments beyond the int range saturate,
// and the shorter version is padded with zeros, so "1.0" and "1.0.0" are equal.
func CompareVersions(a, b string) int {
	as := segments(a)
	bs := segments(b)

	n := max(len(as), len(bs))
	for i := 0; i < n; i++ {
		var x, y int
		if i < len(as) {
			x = as[i]
		}
		if i < len(bs) {
			y = bs[i]
		}
		switch {
		case x > y:
			return 1
		case x < y:
			return -1
		}
	}
	return 0
}

func segments(v string) []int {
	parts := strings.Split(v, ".")
	out := make([]int, len(parts))
	for i, p := range parts {
		out[i] = segment(strings.TrimSpace(p))
	}
	return out
}

func segment(p string) int {
	n, err := strconv.Atoi(p)
	if err == nil {
		return n
	}
	if errors.Is(err, strconv.ErrRange) {
		if strings.HasPrefix(p, "-") {
			return math.MinInt
		}
		return math.MaxInt
	}
	return 0
}
