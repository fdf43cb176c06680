//go:build darwin || freebsd || linux

package storage

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// CheckDiskSpace fails when path has less than required bytes available.
// Unknown sizes and failing statfs calls are not treated as errors.
func CheckDiskSpace(path string, required int64) error {
	if required <= 0 {
		return nil
	}

	var stat unix.Statfs_t
	if err := unix.Statfs(path, &stat); err != nil {
		return nil
	}

	available := int64(stat.Bavail) * int64(stat.Bsize)
	if available < required {
		return fmt.Errorf("%w: required %d bytes, available %d bytes", ErrInsufficientDiskSpace, required, available)
	}
	return nil
}
