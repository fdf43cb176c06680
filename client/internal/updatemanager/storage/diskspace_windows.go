//go:build windows

package storage

import (
	"fmt"

	"golang.org/x/sys/windows"
)

// CheckDiskSpace fails when path has less than required bytes available.
// Unknown sizes and failing queries are not treated as errors.
func CheckDiskSpace(path string, required int64) error {
	if required <= 0 {
		return nil
	}

	dir, err := windows.UTF16PtrFromString(path)
	if err != nil {
		return nil
	}

	var available, total, free uint64
	if err := windows.GetDiskFreeSpaceEx(dir, &available, &total, &free); err != nil {
		return nil
	}

	if int64(available) < required {
		return fmt.Errorf("%w: required %d bytes, available %d bytes", ErrInsufficientDiskSpace, required, available)
	}
	return nil
}
