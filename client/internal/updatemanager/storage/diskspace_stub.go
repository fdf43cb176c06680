//go:build !darwin && !freebsd && !linux && !windows

package storage

func CheckDiskSpace(path string, required int64) error {
	return nil
}
