package storage

import "errors"

var ErrInsufficientDiskSpace = errors.New("insufficient disk space")
