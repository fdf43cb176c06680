//go:build !linux && !darwin && !freebsd && !windows

package installer

import (
	"context"
	"fmt"
	"runtime"

	"github.com/netbirdio/updater/client/internal/updatemanager/types"
)

type unsupportedPlatform struct{}

func NewPlatform() Platform {
	return unsupportedPlatform{}
}

func (unsupportedPlatform) Open(context.Context, string, Type) error {
	return fmt.Errorf("%w: %s", types.ErrInstallerUnavailable, runtime.GOOS)
}
