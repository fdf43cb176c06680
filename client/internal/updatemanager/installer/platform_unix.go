//go:build linux || darwin || freebsd

package installer

import (
	"context"
	"errors"
	"fmt"
	"os/exec"

	log "github.com/sirupsen/logrus"
	"github.com/skratchdot/open-golang/open"
)

type opener func(input string) error

// openerPlatform hands artifacts to the desktop content handler (open on macOS, xdg-open elsewhere)
type openerPlatform struct {
	open opener
}

func NewPlatform() Platform {
	return &openerPlatform{open: open.Run}
}

func (p *openerPlatform) Open(ctx context.Context, path string, t Type) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	log.Infof("handing %s artifact to the system handler: %s", t, path)
	err := p.open(path)
	if err == nil {
		return nil
	}

	var exitErr *exec.ExitError
	var execErr *exec.Error
	switch {
	case errors.As(err, &exitErr):
		return fmt.Errorf("%w: handler exited with %d", ErrUnhandled, exitErr.ExitCode())
	case errors.As(err, &execErr):
		log.Warnf("no system handler available: %v", err)
		return fmt.Errorf("%w: %v", ErrUnhandled, err)
	default:
		return fmt.Errorf("open %s: %w", path, err)
	}
}
