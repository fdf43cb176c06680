package installer

import (
	"context"
	"errors"
	"fmt"
	"os/exec"

	log "github.com/sirupsen/logrus"
)

type windowsPlatform struct{}

// NewPlatform starts MSI packages through msiexec and EXE installers directly
func NewPlatform() Platform {
	return windowsPlatform{}
}

func (windowsPlatform) Open(_ context.Context, path string, t Type) error {
	var cmd *exec.Cmd
	switch t {
	case TypeMSI:
		cmd = exec.Command("msiexec", "/i", path)
	case TypeEXE:
		cmd = exec.Command(path)
	default:
		return fmt.Errorf("%w: %s artifacts are not installable on windows", ErrUnhandled, t)
	}

	// the installer must outlive this process
	setUpdaterProcAttr(cmd)

	if err := cmd.Start(); err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return fmt.Errorf("%w: %v", ErrUnhandled, err)
		}
		log.Errorf("error starting installer: %v", err)
		return err
	}

	if err := cmd.Process.Release(); err != nil {
		log.Warnf("failed to release installer process: %v", err)
	}

	log.Infof("installer started successfully: %s", path)
	return nil
}
