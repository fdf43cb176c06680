package installer

import (
	"context"
	"errors"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"github.com/netbirdio/updater/client/internal/updatemanager/types"
)

// Installer hands downloaded artifacts to the platform. It never retries and never deletes the artifact.
type Installer struct {
	platform Platform
	fs       afero.Fs
	results  *ResultHandler
}

// New creates an installer. results may be nil when outcomes do not need to be persisted.
func New(platform Platform, fs afero.Fs, results *ResultHandler) *Installer {
	if platform == nil {
		platform = NewPlatform()
	}
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &Installer{
		platform: platform,
		fs:       fs,
		results:  results,
	}
}

func (i *Installer) Install(ctx context.Context, path string) (result types.InstallResult) {
	defer func() {
		if r := recover(); r != nil {
			log.Errorf("installer fault for %s: %v", path, r)
			result = types.InstallFailed(fmt.Errorf("%w: installer fault: %v", types.ErrInstallerUnavailable, r))
		}
		i.record(ctx, path, result)
	}()

	info, err := i.fs.Stat(path)
	if err != nil {
		return types.InstallFailed(fmt.Errorf("%w: artifact %s: %w", types.ErrIOFailure, path, err))
	}
	if info.IsDir() || info.Size() == 0 {
		return types.InstallFailed(fmt.Errorf("%w: artifact %s is not a valid file", types.ErrIOFailure, path))
	}

	t, err := TypeByFileExtension(path)
	if err != nil {
		log.Warnf("%v, manual installation required", err)
		return types.ManualRequired(path)
	}

	log.Infof("start installation of %s (%s)", path, t.MimeType())
	err = i.platform.Open(ctx, path, t)
	switch {
	case err == nil:
		return types.Installed()
	case errors.Is(err, ErrUnhandled):
		log.Warnf("platform could not handle %s: %v", path, err)
		return types.ManualRequired(path)
	default:
		log.Errorf("failed to hand over %s: %v", path, err)
		return types.InstallFailed(err)
	}
}

func (i *Installer) record(ctx context.Context, path string, result types.InstallResult) {
	if i.results == nil {
		return
	}

	r := Result{
		Kind:       result.Kind.String(),
		Path:       path,
		ExecutedAt: time.Now().UTC(),
	}
	if result.Err != nil {
		r.Error = result.Err.Error()
	}
	if err := i.results.Write(context.WithoutCancel(ctx), r); err != nil {
		log.Warnf("failed to write installer result: %v", err)
	}
}
