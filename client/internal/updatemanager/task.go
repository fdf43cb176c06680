package updatemanager

import (
	"context"

	"github.com/netbirdio/updater/client/internal/updatemanager/types"
)

// DownloadTask is a download running in the background. Progress carries the
// most recent update only; slow consumers skip intermediate values.
type DownloadTask struct {
	progress chan types.DownloadProgress
	done     chan struct{}
	cancel   context.CancelFunc
	result   types.DownloadResult
}

// StartDownload runs DownloadArtifact on its own goroutine
func (m *Manager) StartDownload(ctx context.Context, info types.VersionInfo) *DownloadTask {
	m.ensureInitialized("StartDownload")

	ctx, cancel := context.WithCancel(ctx)
	t := &DownloadTask{
		progress: make(chan types.DownloadProgress, 1),
		done:     make(chan struct{}),
		cancel:   cancel,
	}

	go func() {
		defer close(t.done)
		defer close(t.progress)
		defer cancel()

		t.result = m.DownloadArtifact(ctx, info, t.publish)
	}()
	return t
}

// publish replaces a pending value so the latest progress is always delivered
func (t *DownloadTask) publish(p types.DownloadProgress) {
	select {
	case t.progress <- p:
		return
	default:
	}

	select {
	case <-t.progress:
	default:
	}

	select {
	case t.progress <- p:
	default:
	}
}

// Progress is closed when the download has finished
func (t *DownloadTask) Progress() <-chan types.DownloadProgress {
	return t.progress
}

func (t *DownloadTask) Done() <-chan struct{} {
	return t.done
}

func (t *DownloadTask) Cancel() {
	t.cancel()
}

// Wait blocks until the download has finished and returns its result
func (t *DownloadTask) Wait() types.DownloadResult {
	<-t.done
	return t.result
}
