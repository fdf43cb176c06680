package updatemanager

import (
	"context"
	"errors"
	"sync"
	"time"

	goversion "github.com/hashicorp/go-version"
	log "github.com/sirupsen/logrus"

	"github.com/netbirdio/updater/client/internal/updatemanager/types"
)

const DefaultWatchPeriod = 30 * time.Minute

// Watcher checks for updates periodically and notifies a listener when a
// different version becomes available.
type Watcher struct {
	manager *Manager

	lastAvailable *types.VersionInfo
	versionsLock  sync.Mutex

	onUpdateListener func(info types.VersionInfo)
	listenerLock     sync.Mutex

	cancel    context.CancelFunc
	wg        sync.WaitGroup
	watchLock sync.Mutex
}

func NewWatcher(manager *Manager) *Watcher {
	return &Watcher{manager: manager}
}

// SetOnUpdateListener registers fn. It is called right away when an update is already known.
func (w *Watcher) SetOnUpdateListener(fn func(info types.VersionInfo)) {
	w.listenerLock.Lock()
	defer w.listenerLock.Unlock()

	w.onUpdateListener = fn

	w.versionsLock.Lock()
	last := w.lastAvailable
	w.versionsLock.Unlock()

	if fn != nil && last != nil {
		fn(*last)
	}
}

// StartWatch checks immediately and then every period until StopWatch or ctx is done
func (w *Watcher) StartWatch(ctx context.Context, period time.Duration) {
	w.watchLock.Lock()
	defer w.watchLock.Unlock()

	if w.cancel != nil {
		log.Errorf("update watcher already started")
		return
	}
	if period <= 0 {
		period = DefaultWatchPeriod
	}

	ctx, cancel := context.WithCancel(ctx)
	w.cancel = cancel

	w.wg.Add(1)
	go w.watchLoop(ctx, period)
}

// StopWatch stops the loop and waits for a running check to return
func (w *Watcher) StopWatch() {
	w.watchLock.Lock()
	defer w.watchLock.Unlock()

	if w.cancel == nil {
		return
	}
	w.cancel()
	w.wg.Wait()
	w.cancel = nil
}

func (w *Watcher) watchLoop(ctx context.Context, period time.Duration) {
	defer w.wg.Done()

	w.check(ctx)

	ticker := time.NewTicker(period)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.check(ctx)
		}
	}
}

func (w *Watcher) check(ctx context.Context) {
	result := w.manager.CheckForUpdate(ctx)
	switch result.Kind {
	case types.CheckAvailable:
		if w.setAvailable(*result.Info) {
			w.notify(*result.Info)
		}
	case types.CheckNotAvailable:
		log.Debugf("watcher: no update available")
	case types.CheckDisabled:
		log.Debugf("watcher: update checks are disabled")
	case types.CheckError:
		if errors.Is(result.Err, types.ErrAlreadyInProgress) {
			log.Debugf("watcher: skipping tick, %v", result.Err)
			return
		}
		log.Warnf("watcher: update check failed: %s", result.Message())
	}
}

// setAvailable records info and reports whether it differs from the last known update
func (w *Watcher) setAvailable(info types.VersionInfo) bool {
	w.versionsLock.Lock()
	defer w.versionsLock.Unlock()

	if w.lastAvailable != nil && sameRelease(*w.lastAvailable, info) {
		return false
	}
	w.lastAvailable = &info
	return true
}

func (w *Watcher) notify(info types.VersionInfo) {
	w.listenerLock.Lock()
	defer w.listenerLock.Unlock()
	if w.onUpdateListener == nil {
		return
	}

	w.onUpdateListener(info)
}

func sameRelease(a, b types.VersionInfo) bool {
	if a.Build != b.Build {
		return false
	}

	av, aerr := goversion.NewVersion(a.Version)
	bv, berr := goversion.NewVersion(b.Version)
	if aerr != nil || berr != nil {
		return a.Version == b.Version
	}
	return av.Equal(bv)
}
