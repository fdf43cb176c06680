package installer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	log "github.com/sirupsen/logrus"

	"github.com/netbirdio/updater/util"
)

const resultFile = "result.json"

// Result is the persisted outcome of the last install hand-off
type Result struct {
	Kind       string    `json:"kind"`
	Path       string    `json:"path"`
	Error      string    `json:"error,omitempty"`
	ExecutedAt time.Time `json:"executedAt"`
}

func (r Result) Success() bool {
	return r.Kind == "success"
}

// ResultHandler persists install results so other processes (a UI, the CLI) can pick them up
type ResultHandler struct {
	resultFile string
}

// NewResultHandler stores results as result.json in dir
func NewResultHandler(dir string) *ResultHandler {
	return &ResultHandler{
		resultFile: filepath.Join(dir, resultFile),
	}
}

func (rh *ResultHandler) Path() string {
	return rh.resultFile
}

// Write replaces the stored result atomically
func (rh *ResultHandler) Write(ctx context.Context, result Result) error {
	log.Debugf("write out installer result to: %s", rh.resultFile)
	return util.WriteJson(ctx, rh.resultFile, result)
}

// Read returns the stored result, os.ErrNotExist when there is none
func (rh *ResultHandler) Read() (Result, error) {
	var result Result
	if _, err := util.ReadJson(rh.resultFile, &result); err != nil {
		return Result{}, err
	}
	return result, nil
}

// Cleanup removes the result file if it exists
func (rh *ResultHandler) Cleanup() error {
	return util.RemoveJson(rh.resultFile)
}

// Watch blocks until a result is available or ctx is done. An existing result is returned immediately.
func (rh *ResultHandler) Watch(ctx context.Context) (Result, error) {
	dir := filepath.Dir(rh.resultFile)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Result{}, fmt.Errorf("create result directory: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return Result{}, fmt.Errorf("create watcher: %w", err)
	}
	defer func() {
		if err := watcher.Close(); err != nil {
			log.Warnf("failed to close watcher: %v", err)
		}
	}()

	// the directory, not the file: the file is created by rename
	if err := watcher.Add(dir); err != nil {
		return Result{}, fmt.Errorf("failed to watch directory: %w", err)
	}

	// the result may have been written before the watch was in place
	if result, err := rh.Read(); err == nil {
		return result, nil
	}

	log.Infof("waiting for installer result: %s", rh.resultFile)
	for {
		select {
		case <-ctx.Done():
			return Result{}, ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return Result{}, errors.New("watcher closed unexpectedly")
			}
			if event.Name != rh.resultFile || !event.Has(fsnotify.Create|fsnotify.Write) {
				continue
			}
			result, err := rh.Read()
			if err != nil {
				log.Debugf("result not readable yet: %v", err)
				continue
			}
			return result, nil
		case err, ok := <-watcher.Errors:
			if !ok {
				return Result{}, errors.New("watcher closed unexpectedly")
			}
			return Result{}, fmt.Errorf("watcher error: %w", err)
		}
	}
}
