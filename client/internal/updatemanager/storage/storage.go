// Package storage resolves where downloaded artifacts live and gives the
// update manager a filesystem to write them to.
package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
)

type Intent int

const (
	Downloads Intent = iota
)

func (i Intent) String() string {
	switch i {
	case Downloads:
		return "downloads"
	default:
		return fmt.Sprintf("Intent(%d)", int(i))
	}
}

// Resolver returns a writable directory for an intent
type Resolver interface {
	Resolve(intent Intent) (string, error)
}

// Storage pairs a resolver with the filesystem the directory lives on
type Storage struct {
	Fs       afero.Fs
	Resolver Resolver
}

// NewOsStorage stores artifacts on the host filesystem
func NewOsStorage(resolver Resolver) *Storage {
	return &Storage{Fs: afero.NewOsFs(), Resolver: resolver}
}

// Dir resolves intent and makes sure the directory exists
func (s *Storage) Dir(intent Intent) (string, error) {
	dir, err := s.Resolver.Resolve(intent)
	if err != nil {
		return "", fmt.Errorf("resolve %s directory: %w", intent, err)
	}
	if err := s.Fs.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create %s directory: %w", intent, err)
	}
	return dir, nil
}

// DirResolver resolves every intent below a fixed root
type DirResolver struct {
	Root string
}

func (r DirResolver) Resolve(intent Intent) (string, error) {
	if r.Root == "" {
		return "", errors.New("no storage root configured")
	}
	return filepath.Join(r.Root, intent.String()), nil
}

// StaticResolver returns the same directory for every intent
type StaticResolver string

func (r StaticResolver) Resolve(Intent) (string, error) {
	if r == "" {
		return "", errors.New("no directory configured")
	}
	return string(r), nil
}

// DefaultResolver keeps artifacts in the per-user cache directory of appID
func DefaultResolver(appID string) (Resolver, error) {
	cacheDir, err := os.UserCacheDir()
	if err != nil {
		cacheDir = os.TempDir()
	}
	if appID == "" {
		return nil, errors.New("app id is required")
	}
	return DirResolver{Root: filepath.Join(cacheDir, appID)}, nil
}
