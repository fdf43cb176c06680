package installer

import (
	"context"
	"errors"
)

// ErrUnhandled is returned by a Platform that could not find a handler for the artifact.
// The artifact is intact and can still be installed manually.
var ErrUnhandled = errors.New("no handler accepted the artifact")

// Platform hands an artifact to the operating system's content handling
type Platform interface {
	Open(ctx context.Context, path string, t Type) error
}

// PlatformFunc adapts a function to Platform
type PlatformFunc func(ctx context.Context, path string, t Type) error

func (f PlatformFunc) Open(ctx context.Context, path string, t Type) error {
	return f(ctx, path, t)
}
