package types

import (
	"errors"
	"fmt"
)

var (
	ErrAlreadyInProgress    = errors.New("operation already in progress")
	ErrNetworkFailure       = errors.New("network failure")
	ErrServerFailure        = errors.New("server failure")
	ErrNotFound             = errors.New("application not found on update server")
	ErrParseFailure         = errors.New("invalid version response")
	ErrPermissionDenied     = errors.New("permission denied")
	ErrInstallerUnavailable = errors.New("installer unavailable")
	ErrIOFailure            = errors.New("i/o failure")
)

// StatusError is returned for unexpected HTTP status codes. It matches ErrServerFailure.
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected HTTP status: %d", e.StatusCode)
}

func (e *StatusError) Is(target error) bool {
	return target == ErrServerFailure
}

// ParseError reports a missing or mistyped field in a version response. It matches ErrParseFailure.
type ParseError struct {
	Field  string
	Reason string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("parse version response: %s", e.Reason)
	}
	return fmt.Sprintf("parse version response: field %q: %s", e.Field, e.Reason)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

func (e *ParseError) Is(target error) bool {
	return target == ErrParseFailure
}
