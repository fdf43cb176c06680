package types

import "fmt"

type CheckKind int

const (
	CheckNotAvailable CheckKind = iota
	CheckAvailable
	CheckError
	CheckDisabled
)

func (k CheckKind) String() string {
	switch k {
	case CheckNotAvailable:
		return "not-available"
	case CheckAvailable:
		return "available"
	case CheckError:
		return "error"
	case CheckDisabled:
		return "disabled"
	default:
		return fmt.Sprintf("CheckKind(%d)", int(k))
	}
}

// CheckResult is the outcome of an update check. Info is set for CheckAvailable, Err for CheckError.
type CheckResult struct {
	Kind CheckKind
	Info *VersionInfo
	Err  error
}

func Available(info VersionInfo) CheckResult {
	return CheckResult{Kind: CheckAvailable, Info: &info}
}

func NotAvailable() CheckResult {
	return CheckResult{Kind: CheckNotAvailable}
}

func CheckFailed(err error) CheckResult {
	return CheckResult{Kind: CheckError, Err: err}
}

func Disabled() CheckResult {
	return CheckResult{Kind: CheckDisabled}
}

func (r CheckResult) Message() string {
	switch r.Kind {
	case CheckAvailable:
		return fmt.Sprintf("update %s available", r.Info.DisplayVersion)
	case CheckNotAvailable:
		return "no update available"
	case CheckError:
		return shortMessage(r.Err)
	case CheckDisabled:
		return "update checks are disabled"
	default:
		return r.Kind.String()
	}
}

func (r CheckResult) Cause() error {
	return r.Err
}

type DownloadKind int

const (
	DownloadSuccess DownloadKind = iota
	DownloadError
	DownloadCancelled
)

func (k DownloadKind) String() string {
	switch k {
	case DownloadSuccess:
		return "success"
	case DownloadError:
		return "error"
	case DownloadCancelled:
		return "cancelled"
	default:
		return fmt.Sprintf("DownloadKind(%d)", int(k))
	}
}

// DownloadResult is the outcome of an artifact download. Path is set for DownloadSuccess.
type DownloadResult struct {
	Kind DownloadKind
	Path string
	Err  error
}

func Downloaded(path string) DownloadResult {
	return DownloadResult{Kind: DownloadSuccess, Path: path}
}

func DownloadFailed(err error) DownloadResult {
	return DownloadResult{Kind: DownloadError, Err: err}
}

func Cancelled() DownloadResult {
	return DownloadResult{Kind: DownloadCancelled}
}

func (r DownloadResult) Message() string {
	switch r.Kind {
	case DownloadSuccess:
		return "downloaded to " + r.Path
	case DownloadError:
		return shortMessage(r.Err)
	case DownloadCancelled:
		return "download cancelled"
	default:
		return r.Kind.String()
	}
}

func (r DownloadResult) Cause() error {
	return r.Err
}

type InstallKind int

const (
	InstallSuccess InstallKind = iota
	InstallManualRequired
	InstallError
	InstallPermissionDenied
)

func (k InstallKind) String() string {
	switch k {
	case InstallSuccess:
		return "success"
	case InstallManualRequired:
		return "manual-required"
	case InstallError:
		return "error"
	case InstallPermissionDenied:
		return "permission-denied"
	default:
		return fmt.Sprintf("InstallKind(%d)", int(k))
	}
}

// InstallResult is the outcome of an install hand-off. Path is set for InstallManualRequired.
type InstallResult struct {
	Kind InstallKind
	Path string
	Err  error
}

func Installed() InstallResult {
	return InstallResult{Kind: InstallSuccess}
}

func ManualRequired(path string) InstallResult {
	return InstallResult{Kind: InstallManualRequired, Path: path}
}

func InstallFailed(err error) InstallResult {
	return InstallResult{Kind: InstallError, Err: err}
}

func PermissionDenied() InstallResult {
	return InstallResult{Kind: InstallPermissionDenied, Err: ErrPermissionDenied}
}

func (r InstallResult) Message() string {
	switch r.Kind {
	case InstallSuccess:
		return "installation started"
	case InstallManualRequired:
		return "installer could not be started, open " + r.Path + " manually"
	case InstallError:
		return shortMessage(r.Err)
	case InstallPermissionDenied:
		return "installation not permitted"
	default:
		return r.Kind.String()
	}
}

func (r InstallResult) Cause() error {
	return r.Err
}

func shortMessage(err error) string {
	if err == nil {
		return "unknown error"
	}
	return err.Error()
}
