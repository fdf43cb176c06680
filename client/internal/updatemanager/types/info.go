package types

import (
	"github.com/netbirdio/updater/version"
)

// VersionInfo describes a candidate release offered by the update server
type VersionInfo struct {
	Version        string `json:"version"`
	Build          int    `json:"build"`
	DisplayVersion string `json:"displayVersion"`
	ArtifactURL    string `json:"artifactUrl"`
	ReleaseNotes   string `json:"releaseNotes,omitempty"`
	MinVersion     string `json:"minVersion,omitempty"`
	IsRequired     bool   `json:"isRequired"`

	// optional integrity data announced by the server
	SHA256 string `json:"sha256,omitempty"`
	Size   int64  `json:"size,omitempty"`
}

func (v VersionInfo) Info() version.Info {
	return version.Info{Version: v.Version, Build: v.Build}
}

// DownloadProgress is reported after every chunk of a download.
// Progress is only meaningful when Indeterminate is false.
type DownloadProgress struct {
	DownloadedBytes int64
	TotalBytes      int64
	Progress        float64
	Indeterminate   bool
	Status          string
}

// NewDownloadProgress computes the progress fraction for the given counters.
// A total below the received byte count is raised to it, so Progress never exceeds 1.
func NewDownloadProgress(downloaded, total int64, status string) DownloadProgress {
	if total > 0 && downloaded > total {
		total = downloaded
	}
	p := DownloadProgress{
		DownloadedBytes: downloaded,
		TotalBytes:      total,
		Status:          status,
	}
	if total <= 0 {
		p.Indeterminate = true
		return p
	}
	p.Progress = float64(downloaded) / float64(total)
	return p
}

// ProgressFunc receives download progress on the goroutine running the download
type ProgressFunc func(DownloadProgress)
