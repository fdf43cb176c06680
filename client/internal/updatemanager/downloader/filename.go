package downloader

import (
	"net/url"
	"path"
	"strings"
)

const DefaultFileNamePattern = "{appId}-{version}-{environment}{ext}"

// FileNameValues are substituted into a file name pattern
type FileNameValues struct {
	AppID       string
	Version     string
	Build       string
	Environment string
	ArtifactURL string
}

var unsafeChars = strings.NewReplacer("/", "_", `\`, "_", ":", "_", "..", "_")

// FileName expands {appId}, {version}, {build}, {environment} and {ext} in pattern.
// {ext} is the extension of the artifact URL path, including the dot.
func FileName(pattern string, v FileNameValues) string {
	if pattern == "" {
		pattern = DefaultFileNamePattern
	}

	r := strings.NewReplacer(
		"{appId}", unsafeChars.Replace(v.AppID),
		"{version}", unsafeChars.Replace(v.Version),
		"{build}", unsafeChars.Replace(v.Build),
		"{environment}", unsafeChars.Replace(v.Environment),
		"{ext}", extension(v.ArtifactURL),
	)
	return r.Replace(pattern)
}

func extension(artifactURL string) string {
	p := artifactURL
	if u, err := url.Parse(artifactURL); err == nil {
		p = u.Path
	}
	ext := path.Ext(p)
	if strings.ContainsAny(ext, `/\:`) {
		return ""
	}
	return ext
}
