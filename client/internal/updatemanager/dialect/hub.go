package dialect

import (
	"encoding/json"
	"errors"

	"github.com/netbirdio/updater/client/internal/updatemanager/types"
)

// Hub decodes the nested hub response:
//
//	{"hasUpdate": true, "latestVersion": {"version": "2.0.0", "build": 42}, "download": {"url": "/d/a.apk"}}
type Hub struct {
	baseURL string
}

func NewHub(baseURL string) *Hub {
	return &Hub{baseURL: baseURL}
}

type hubEnvelope struct {
	HasUpdate     *bool           `json:"hasUpdate"`
	LatestVersion json.RawMessage `json:"latestVersion"`
	Download      json.RawMessage `json:"download"`
}

type hubLatestVersion struct {
	Version       *string `json:"version"`
	Build         *int    `json:"build"`
	VersionString string  `json:"versionString"`
	ReleaseNotes  string  `json:"releaseNotes"`
	MinVersion    string  `json:"minVersion"`
	IsRequired    bool    `json:"isRequired"`
}

type hubDownload struct {
	URL    *string `json:"url"`
	Size   int64   `json:"size"`
	SHA256 string  `json:"sha256"`
}

func (h *Hub) Kind() Kind {
	return KindHub
}

func (h *Hub) Parse(body []byte) (Decision, error) {
	var env hubEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return Decision{}, jsonError("", err)
	}
	if env.HasUpdate == nil {
		return Decision{}, &types.ParseError{Field: "hasUpdate", Reason: "missing"}
	}

	// the server decision is final, the rest of the payload is not inspected
	if !*env.HasUpdate {
		return Decision{Asserted: true}, nil
	}

	if isNull(env.LatestVersion) {
		return Decision{}, &types.ParseError{Field: "latestVersion", Reason: "missing"}
	}
	var latest hubLatestVersion
	if err := json.Unmarshal(env.LatestVersion, &latest); err != nil {
		return Decision{}, jsonError("latestVersion", err)
	}
	if latest.Version == nil {
		return Decision{}, &types.ParseError{Field: "latestVersion.version", Reason: "missing"}
	}
	if latest.Build == nil {
		return Decision{}, &types.ParseError{Field: "latestVersion.build", Reason: "missing"}
	}

	if isNull(env.Download) {
		return Decision{}, &types.ParseError{Field: "download", Reason: "missing"}
	}
	var dl hubDownload
	if err := json.Unmarshal(env.Download, &dl); err != nil {
		return Decision{}, jsonError("download", err)
	}
	if dl.URL == nil || *dl.URL == "" {
		return Decision{}, &types.ParseError{Field: "download.url", Reason: "missing"}
	}

	info := &types.VersionInfo{
		Version:        *latest.Version,
		Build:          *latest.Build,
		DisplayVersion: displayVersion(latest.VersionString, *latest.Version, *latest.Build),
		ArtifactURL:    ResolveURL(h.baseURL, *dl.URL),
		ReleaseNotes:   latest.ReleaseNotes,
		MinVersion:     latest.MinVersion,
		IsRequired:     latest.IsRequired,
		SHA256:         dl.SHA256,
		Size:           dl.Size,
	}
	return Decision{Asserted: true, HasUpdate: true, Info: info}, nil
}

func isNull(raw json.RawMessage) bool {
	return len(raw) == 0 || string(raw) == "null"
}

func jsonError(prefix string, err error) error {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		field := typeErr.Field
		if prefix != "" {
			field = prefix + "." + field
		}
		return &types.ParseError{Field: field, Reason: "expected " + typeErr.Type.String() + ", got " + typeErr.Value, Err: err}
	}
	return &types.ParseError{Field: prefix, Reason: err.Error(), Err: err}
}
