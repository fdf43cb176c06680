package dialect

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/netbirdio/updater/client/internal/updatemanager/types"
)

// Canonical field names of the generic dialect. The mapping translates them to the
// names used by a particular backend; dotted names address nested objects.
const (
	FieldVersion       = "version"
	FieldBuild         = "build"
	FieldURL           = "url"
	FieldVersionString = "versionString"
	FieldReleaseNotes  = "releaseNotes"
	FieldMinVersion    = "minVersion"
	FieldIsRequired    = "isRequired"
	FieldSHA256        = "sha256"
	FieldSize          = "size"
)

// DefaultFieldMapping covers the required fields only; optional fields are read when mapped.
func DefaultFieldMapping() map[string]string {
	return map[string]string{
		FieldVersion: "version",
		FieldBuild:   "build",
		FieldURL:     "url",
	}
}

// Generic decodes flat JSON documents. It never decides whether the candidate is newer.
type Generic struct {
	baseURL string
	mapping map[string]string
}

func NewGeneric(baseURL string, mapping map[string]string) *Generic {
	m := DefaultFieldMapping()
	for k, v := range mapping {
		if v == "" {
			continue
		}
		m[k] = v
	}
	return &Generic{baseURL: baseURL, mapping: m}
}

func (g *Generic) Kind() Kind {
	return KindGeneric
}

func (g *Generic) Parse(body []byte) (Decision, error) {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(body, &doc); err != nil {
		return Decision{}, jsonError("", err)
	}

	v, err := g.requiredString(doc, FieldVersion)
	if err != nil {
		return Decision{}, err
	}
	build, err := g.requiredInt(doc, FieldBuild)
	if err != nil {
		return Decision{}, err
	}
	ref, err := g.requiredString(doc, FieldURL)
	if err != nil {
		return Decision{}, err
	}

	info := &types.VersionInfo{
		Version:     v,
		Build:       int(build),
		ArtifactURL: ResolveURL(g.baseURL, ref),
	}

	var versionString string
	if err := g.optional(doc, FieldVersionString, func(raw json.RawMessage, name string) (err error) {
		versionString, err = decodeString(raw, name)
		return err
	}); err != nil {
		return Decision{}, err
	}
	info.DisplayVersion = displayVersion(versionString, v, info.Build)

	if err := g.optional(doc, FieldReleaseNotes, func(raw json.RawMessage, name string) (err error) {
		info.ReleaseNotes, err = decodeString(raw, name)
		return err
	}); err != nil {
		return Decision{}, err
	}
	if err := g.optional(doc, FieldMinVersion, func(raw json.RawMessage, name string) (err error) {
		info.MinVersion, err = decodeString(raw, name)
		return err
	}); err != nil {
		return Decision{}, err
	}
	if err := g.optional(doc, FieldSHA256, func(raw json.RawMessage, name string) (err error) {
		info.SHA256, err = decodeString(raw, name)
		return err
	}); err != nil {
		return Decision{}, err
	}
	if err := g.optional(doc, FieldIsRequired, func(raw json.RawMessage, name string) error {
		if err := json.Unmarshal(raw, &info.IsRequired); err != nil {
			return &types.ParseError{Field: name, Reason: "expected bool", Err: err}
		}
		return nil
	}); err != nil {
		return Decision{}, err
	}
	if err := g.optional(doc, FieldSize, func(raw json.RawMessage, name string) (err error) {
		info.Size, err = decodeInt(raw, name)
		return err
	}); err != nil {
		return Decision{}, err
	}

	return Decision{Info: info}, nil
}

func (g *Generic) requiredString(doc map[string]json.RawMessage, field string) (string, error) {
	name := g.mapping[field]
	raw, ok := lookup(doc, name)
	if !ok {
		return "", &types.ParseError{Field: name, Reason: "missing"}
	}
	return decodeString(raw, name)
}

func (g *Generic) requiredInt(doc map[string]json.RawMessage, field string) (int64, error) {
	name := g.mapping[field]
	raw, ok := lookup(doc, name)
	if !ok {
		return 0, &types.ParseError{Field: name, Reason: "missing"}
	}
	return decodeInt(raw, name)
}

// optional calls fn only when field is mapped and present in the document
func (g *Generic) optional(doc map[string]json.RawMessage, field string, fn func(json.RawMessage, string) error) error {
	name, mapped := g.mapping[field]
	if !mapped {
		return nil
	}
	raw, ok := lookup(doc, name)
	if !ok {
		return nil
	}
	return fn(raw, name)
}

func lookup(doc map[string]json.RawMessage, name string) (json.RawMessage, bool) {
	parts := strings.Split(name, ".")
	cur := doc
	for i, p := range parts {
		raw, ok := cur[p]
		if !ok || isNull(raw) {
			return nil, false
		}
		if i == len(parts)-1 {
			return raw, true
		}
		var next map[string]json.RawMessage
		if err := json.Unmarshal(raw, &next); err != nil {
			return nil, false
		}
		cur = next
	}
	return nil, false
}

func decodeString(raw json.RawMessage, name string) (string, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", &types.ParseError{Field: name, Reason: "expected string", Err: err}
	}
	return s, nil
}

// decodeInt accepts JSON integers and strings holding a decimal integer
func decodeInt(raw json.RawMessage, name string) (int64, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) > 0 && raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return 0, &types.ParseError{Field: name, Reason: "expected integer", Err: err}
		}
		n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
		if err != nil {
			return 0, &types.ParseError{Field: name, Reason: "expected integer", Err: err}
		}
		return n, nil
	}

	var n int64
	if err := json.Unmarshal(raw, &n); err != nil {
		return 0, &types.ParseError{Field: name, Reason: "expected integer", Err: err}
	}
	return n, nil
}
