// Package dialect decodes update server responses into VersionInfo records.
// A Parser is chosen once from configuration and shared by every check.
package dialect

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/netbirdio/updater/client/internal/updatemanager/types"
)

type Kind string

const (
	KindHub     Kind = "hub"
	KindGeneric Kind = "generic"
)

// Decision is the parsed outcome of a version response.
// Asserted reports whether the server itself decided HasUpdate; when false the caller
// has to compare Info against the local version.
type Decision struct {
	Asserted  bool
	HasUpdate bool
	Info      *types.VersionInfo
}

type Parser interface {
	Kind() Kind
	Parse(body []byte) (Decision, error)
}

// New returns the parser for kind. mapping is only used by the generic dialect.
func New(kind Kind, baseURL string, mapping map[string]string) (Parser, error) {
	switch kind {
	case KindHub, "":
		return &Hub{baseURL: baseURL}, nil
	case KindGeneric:
		return NewGeneric(baseURL, mapping), nil
	default:
		return nil, fmt.Errorf("unknown dialect %q", kind)
	}
}

var schemeRe = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9+.\-]*:`)

// ResolveURL joins a relative artifact reference with baseURL. Absolute URLs are returned as-is.
func ResolveURL(baseURL, ref string) string {
	if schemeRe.MatchString(ref) {
		return ref
	}
	ref = strings.TrimPrefix(ref, "/")
	if strings.HasSuffix(baseURL, "/") {
		return baseURL + ref
	}
	return baseURL + "/" + ref
}

func displayVersion(versionString, v string, build int) string {
	if versionString != "" {
		return versionString
	}
	return fmt.Sprintf("%s+%d", v, build)
}
