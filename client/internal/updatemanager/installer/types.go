package installer

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Type identifies an artifact format and the content type the platform is asked to handle
type Type struct {
	name     string
	mimeType string
}

func (t Type) String() string {
	return t.name
}

func (t Type) MimeType() string {
	return t.mimeType
}

var (
	TypeAPK      = Type{name: "APK", mimeType: "application/vnd.android.package-archive"}
	TypeMSI      = Type{name: "MSI", mimeType: "application/x-msi"}
	TypeEXE      = Type{name: "EXE", mimeType: "application/vnd.microsoft.portable-executable"}
	TypePKG      = Type{name: "PKG", mimeType: "application/vnd.apple.installer+xml"}
	TypeDMG      = Type{name: "DMG", mimeType: "application/x-apple-diskimage"}
	TypeDEB      = Type{name: "DEB", mimeType: "application/vnd.debian.binary-package"}
	TypeRPM      = Type{name: "RPM", mimeType: "application/x-rpm"}
	TypeAppImage = Type{name: "AppImage", mimeType: "application/vnd.appimage"}
)

var typesByExtension = map[string]Type{
	".apk":      TypeAPK,
	".msi":      TypeMSI,
	".exe":      TypeEXE,
	".pkg":      TypePKG,
	".dmg":      TypeDMG,
	".deb":      TypeDEB,
	".rpm":      TypeRPM,
	".appimage": TypeAppImage,
}

func TypeByFileExtension(filePath string) (Type, error) {
	t, ok := typesByExtension[strings.ToLower(filepath.Ext(filePath))]
	if !ok {
		return Type{}, fmt.Errorf("unsupported installer type for file: %s", filePath)
	}
	return t, nil
}
