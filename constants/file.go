package constants

import "strings"

// Document formats understood by the document reader.
const (
	PDF   = "PDF"
	IMAGE = "IMAGE"
)

// FileTypes holds the document formats accepted for extraction.
var FileTypes = []string{PDF, IMAGE}

// AllowedExtensions holds the default allowed file extensions for contract uploads.
var AllowedExtensions = map[string]struct{}{
	"pdf":  {},
	"jpg":  {},
	"jpeg": {},
	"png":  {},
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// MapExtToFormat returns PDF, IMAGE or "" for unsupported extensions.
func MapExtToFormat(ext string) string {
	switch NormalizeExt(ext) {
	case "pdf":
		return PDF
	case "jpg", "jpeg", "png":
		return IMAGE
	default:
		return ""
	}
}

// AllowedExt reports whether ext is in AllowedExtensions.
func AllowedExt(ext string) bool {
	_, ok := AllowedExtensions[NormalizeExt(ext)]
	return ok
}
