package ingest

import (
	"path/filepath"
	"strings"

	"github.com/joseph-ayodele/contracts-tracker/constants"
)

// IsHidden checks if a file or directory is hidden (starts with '.').
func IsHidden(path string) bool {
	base := filepath.Base(path)
	return strings.HasPrefix(base, ".") && base != "." && base != ".."
}

func allowed(path string) bool {
	return constants.AllowedExt(filepath.Ext(path))
}
