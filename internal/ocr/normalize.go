package ocr

import (
	"regexp"
	"strings"
)

var (
	reSpaceRun = regexp.MustCompile(`[\s\x{00A0}\x{3000}]+`)
	reBoxNoise = regexp.MustCompile(`^[_\-=]{3,}$`)
)

// Normalize collapses whitespace (including no-break and ideographic spaces) into
// single spaces so fragments match configured labels. Rule lines of underscores
// or dashes become empty.
func Normalize(s string) string {
	if s == "" {
		return s
	}
	s = strings.TrimSpace(reSpaceRun.ReplaceAllString(s, " "))
	if reBoxNoise.MatchString(s) {
		return ""
	}
	return s
}
