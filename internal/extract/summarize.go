package extract

import (
	"fmt"
	"regexp"
	"strings"
)

// DefaultModelMarkers cut a verbose model name before its specification part:
// displacement, wheel size, drivetrain, transmission, slash, fuel type and trim.
var DefaultModelMarkers = []string{
	`\d\.\d`,
	`\d{2}"`,
	`2WD`,
	`4WD`,
	`AWD`,
	`\sAT`,
	`\sMT`,
	`/`,
	`디젤`,
	`가솔린`,
	`LPi`,
	`LPG`,
	`하이브리드`,
	`터보`,
	`기본`,
}

// Summarizer shortens model names at the earliest specification marker.
type Summarizer struct {
	markers []*regexp.Regexp
}

// NewSummarizer compiles markers; nil means DefaultModelMarkers.
func NewSummarizer(markers []string) (*Summarizer, error) {
	if markers == nil {
		markers = DefaultModelMarkers
	}
	s := &Summarizer{markers: make([]*regexp.Regexp, 0, len(markers))}
	for _, m := range markers {
		re, err := regexp.Compile(m)
		if err != nil {
			return nil, fmt.Errorf("model marker %q: %w", m, err)
		}
		s.markers = append(s.markers, re)
	}
	return s, nil
}

// Summarize returns name up to the earliest marker across all patterns, trimmed.
func (s *Summarizer) Summarize(name string) string {
	cut := len(name)
	for _, re := range s.markers {
		if loc := re.FindStringIndex(name); loc != nil && loc[0] < cut {
			cut = loc[0]
		}
	}
	return strings.TrimSpace(name[:cut])
}
