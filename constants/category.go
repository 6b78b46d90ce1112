package constants

import (
	"strings"
)

// Kind identifies which registration form produced a contract.
type Kind string

const (
	KindLotte      Kind = "lotte"
	KindThirdParty Kind = "third_party"
	KindNovadeal   Kind = "novadeal"
)

var allKinds = []Kind{
	KindLotte,
	KindThirdParty,
	KindNovadeal,
}

func KindsAsStringSlice() []string {
	result := make([]string, len(allKinds))
	for i, k := range allKinds {
		result[i] = string(k)
	}
	return result
}

// Canonicalize maps user input (English or Korean) to a Kind.
func Canonicalize(input string) (Kind, bool) {
	if input == "" {
		return KindLotte, false
	}

	normalized := strings.ToLower(strings.TrimSpace(input))

	// synonyms map
	synonyms := map[string]Kind{
		"롯데":         KindLotte,
		"롯데렌터카":      KindLotte,
		"타사":         KindThirdParty,
		"third-party": KindThirdParty,
		"thirdparty":  KindThirdParty,
		"노바딜":        KindNovadeal,
	}

	if k, ok := synonyms[normalized]; ok {
		return k, true
	}

	for _, k := range allKinds {
		if normalized == string(k) {
			return k, true
		}
	}

	return KindLotte, false
}
