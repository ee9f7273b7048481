package utils

import "strings"

// SplitGlobList splits s on any of the separators, but not inside
// brace-delimited alternatives like {legacy,old}. Parts are trimmed and
// empty parts are dropped.
func SplitGlobList(s string, separators ...rune) []string {
	isSeparator := func(r rune) bool {
		for _, sep := range separators {
			if r == sep {
				return true
			}
		}
		return false
	}

	var parts []string
	var current strings.Builder
	braceLevel := 0
	flush := func() {
		if p := strings.TrimSpace(current.String()); p != "" {
			parts = append(parts, p)
		}
		current.Reset()
	}

	for _, char := range s {
		switch {
		case char == '{':
			braceLevel++
			current.WriteRune(char)
		case char == '}':
			if braceLevel > 0 {
				braceLevel--
			}
			current.WriteRune(char)
		case isSeparator(char) && braceLevel == 0:
			flush()
		default:
			current.WriteRune(char)
		}
	}
	flush()

	return parts
}
