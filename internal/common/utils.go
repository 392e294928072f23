package common

import "strings"

// NormalizeQuery trims surrounding whitespace and lowercases s for matching.
func NormalizeQuery(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Truncate shortens s to at most n runes.
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// FirstNonEmpty returns the first non-blank value, or "" if there is none.
func FirstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
