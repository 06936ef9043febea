// Package strings provides string manipulation utilities.
package strings

import (
	"strings"
)

// SplitAndTrim splits s on sep, trims whitespace from each piece and drops
// empty pieces. Order and duplicates are preserved.
//
// Example:
//
//	SplitAndTrim("a, b,,  c ", ",")
//	// Returns: []string{"a", "b", "c"}
func SplitAndTrim(s, sep string) []string {
	result := []string{}
	if strings.TrimSpace(s) == "" {
		return result
	}
	for _, piece := range strings.Split(s, sep) {
		trimmed := strings.TrimSpace(piece)
		if trimmed == "" {
			continue
		}
		result = append(result, trimmed)
	}
	return result
}

// TrimAll trims every element and drops the empty ones. Order and duplicates
// are preserved. A nil input yields an empty, non-nil slice.
func TrimAll(values []string) []string {
	result := make([]string, 0, len(values))
	for _, v := range values {
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			continue
		}
		result = append(result, trimmed)
	}
	return result
}

// ContainsFold reports whether substr is within s, ignoring case.
// substr is expected to be lowercased already.
func ContainsFold(s, lowerSubstr string) bool {
	return strings.Contains(strings.ToLower(s), lowerSubstr)
}
