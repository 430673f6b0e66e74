package uploads

import (
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
)

// MatchesAllowed returns true if the filename matches any of the allow
// patterns. If patterns is empty, everything is allowed.
func MatchesAllowed(filename string, patterns []string) bool {
	if len(patterns) == 0 {
		return true
	}

	// Normalize to forward slashes for consistent matching.
	normalized := filepath.ToSlash(filename)
	base := filepath.Base(normalized)

	for _, pattern := range patterns {
		pattern = filepath.ToSlash(pattern)

		// Try doublestar matching (supports **) against the full name,
		// then against just the base name.
		if matched, err := doublestar.PathMatch(pattern, normalized); err == nil && matched {
			return true
		}
		if matched, err := doublestar.PathMatch(pattern, base); err == nil && matched {
			return true
		}
	}
	return false
}
