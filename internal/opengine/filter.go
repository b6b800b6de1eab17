package opengine

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// FileFilter decides which planned entries are left out.
type FileFilter interface {
	// Excludes returns true if the entry at relativePath should not be planned.
	Excludes(relativePath string) bool
}

// GlobFilter implements FileFilter using doublestar patterns.
// Matching is case-insensitive and uses forward slashes on every platform.
type GlobFilter struct {
	patterns []string
}

// NewGlobFilter validates patterns and returns a filter over them. No
// patterns means nothing is excluded.
func NewGlobFilter(patterns []string) (*GlobFilter, error) {
	normalized := make([]string, 0, len(patterns))

	for _, pattern := range patterns {
		if pattern == "" {
			continue
		}

		lower := strings.ToLower(filepath.ToSlash(pattern))
		if !doublestar.ValidatePattern(lower) {
			return nil, fmt.Errorf("%w: %q", ErrInvalidPattern, pattern)
		}

		normalized = append(normalized, lower)
	}

	return &GlobFilter{patterns: normalized}, nil
}

// Excludes returns true if any pattern matches relativePath.
func (f *GlobFilter) Excludes(relativePath string) bool {
	if f == nil || len(f.patterns) == 0 {
		return false
	}

	normalizedPath := strings.ToLower(filepath.ToSlash(relativePath))

	for _, pattern := range f.patterns {
		matched, err := doublestar.Match(pattern, normalizedPath)
		if err == nil && matched {
			return true
		}
	}

	return false
}
