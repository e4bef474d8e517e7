package deadcode

import (
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// ExclusionRules keeps exports out of classification.
type ExclusionRules struct {
	patterns []string
}

// NewExclusionRules creates exclusion rules with the given doublestar patterns.
// Each pattern is tried against the root-relative file path and the export name.
func NewExclusionRules(patterns []string) *ExclusionRules {
	normalized := make([]string, 0, len(patterns))
	for _, p := range patterns {
		normalized = append(normalized, strings.TrimPrefix(filepath.ToSlash(p), "./"))
	}
	return &ExclusionRules{
		patterns: normalized,
	}
}

// ShouldExclude returns a reason if the export should be excluded, or empty string if not.
func (r *ExclusionRules) ShouldExclude(filePath, name string) string {
	rel := strings.TrimPrefix(filePath, "./")
	for _, pattern := range r.patterns {
		if matched, _ := doublestar.Match(pattern, rel); matched {
			return "file matches keep pattern: " + pattern
		}
		if matched, _ := doublestar.Match(pattern, name); matched {
			return "name matches keep pattern: " + pattern
		}
	}
	return ""
}

// IsTestFile checks if a file path is a TypeScript or JavaScript test file.
func IsTestFile(path string) bool {
	base := filepath.Base(path)
	if strings.Contains(base, ".test.") || strings.Contains(base, ".spec.") {
		return true
	}

	slashed := "/" + strings.TrimPrefix(filepath.ToSlash(path), "./")
	return strings.Contains(slashed, "/__tests__/") ||
		strings.Contains(slashed, "/__mocks__/") ||
		strings.Contains(slashed, "/test/") ||
		strings.Contains(slashed, "/tests/")
}
