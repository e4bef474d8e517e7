package project

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	tserrors "tsprune/internal/errors"
	"tsprune/internal/tsparse"
)

// defaultExcludes are never loaded, whatever the pattern says.
var defaultExcludes = []string{"**/node_modules/**", "**/.*/**"}

// TranslatePattern rewrites extglob groups "(a|b)" and "@(a|b)" into doublestar
// alternations "{a,b}". Negated groups "!(...)" are rejected; see splitNegation.
func TranslatePattern(pattern string) (string, error) {
	var b strings.Builder
	depth := 0
	for i := 0; i < len(pattern); i++ {
		c := pattern[i]
		switch {
		case c == '!' && i+1 < len(pattern) && pattern[i+1] == '(':
			return "", tserrors.New(tserrors.ConfigurationInvalid,
				"negated extglob "+pattern+" is only supported once, in the last path segment; use --exclude instead", nil)
		case c == '@' && i+1 < len(pattern) && pattern[i+1] == '(':
			// "@(" is a plain group; drop the '@' and let '(' open it.
		case c == '(':
			depth++
			b.WriteByte('{')
		case c == ')' && depth > 0:
			depth--
			b.WriteByte('}')
		case c == '|' && depth > 0:
			b.WriteByte(',')
		default:
			b.WriteByte(c)
		}
	}
	if depth != 0 {
		return "", tserrors.New(tserrors.ConfigurationInvalid, "unbalanced group in pattern "+pattern, nil)
	}
	return b.String(), nil
}

// splitNegation rewrites one negated group "!(a|b)" in the last path segment
// into an include pattern with "*" in its place and an exclude pattern with
// the positive group "(a|b)". Patterns without a negated group come back
// unchanged with an empty exclude.
func splitNegation(pattern string) (include, exclude string, err error) {
	start := strings.Index(pattern, "!(")
	if start < 0 {
		return pattern, "", nil
	}
	if strings.Contains(pattern[start:], "/") {
		return "", "", tserrors.New(tserrors.ConfigurationInvalid,
			"negated extglob "+pattern+" is only supported in the last path segment; use --exclude instead", nil)
	}

	end, depth := -1, 0
	for i := start + 1; i < len(pattern) && end < 0; i++ {
		switch pattern[i] {
		case '(':
			depth++
		case ')':
			if depth--; depth == 0 {
				end = i
			}
		}
	}
	if end < 0 {
		return "", "", tserrors.New(tserrors.ConfigurationInvalid, "unbalanced group in pattern "+pattern, nil)
	}

	prefix, group, rest := pattern[:start], pattern[start+1:end+1], pattern[end+1:]
	return prefix + "*" + rest, prefix + group + rest, nil
}

// matchFiles returns the absolute, sorted paths of supported source files
// matching pattern and none of the exclude patterns.
func matchFiles(dir, pattern string, exclude []string) ([]string, error) {
	include, negated, err := splitNegation(pattern)
	if err != nil {
		return nil, err
	}
	if negated != "" {
		exclude = append(exclude[:len(exclude):len(exclude)], negated)
	}

	translated, err := TranslatePattern(include)
	if err != nil {
		return nil, err
	}
	if !filepath.IsAbs(translated) {
		translated = filepath.Join(dir, translated)
	}
	translated = filepath.ToSlash(translated)
	if !doublestar.ValidatePattern(translated) {
		return nil, tserrors.New(tserrors.ConfigurationInvalid, "invalid glob "+pattern, nil)
	}

	excludes := make([]string, 0, len(exclude))
	for _, e := range exclude {
		t, err := TranslatePattern(e)
		if err != nil {
			return nil, err
		}
		excludes = append(excludes, strings.TrimPrefix(filepath.ToSlash(t), "./"))
	}

	base, rel := doublestar.SplitPattern(translated)
	matches, err := doublestar.Glob(os.DirFS(filepath.FromSlash(base)), rel, doublestar.WithFilesOnly())
	if err != nil {
		return nil, tserrors.New(tserrors.ConfigurationInvalid, "invalid glob "+pattern, err)
	}

	set := make(map[string]struct{}, len(matches))
	for _, m := range matches {
		abs := filepath.Join(filepath.FromSlash(base), filepath.FromSlash(m))
		if _, ok := tsparse.LanguageFromPath(abs); !ok {
			continue
		}
		if matchesAny(defaultExcludes, m) || excluded(dir, abs, excludes) {
			continue
		}
		set[abs] = struct{}{}
	}
	return sortedKeys(set), nil
}

func matchesAny(patterns []string, path string) bool {
	for _, p := range patterns {
		if ok, _ := doublestar.Match(p, path); ok {
			return true
		}
	}
	return false
}

// excluded matches patterns against the path relative to dir and against the
// absolute path, so both "src/**/*.spec.ts" and "**/*.spec.ts" work.
func excluded(dir, abs string, patterns []string) bool {
	slashAbs := filepath.ToSlash(abs)
	rel := slashAbs
	if r, err := filepath.Rel(dir, abs); err == nil {
		rel = filepath.ToSlash(r)
	}
	return matchesAny(patterns, rel) || matchesAny(patterns, slashAbs)
}
