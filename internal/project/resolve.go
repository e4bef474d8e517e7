package project

import (
	"path/filepath"
	"strings"

	"tsprune/internal/tsparse"
)

// jsToTS maps emitted extensions to the source extensions they may come from,
// so "./a.js" written in ESM TypeScript resolves to "./a.ts".
var jsToTS = map[string][]string{
	".js":  {".ts", ".tsx"},
	".jsx": {".tsx"},
	".mjs": {".mts"},
	".cjs": {".cts"},
}

// ResolveModule resolves an import specifier written in from to a loaded file.
// Relative specifiers are resolved against from's directory; others go through
// tsconfig "paths" and "baseUrl". Bare package names never resolve.
func (p *Project) ResolveModule(from *SourceFile, specifier string) (*SourceFile, bool) {
	if specifier == "" {
		return nil, false
	}

	if strings.HasPrefix(specifier, ".") || filepath.IsAbs(specifier) {
		base := specifier
		if !filepath.IsAbs(base) {
			base = filepath.Join(filepath.Dir(from.Path), filepath.FromSlash(specifier))
		}
		return p.resolvePath(base)
	}

	for _, candidate := range p.aliasCandidates(specifier) {
		if f, ok := p.resolvePath(candidate); ok {
			return f, true
		}
	}
	return nil, false
}

// aliasCandidates expands specifier through tsconfig paths (longest prefix first)
// and baseUrl.
func (p *Project) aliasCandidates(specifier string) []string {
	ts := p.tsconfig
	if ts == nil {
		return nil
	}

	var out []string
	bestLen := -1
	bestPattern := ""
	var best []string
	for pattern, targets := range ts.Paths {
		star := strings.Index(pattern, "*")
		if star < 0 {
			if pattern == specifier && better(len(pattern), pattern, bestLen, bestPattern) {
				bestLen, bestPattern = len(pattern), pattern
				best = substitute(targets, "")
			}
			continue
		}
		prefix, suffix := pattern[:star], pattern[star+1:]
		if strings.HasPrefix(specifier, prefix) && strings.HasSuffix(specifier, suffix) &&
			len(specifier) >= len(prefix)+len(suffix) && better(len(prefix), pattern, bestLen, bestPattern) {
			bestLen, bestPattern = len(prefix), pattern
			best = substitute(targets, specifier[len(prefix):len(specifier)-len(suffix)])
		}
	}
	for _, t := range best {
		out = append(out, filepath.Join(ts.PathsBase, filepath.FromSlash(t)))
	}

	if ts.BaseURL != "" {
		out = append(out, filepath.Join(ts.BaseURL, filepath.FromSlash(specifier)))
	}
	return out
}

// better orders alias matches by prefix length, then pattern text for determinism.
func better(n int, pattern string, bestLen int, bestPattern string) bool {
	return n > bestLen || (n == bestLen && pattern < bestPattern)
}

func substitute(targets []string, wildcard string) []string {
	out := make([]string, len(targets))
	for i, t := range targets {
		out[i] = strings.Replace(t, "*", wildcard, 1)
	}
	return out
}

// resolvePath tries base as a file, with extension swaps, with every supported
// extension appended, and as a directory with an index file.
func (p *Project) resolvePath(base string) (*SourceFile, bool) {
	base = filepath.Clean(base)
	if f, ok := p.byPath[base]; ok {
		return f, true
	}

	ext := filepath.Ext(base)
	if swaps, ok := jsToTS[ext]; ok {
		stem := strings.TrimSuffix(base, ext)
		for _, s := range swaps {
			if f, ok := p.byPath[stem+s]; ok {
				return f, true
			}
		}
	}

	for _, e := range tsparse.Extensions {
		if f, ok := p.byPath[base+e]; ok {
			return f, true
		}
	}
	for _, e := range tsparse.Extensions {
		if f, ok := p.byPath[filepath.Join(base, "index"+e)]; ok {
			return f, true
		}
	}
	return nil, false
}
