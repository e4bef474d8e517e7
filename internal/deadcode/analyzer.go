package deadcode

import (
	"context"
	"errors"
	"log/slog"
	"path"
	"strings"

	tserrors "tsprune/internal/errors"
	"tsprune/internal/exports"
	"tsprune/internal/project"
	"tsprune/internal/refs"
)

// Resolver is the reference query the classifier relies on.
type Resolver interface {
	Check(sym *exports.Symbol) error
	HasExternalReference(sym *exports.Symbol) bool
	ReferencesOf(site *exports.Site) []refs.Reference
}

// Analyzer finds exported symbols that no other file references.
type Analyzer struct {
	resolver   Resolver
	exclusions *ExclusionRules
	logger     *slog.Logger
}

// NewAnalyzer creates a new classifier. exclusions may be nil.
func NewAnalyzer(resolver Resolver, logger *slog.Logger, exclusions *ExclusionRules) *Analyzer {
	if exclusions == nil {
		exclusions = NewExclusionRules(nil)
	}
	return &Analyzer{
		resolver:   resolver,
		exclusions: exclusions,
		logger:     logger,
	}
}

// Analyze classifies every exported symbol of p. It never modifies a file.
func (a *Analyzer) Analyze(ctx context.Context, p *project.Project, opts AnalyzerOptions) (*Result, error) {
	a.logger.Debug("Starting unused export analysis",
		"files", len(p.Files()),
		"scope", opts.Scope)

	items := []Item{}
	summary := Summary{ByKind: make(map[string]int)}
	skippedScope := 0
	skippedTest := 0

	for _, f := range p.Files() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		rel := p.Relative(f)
		if !isInScope(rel, opts.Scope) {
			skippedScope++
			continue
		}
		if opts.SkipTestFiles && IsTestFile(rel) {
			skippedTest++
			continue
		}

		for _, sym := range exports.Of(f) {
			if reason := a.exclusions.ShouldExclude(rel, sym.Name); reason != "" {
				summary.SkippedExcluded++
				a.logger.Debug("Export excluded",
					"file", rel,
					"name", sym.Name,
					"reason", reason)
				continue
			}

			if err := a.resolver.Check(sym); err != nil {
				if !errors.Is(err, tserrors.ErrUnresolvableReference) {
					return nil, err
				}
				summary.SkippedUnresolvable++
				a.logger.Debug("Export not reference-resolvable",
					"file", rel,
					"name", sym.Name,
					"error", err.Error())
				continue
			}

			summary.TotalSymbols++
			if a.resolver.HasExternalReference(sym) {
				continue
			}

			stats := a.categorizeReferences(sym)
			items = append(items, Item{
				Symbol:             sym,
				Name:               sym.Name,
				Kind:               string(sym.Kind),
				FilePath:           rel,
				Line:               sym.Line,
				Sites:              len(sym.Sites),
				InternalReferences: stats.Internal,
			})
			summary.ByKind[string(sym.Kind)]++
		}
	}
	summary.UnusedCount = len(items)

	a.logger.Debug("Unused export analysis completed",
		"totalAnalyzed", summary.TotalSymbols,
		"unusedFound", summary.UnusedCount,
		"skippedUnresolvable", summary.SkippedUnresolvable,
		"skippedExcluded", summary.SkippedExcluded,
		"skippedScope", skippedScope,
		"skippedTest", skippedTest)

	return &Result{
		Items:   items,
		Summary: summary,
		Scope:   opts.Scope,
	}, nil
}

// categorizeReferences counts the references to every site of sym.
func (a *Analyzer) categorizeReferences(sym *exports.Symbol) ReferenceStats {
	stats := ReferenceStats{}
	for _, site := range sym.Sites {
		for _, ref := range a.resolver.ReferencesOf(site) {
			stats.Total++
			if ref.File.Path == sym.File.Path {
				stats.Internal++
			} else {
				stats.External++
			}
		}
	}
	return stats
}

// isInScope checks if a "./"-relative file path is within the given scope.
func isInScope(filePath string, scope []string) bool {
	if len(scope) == 0 {
		return true
	}

	filePath = strings.TrimPrefix(filePath, "./")
	for _, s := range scope {
		s = strings.TrimSuffix(path.Clean(strings.TrimPrefix(s, "./")), "/")
		if s == "." || filePath == s || strings.HasPrefix(filePath, s+"/") {
			return true
		}
	}
	return false
}
