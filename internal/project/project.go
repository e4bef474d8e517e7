// Package project loads the analyzed file set and owns every parsed tree for a run.
package project

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"tsprune/internal/config"
	tserrors "tsprune/internal/errors"
	"tsprune/internal/tsparse"
)

// Options selects the files to load.
type Options struct {
	// Dir is the directory relative patterns are resolved against. Defaults to the working directory.
	Dir string
	// Pattern is the file glob, e.g. "./(src|apps|libs)/**/*.(ts|tsx)".
	Pattern string
	// TSConfig is the path of the tsconfig file; its directory is the project root.
	TSConfig string
	// Exclude lists additional doublestar patterns of files to skip.
	Exclude []string
}

// Project is the set of loaded source files.
type Project struct {
	root     string
	tsconfig *config.TSConfig
	files    []*SourceFile
	byPath   map[string]*SourceFile
	logger   *slog.Logger
}

// Load matches the pattern, parses every matched file and returns the project.
// It fails with a configuration error when no project root can be established.
func Load(ctx context.Context, opts Options, logger *slog.Logger) (*Project, error) {
	if strings.TrimSpace(opts.Pattern) == "" {
		return nil, tserrors.New(tserrors.ConfigurationInvalid, "no file glob provided", nil)
	}

	dir := opts.Dir
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, tserrors.New(tserrors.ConfigurationInvalid, "cannot determine working directory", err)
		}
		dir = wd
	}

	tsconfigPath := opts.TSConfig
	if tsconfigPath == "" {
		tsconfigPath = "tsconfig.json"
	}
	if !filepath.IsAbs(tsconfigPath) {
		tsconfigPath = filepath.Join(dir, tsconfigPath)
	}
	tsconfig, err := config.LoadTSConfig(tsconfigPath)
	if err != nil {
		return nil, tserrors.New(tserrors.ConfigurationInvalid, "cannot load tsconfig "+tsconfigPath, err)
	}

	paths, err := matchFiles(dir, opts.Pattern, opts.Exclude)
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, tserrors.New(tserrors.NoFilesMatched,
			"failed to get the root directory path: pattern "+opts.Pattern+" matched no source files", nil)
	}

	p := &Project{
		root:     tsconfig.Dir,
		tsconfig: tsconfig,
		byPath:   make(map[string]*SourceFile, len(paths)),
		logger:   logger,
	}

	if err := p.loadFiles(ctx, paths); err != nil {
		return nil, err
	}

	logger.Debug("Project loaded",
		"root", p.root,
		"files", len(p.files),
		"pattern", opts.Pattern)

	return p, nil
}

// loadFiles parses paths into p. On failure the trees parsed so far are closed.
func (p *Project) loadFiles(ctx context.Context, paths []string) (err error) {
	defer func() {
		if err != nil {
			p.Close()
		}
	}()

	parser := tsparse.NewParser()
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return err
		}
		if !isWithin(p.root, path) {
			return tserrors.New(tserrors.OutsideProjectRoot,
				fmt.Sprintf("%s lies outside the project root %s", path, p.root), nil)
		}
		f, err := loadFile(ctx, parser, path)
		if err != nil {
			return err
		}
		p.files = append(p.files, f)
		p.byPath[f.Path] = f
	}
	return nil
}

func loadFile(ctx context.Context, parser *tsparse.Parser, path string) (*SourceFile, error) {
	lang, ok := tsparse.LanguageFromPath(path)
	if !ok {
		return nil, tserrors.Errorf(tserrors.InternalError, "unsupported file %s", path)
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, tserrors.New(tserrors.ConfigurationInvalid, "cannot stat "+path, err)
	}
	source, err := os.ReadFile(path)
	if err != nil {
		return nil, tserrors.New(tserrors.ConfigurationInvalid, "cannot read "+path, err)
	}

	f := &SourceFile{
		Path:     path,
		Language: lang,
		source:   source,
		original: source,
		parser:   parser,
		state:    Loaded,
		mode:     info.Mode(),
	}
	if err := f.parse(ctx); err != nil {
		return nil, err
	}
	f.state = Clean
	return f, nil
}

// RootPath returns the absolute project root.
func (p *Project) RootPath() string { return p.root }

// Files returns the loaded files sorted by path.
func (p *Project) Files() []*SourceFile { return p.files }

// File returns the loaded file with the given absolute path.
func (p *Project) File(path string) (*SourceFile, bool) {
	f, ok := p.byPath[filepath.Clean(path)]
	return f, ok
}

// Relative returns the "./"-prefixed path of f relative to the project root.
func (p *Project) Relative(f *SourceFile) string {
	rel, err := filepath.Rel(p.root, f.Path)
	if err != nil {
		return f.Path
	}
	return "./" + filepath.ToSlash(rel)
}

// DirtyFiles returns the files with unsaved edits.
func (p *Project) DirtyFiles() []*SourceFile {
	var out []*SourceFile
	for _, f := range p.files {
		if f.IsDirty() {
			out = append(out, f)
		}
	}
	return out
}

// Save persists every dirty file in place and serializes all files.
// Clean files are skipped so they produce no spurious diffs.
// It returns the files actually written.
func (p *Project) Save(ctx context.Context) ([]*SourceFile, error) {
	var written []*SourceFile
	for _, f := range p.files {
		if err := ctx.Err(); err != nil {
			return written, err
		}
		wrote, err := f.save()
		if err != nil {
			return written, err
		}
		if wrote {
			p.logger.Info("Saved file", "path", p.Relative(f))
			written = append(written, f)
		}
	}
	return written, nil
}

// Close releases every tree without writing anything.
func (p *Project) Close() {
	for _, f := range p.files {
		if f.tree != nil {
			f.tree.Close()
			f.tree = nil
		}
	}
}

func isWithin(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
