package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tailscale/hujson"
)

// maxExtendsDepth bounds "extends" chains.
const maxExtendsDepth = 8

// TSConfig holds the parts of a tsconfig.json that affect module resolution.
type TSConfig struct {
	// Path is the absolute path of the tsconfig file.
	Path string
	// Dir is the project root: the directory holding the tsconfig file.
	Dir string
	// BaseURL is the absolute baseUrl, or empty.
	BaseURL string
	// Paths maps path-alias patterns to their substitutions.
	Paths map[string][]string
	// PathsBase is the absolute directory Paths substitutions are relative to.
	PathsBase string
}

type rawTSConfig struct {
	Extends         string `json:"extends"`
	CompilerOptions struct {
		BaseURL string              `json:"baseUrl"`
		Paths   map[string][]string `json:"paths"`
	} `json:"compilerOptions"`
}

// LoadTSConfig reads a tsconfig file. Comments and trailing commas are accepted.
// Relative "extends" chains are followed; package-name extends are ignored.
func LoadTSConfig(path string) (*TSConfig, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	cfg := &TSConfig{Path: abs, Dir: filepath.Dir(abs)}
	if err := cfg.merge(abs, 0); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *TSConfig) merge(path string, depth int) error {
	if depth > maxExtendsDepth {
		return fmt.Errorf("tsconfig extends chain deeper than %d at %s", maxExtendsDepth, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	std, err := hujson.Standardize(data)
	if err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}

	var raw rawTSConfig
	if err := json.Unmarshal(std, &raw); err != nil {
		return fmt.Errorf("failed to decode %s: %w", path, err)
	}

	dir := filepath.Dir(path)
	if raw.Extends != "" && (strings.HasPrefix(raw.Extends, ".") || filepath.IsAbs(raw.Extends)) {
		parent := raw.Extends
		if !filepath.IsAbs(parent) {
			parent = filepath.Join(dir, parent)
		}
		if filepath.Ext(parent) == "" {
			parent += ".json"
		}
		if err := c.merge(parent, depth+1); err != nil {
			return err
		}
	}

	if raw.CompilerOptions.BaseURL != "" {
		c.BaseURL = filepath.Join(dir, raw.CompilerOptions.BaseURL)
	}
	if raw.CompilerOptions.Paths != nil {
		c.Paths = raw.CompilerOptions.Paths
		c.PathsBase = dir
	}
	if c.BaseURL != "" {
		c.PathsBase = c.BaseURL
	}
	return nil
}
