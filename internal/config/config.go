// Package config loads tsprune's own settings and the analyzed project's tsconfig.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"
)

// ConfigFileName is the base name (without extension) of the tool config file.
const ConfigFileName = ".tsprune"

// Config represents the tsprune configuration
type Config struct {
	// Glob is the default file pattern when --glob is not passed.
	Glob string `json:"glob" mapstructure:"glob" toml:"glob"`
	// TSConfig is the path of the project's tsconfig, relative to the working directory.
	TSConfig string `json:"tsconfig" mapstructure:"tsconfig" toml:"tsconfig"`
	// Exclude lists doublestar patterns of files never loaded.
	Exclude []string `json:"exclude" mapstructure:"exclude" toml:"exclude"`
	// Keep lists patterns of files or symbol names never reported.
	Keep []string `json:"keep" mapstructure:"keep" toml:"keep"`
	// Format is the report format: table, json or yaml.
	Format string `json:"format" mapstructure:"format" toml:"format"`

	Logging LoggingConfig `json:"logging" mapstructure:"logging" toml:"logging"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level string `json:"level" mapstructure:"level" toml:"level"`
	File  string `json:"file" mapstructure:"file" toml:"file,omitempty"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		TSConfig: "./tsconfig.json",
		Format:   "table",
		Logging: LoggingConfig{
			Level: "warn",
		},
	}
}

// LoadConfig loads configuration from <dir>/.tsprune.{toml,yaml,json}, or from
// explicitPath when it is set. TSPRUNE_* environment variables override file values.
func LoadConfig(dir, explicitPath string) (*Config, error) {
	defaults := DefaultConfig()

	v := viper.New()
	v.SetDefault("tsconfig", defaults.TSConfig)
	v.SetDefault("format", defaults.Format)
	v.SetDefault("logging.level", defaults.Logging.Level)

	v.SetEnvPrefix("TSPRUNE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if explicitPath != "" {
		v.SetConfigFile(explicitPath)
	} else {
		v.SetConfigName(ConfigFileName)
		v.AddConfigPath(dir)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) || explicitPath != "" {
			return nil, &ConfigError{Field: "file", Message: err.Error()}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, &ConfigError{Field: "file", Message: err.Error()}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	switch c.Format {
	case "", "table", "json", "yaml":
	default:
		return &ConfigError{Field: "format", Message: fmt.Sprintf("unsupported format %q", c.Format)}
	}
	for _, p := range c.Exclude {
		if strings.HasPrefix(strings.TrimSpace(p), "!") {
			return &ConfigError{Field: "exclude", Message: "negated exclude patterns are not supported"}
		}
	}
	return nil
}

// WriteExample writes an example config file to <dir>/.tsprune.toml.
// It refuses to overwrite an existing file.
func WriteExample(dir string) (string, error) {
	path := filepath.Join(dir, ConfigFileName+".toml")
	if _, err := os.Stat(path); err == nil {
		return "", fmt.Errorf("%s already exists", path)
	}

	example := DefaultConfig()
	example.Glob = "./(src|apps|libs)/**/*.(ts|tsx)"
	example.Exclude = []string{"**/*.test.ts", "**/*.spec.ts"}
	example.Keep = []string{"src/index.ts"}

	data, err := toml.Marshal(example)
	if err != nil {
		return "", fmt.Errorf("failed to marshal %s: %w", path, err)
	}

	header := "# tsprune configuration. Flags override these values.\n\n"
	if err := os.WriteFile(path, append([]byte(header), data...), 0644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	return path, nil
}

// ConfigError represents a configuration error
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return "config error in field '" + e.Field + "': " + e.Message
}
