// Package config provides configuration management for persona.
// It supports YAML and TOML configuration files, environment variables,
// and sensible defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/klauern/persona/internal/budget"
	"github.com/klauern/persona/internal/ui"
	"github.com/klauern/persona/internal/util"
)

// Config represents the complete persona configuration.
type Config struct {
	// Inputs are the directories scanned for entity documents, in order.
	Inputs []string `yaml:"inputs" toml:"inputs"`

	// Catalog is the path of the generated catalog file.
	Catalog string `yaml:"catalog" toml:"catalog"`

	// Header is the path of the top-level header file.
	Header string `yaml:"header" toml:"header"`

	// Budget holds the token thresholds for the catalog.
	Budget budget.Limits `yaml:"budget" toml:"budget"`

	// Output configures display preferences
	Output OutputConfig `yaml:"output" toml:"output"`
}

// OutputConfig holds display preferences.
type OutputConfig struct {
	// Color controls color output (auto, always, never)
	Color string `yaml:"color" toml:"color"`
	// LogFormat selects the log handler (text, json)
	LogFormat string `yaml:"log_format" toml:"log_format"`
}

// Log formats.
const (
	LogFormatText = "text"
	LogFormatJSON = "json"
)

// FileNames are the configuration files looked up by Load, in order.
var FileNames = []string{".persona.yaml", ".persona.yml", ".persona.toml"}

// EnvVars lists the environment variables that override file settings.
var EnvVars = []string{
	"PERSONA_INPUTS", "PERSONA_CATALOG", "PERSONA_HEADER", "PERSONA_WARN_TOKENS",
	"PERSONA_ERROR_TOKENS", "PERSONA_COLOR", "PERSONA_LOG_FORMAT",
}

// ErrInvalid is returned by Validate.
var ErrInvalid = errors.New("invalid configuration")

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Inputs:  []string{".agent"},
		Catalog: "AGENTS.md",
		Header:  filepath.Join(".agent", "HEADER.md"),
		Budget: budget.Limits{
			Warn:  5000,
			Error: 10000,
		},
		Output: OutputConfig{
			Color:     ui.ColorAuto,
			LogFormat: LogFormatText,
		},
	}
}

// FilePath returns the first configuration file present in dir, or "".
func FilePath(dir string) string {
	for _, name := range FileNames {
		p := filepath.Join(dir, name)
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			return p
		}
	}
	return ""
}

// Load loads the configuration file found in dir, merging it with
// defaults and environment overrides. No file means defaults.
func Load(dir string) (*Config, error) {
	if path := FilePath(dir); path != "" {
		return LoadFromPath(path)
	}
	cfg := Default()
	cfg.applyEnvironment()
	return cfg, nil
}

// LoadFromPath loads configuration from a specific path. Files ending in
// .toml are decoded as TOML, everything else as YAML.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()

	// #nosec G304 - path is provided by caller
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	if strings.EqualFold(filepath.Ext(path), ".toml") {
		if _, err := toml.Decode(string(data), cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	} else if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	cfg.applyEnvironment()
	return cfg, nil
}

// SaveToPath writes the configuration as YAML to path.
func (c *Config) SaveToPath(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return err
	}

	data, err := c.YAML()
	if err != nil {
		return err
	}

	// #nosec G306 - config file should be readable by user
	return os.WriteFile(path, data, 0o644)
}

// YAML returns the configuration encoded as YAML.
func (c *Config) YAML() ([]byte, error) {
	return yaml.Marshal(c)
}

// Validate checks values that cannot be enforced by decoding alone.
func (c *Config) Validate() error {
	if len(c.Inputs) == 0 {
		return fmt.Errorf("%w: at least one input directory is required", ErrInvalid)
	}
	if c.Budget.Warn < 0 || c.Budget.Error < 0 {
		return fmt.Errorf("%w: token limits must not be negative", ErrInvalid)
	}
	if c.Budget.Warn > 0 && c.Budget.Error > 0 && c.Budget.Warn > c.Budget.Error {
		return fmt.Errorf("%w: warn limit %d is above error limit %d", ErrInvalid, c.Budget.Warn, c.Budget.Error)
	}
	switch c.Output.Color {
	case ui.ColorAuto, ui.ColorAlways, ui.ColorNever:
	default:
		return fmt.Errorf("%w: output.color must be auto, always or never, got %q", ErrInvalid, c.Output.Color)
	}
	switch c.Output.LogFormat {
	case LogFormatText, LogFormatJSON:
	default:
		return fmt.Errorf("%w: output.log_format must be text or json, got %q", ErrInvalid, c.Output.LogFormat)
	}
	return nil
}

// InputPaths returns the configured inputs expanded against baseDir.
func (c *Config) InputPaths(baseDir string) []string {
	return util.ExpandPaths(c.Inputs, baseDir)
}

// applyEnvironment applies environment variable overrides.
// Environment variables follow the pattern PERSONA_<KEY>.
func (c *Config) applyEnvironment() {
	if v := os.Getenv("PERSONA_INPUTS"); v != "" {
		c.Inputs = splitPaths(v)
	}
	if v := os.Getenv("PERSONA_CATALOG"); v != "" {
		c.Catalog = v
	}
	if v := os.Getenv("PERSONA_HEADER"); v != "" {
		c.Header = v
	}

	if v := os.Getenv("PERSONA_WARN_TOKENS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Budget.Warn = n
		}
	}
	if v := os.Getenv("PERSONA_ERROR_TOKENS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Budget.Error = n
		}
	}

	if v := os.Getenv("PERSONA_COLOR"); v != "" {
		c.Output.Color = v
	}
	if v := os.Getenv("PERSONA_LOG_FORMAT"); v != "" {
		c.Output.LogFormat = strings.ToLower(v)
	}
}

// splitPaths splits a colon-separated path string into individual paths.
// Empty segments are filtered out.
func splitPaths(s string) []string {
	parts := strings.Split(s, ":")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}
