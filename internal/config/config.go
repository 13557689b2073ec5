// Package config loads the engine's configuration from layered sources:
// hardcoded defaults, a user config file, a project config file, and
// environment variables, in increasing order of precedence.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the complete engine configuration.
type Config struct {
	Storage   StorageConfig   `yaml:"storage" json:"storage"`
	Index     IndexConfig     `yaml:"index" json:"index"`
	Snippet   SnippetConfig   `yaml:"snippet" json:"snippet"`
	Logging   LoggingConfig   `yaml:"logging" json:"logging"`
}

// StorageConfig selects and configures the storage backend.
type StorageConfig struct {
	// Backend is "sqlite" (pure Go, default) or "sqlite3" (cgo).
	Backend string `yaml:"backend" json:"backend"`
	// Path is the database file path; empty or ":memory:" opens an
	// in-memory database.
	Path string `yaml:"path" json:"path"`
	// TablePrefix is prepended to all table names, allowing more than one
	// index to share a database file.
	TablePrefix string `yaml:"table_prefix" json:"table_prefix"`
	// ExcludeWordThreshold is the document-frequency threshold above which
	// a word is reported as excluded from scoring. 0 disables exclusion.
	ExcludeWordThreshold int `yaml:"exclude_word_threshold" json:"exclude_word_threshold"`
}

// IndexConfig configures the write path.
type IndexConfig struct {
	// MaxTokenLength drops tokens longer than this many bytes. 0 disables
	// the bound.
	MaxTokenLength int `yaml:"max_token_length" json:"max_token_length"`
	// AutoErase retries a failed write once, erasing and recreating the
	// schema first, when the failure is classified as EmptyIndex.
	AutoErase bool `yaml:"auto_erase" json:"auto_erase"`
}

// SnippetConfig configures snippet assembly and highlighting.
type SnippetConfig struct {
	HighlightTemplate string   `yaml:"highlight_template" json:"highlight_template"`
	LineSeparator     string   `yaml:"line_separator" json:"line_separator"`
	MaskRegexArray    []string `yaml:"mask_regex_array" json:"mask_regex_array"`
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level         string `yaml:"level" json:"level"`
	FilePath      string `yaml:"file_path" json:"file_path"`
	MaxSizeMB     int    `yaml:"max_size_mb" json:"max_size_mb"`
	MaxFiles      int    `yaml:"max_files" json:"max_files"`
	WriteToStderr bool   `yaml:"write_to_stderr" json:"write_to_stderr"`
}

// New returns a Config populated with defaults.
func New() *Config {
	return &Config{
		Storage: StorageConfig{
			Backend:              "sqlite",
			TablePrefix:          "",
			ExcludeWordThreshold: 0,
		},
		Index: IndexConfig{
			MaxTokenLength: 64,
			AutoErase:      true,
		},
		Snippet: SnippetConfig{
			HighlightTemplate: "<b>{word}</b>",
			LineSeparator:     " ... ",
		},
		Logging: LoggingConfig{
			Level:         "info",
			FilePath:      "",
			MaxSizeMB:     10,
			MaxFiles:      5,
			WriteToStderr: true,
		},
	}
}

// GetUserConfigPath returns the path to the user/global config file.
func GetUserConfigPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "libsearch", "config.yaml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".config", "libsearch", "config.yaml")
	}
	return filepath.Join(home, ".config", "libsearch", "config.yaml")
}

// UserConfigExists reports whether the user configuration file exists.
func UserConfigExists() bool {
	return fileExists(GetUserConfigPath())
}

func loadUserConfig() (*Config, error) {
	path := GetUserConfigPath()
	if !fileExists(path) {
		return nil, nil
	}
	cfg := New()
	if err := cfg.loadYAML(path); err != nil {
		return nil, fmt.Errorf("failed to load user config from %s: %w", path, err)
	}
	return cfg, nil
}

// Load loads configuration for the working directory dir, applying
// sources in order of increasing precedence:
//  1. Hardcoded defaults
//  2. User/global config (~/.config/libsearch/config.yaml)
//  3. Project config (.libsearch.yaml in dir)
//  4. Environment variables (LIBSEARCH_*)
func Load(dir string) (*Config, error) {
	cfg := New()

	if userCfg, err := loadUserConfig(); err != nil {
		return nil, fmt.Errorf("failed to load user config: %w", err)
	} else if userCfg != nil {
		cfg.mergeWith(userCfg)
	}

	if err := cfg.loadFromFile(dir); err != nil {
		return nil, err
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func (c *Config) loadFromFile(dir string) error {
	yamlPath := filepath.Join(dir, ".libsearch.yaml")
	if _, err := os.Stat(yamlPath); err == nil {
		return c.loadYAML(yamlPath)
	}
	ymlPath := filepath.Join(dir, ".libsearch.yml")
	if _, err := os.Stat(ymlPath); err == nil {
		return c.loadYAML(ymlPath)
	}
	return nil
}

func (c *Config) loadYAML(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var parsed Config
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	c.mergeWith(&parsed)
	return nil
}

// mergeWith merges non-zero values from other into c.
func (c *Config) mergeWith(other *Config) {
	if other.Storage.Backend != "" {
		c.Storage.Backend = other.Storage.Backend
	}
	if other.Storage.Path != "" {
		c.Storage.Path = other.Storage.Path
	}
	if other.Storage.TablePrefix != "" {
		c.Storage.TablePrefix = other.Storage.TablePrefix
	}
	if other.Storage.ExcludeWordThreshold != 0 {
		c.Storage.ExcludeWordThreshold = other.Storage.ExcludeWordThreshold
	}

	if other.Index.MaxTokenLength != 0 {
		c.Index.MaxTokenLength = other.Index.MaxTokenLength
	}
	if other.Index.AutoErase {
		c.Index.AutoErase = other.Index.AutoErase
	}

	if other.Snippet.HighlightTemplate != "" {
		c.Snippet.HighlightTemplate = other.Snippet.HighlightTemplate
	}
	if other.Snippet.LineSeparator != "" {
		c.Snippet.LineSeparator = other.Snippet.LineSeparator
	}
	if len(other.Snippet.MaskRegexArray) > 0 {
		c.Snippet.MaskRegexArray = other.Snippet.MaskRegexArray
	}

	if other.Logging.Level != "" {
		c.Logging.Level = other.Logging.Level
	}
	if other.Logging.FilePath != "" {
		c.Logging.FilePath = other.Logging.FilePath
	}
	if other.Logging.MaxSizeMB != 0 {
		c.Logging.MaxSizeMB = other.Logging.MaxSizeMB
	}
	if other.Logging.MaxFiles != 0 {
		c.Logging.MaxFiles = other.Logging.MaxFiles
	}
}

// applyEnvOverrides applies LIBSEARCH_* environment variables, the
// highest-precedence configuration source.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("LIBSEARCH_STORAGE_BACKEND"); v != "" {
		c.Storage.Backend = v
	}
	if v := os.Getenv("LIBSEARCH_STORAGE_PATH"); v != "" {
		c.Storage.Path = v
	}
	if v := os.Getenv("LIBSEARCH_EXCLUDE_WORD_THRESHOLD"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			c.Storage.ExcludeWordThreshold = n
		}
	}
	if v := os.Getenv("LIBSEARCH_AUTO_ERASE"); v != "" {
		c.Index.AutoErase = strings.ToLower(v) == "true" || v == "1"
	}
	if v := os.Getenv("LIBSEARCH_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
}

// Validate checks the configuration for internally-inconsistent values.
func (c *Config) Validate() error {
	validBackends := map[string]bool{"sqlite": true, "sqlite3": true}
	if !validBackends[strings.ToLower(c.Storage.Backend)] {
		return fmt.Errorf("storage.backend must be 'sqlite' or 'sqlite3', got %s", c.Storage.Backend)
	}

	if c.Storage.ExcludeWordThreshold < 0 {
		return fmt.Errorf("storage.exclude_word_threshold must be non-negative, got %d", c.Storage.ExcludeWordThreshold)
	}
	if c.Index.MaxTokenLength < 0 {
		return fmt.Errorf("index.max_token_length must be non-negative, got %d", c.Index.MaxTokenLength)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Logging.Level)] {
		return fmt.Errorf("logging.level must be 'debug', 'info', 'warn', or 'error', got %s", c.Logging.Level)
	}

	for _, pattern := range c.Snippet.MaskRegexArray {
		if _, err := regexp.Compile(pattern); err != nil {
			return fmt.Errorf("snippet.mask_regex_array: invalid pattern %q: %w", pattern, err)
		}
	}

	return nil
}

// CompileMaskRegexArray compiles each pattern in Snippet.MaskRegexArray.
// Callers should only reach this after Validate has succeeded, so a
// compile error here indicates a programming error rather than bad input.
func (c *Config) CompileMaskRegexArray() ([]*regexp.Regexp, error) {
	compiled := make([]*regexp.Regexp, 0, len(c.Snippet.MaskRegexArray))
	for _, pattern := range c.Snippet.MaskRegexArray {
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("snippet.mask_regex_array: invalid pattern %q: %w", pattern, err)
		}
		compiled = append(compiled, re)
	}
	return compiled, nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
