package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_ReturnsDefaults(t *testing.T) {
	cfg := New()
	require.NotNil(t, cfg)

	assert.Equal(t, "sqlite", cfg.Storage.Backend)
	assert.Equal(t, 0, cfg.Storage.ExcludeWordThreshold)
	assert.Equal(t, 64, cfg.Index.MaxTokenLength)
	assert.True(t, cfg.Index.AutoErase)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.True(t, cfg.Logging.WriteToStderr)

	require.NoError(t, cfg.Validate())
}

func TestLoad_ProjectFileOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	yaml := []byte("storage:\n  backend: sqlite3\n  exclude_word_threshold: 500\nlogging:\n  level: debug\n")
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".libsearch.yaml"), yaml, 0o644))

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "sqlite3", cfg.Storage.Backend)
	assert.Equal(t, 500, cfg.Storage.ExcludeWordThreshold)
	assert.Equal(t, "debug", cfg.Logging.Level)
	// Untouched fields keep their defaults.
	assert.Equal(t, 64, cfg.Index.MaxTokenLength)
}

func TestLoad_YmlFallback(t *testing.T) {
	dir := t.TempDir()
	yaml := []byte("storage:\n  backend: sqlite3\n")
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".libsearch.yml"), yaml, 0o644))

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "sqlite3", cfg.Storage.Backend)
}

func TestApplyEnvOverrides_HighestPrecedence(t *testing.T) {
	dir := t.TempDir()
	yaml := []byte("storage:\n  backend: sqlite3\n")
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".libsearch.yaml"), yaml, 0o644))

	t.Setenv("LIBSEARCH_STORAGE_BACKEND", "sqlite")
	t.Setenv("LIBSEARCH_AUTO_ERASE", "false")

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "sqlite", cfg.Storage.Backend, "env var wins over project file")
	assert.False(t, cfg.Index.AutoErase)
}

func TestValidate_RejectsUnknownBackend(t *testing.T) {
	cfg := New()
	cfg.Storage.Backend = "postgres"
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "storage.backend")
}

func TestValidate_RejectsNegativeThreshold(t *testing.T) {
	cfg := New()
	cfg.Storage.ExcludeWordThreshold = -1
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exclude_word_threshold")
}

func TestValidate_RejectsUnknownLogLevel(t *testing.T) {
	cfg := New()
	cfg.Logging.Level = "verbose"
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "logging.level")
}

func TestUserConfigExists_FalseWhenAbsent(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	assert.False(t, UserConfigExists())
}

func TestValidate_RejectsInvalidMaskRegex(t *testing.T) {
	cfg := New()
	cfg.Snippet.MaskRegexArray = []string{`[\p{L}\p{N}]+`, `(unterminated`}
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mask_regex_array")
}

func TestCompileMaskRegexArray_CompilesEachPattern(t *testing.T) {
	cfg := New()
	cfg.Snippet.MaskRegexArray = []string{`[\p{L}\p{N}]+`, `\d+`}
	compiled, err := cfg.CompileMaskRegexArray()
	require.NoError(t, err)
	require.Len(t, compiled, 2)
	assert.True(t, compiled[1].MatchString("42"))
}
