package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	require.NotNil(t, cfg)
	assert.Equal(t, "ndjson", cfg.Format)
	assert.False(t, cfg.Quiet)
	assert.False(t, cfg.Verbose)
	assert.Equal(t, "ws://localhost:5000/_profiler", cfg.Defaults.Endpoint)
	assert.Equal(t, "500ms", cfg.Defaults.PollInterval)
	assert.Equal(t, 2000, cfg.Defaults.BufferSize)
	assert.Equal(t, 16.0, cfg.Defaults.MaxZoom)
	assert.Equal(t, "5s", cfg.Defaults.RegistryTimeout)
}

func TestLoad(t *testing.T) {
	t.Run("returns defaults when no config file exists", func(t *testing.T) {
		tmpDir := t.TempDir()
		origDir, _ := os.Getwd()
		os.Chdir(tmpDir)
		defer os.Chdir(origDir)

		cfg, err := Load()
		require.NoError(t, err)
		require.NotNil(t, cfg)

		assert.Equal(t, "ndjson", cfg.Format)
	})
}

func TestLoadFromFile(t *testing.T) {
	t.Run("returns error for non-existent file", func(t *testing.T) {
		cfg, err := LoadFromFile("/nonexistent/path/config.yaml")
		assert.Error(t, err)
		assert.Nil(t, cfg)
	})

	t.Run("returns error for invalid YAML", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "bad.yaml")
		err := os.WriteFile(configPath, []byte("invalid: yaml: content: ["), 0644)
		require.NoError(t, err)

		cfg, err := LoadFromFile(configPath)
		assert.Error(t, err)
		assert.Nil(t, cfg)
	})

	t.Run("parses all config fields", func(t *testing.T) {
		tmpDir := t.TempDir()
		configContent := `
format: text
quiet: false
verbose: true
defaults:
  endpoint: ws://localhost:7000/_profiler
  registry_timeout: 10s
  poll_interval: 250ms
  buffer_size: 500
  max_zoom: 32
  pattern: "Grid|Nav"
  exclude_pattern: "Legacy"
  where:
    - event=render
    - duration>=16.7
`
		configPath := filepath.Join(tmpDir, "rscope.yaml")
		err := os.WriteFile(configPath, []byte(configContent), 0644)
		require.NoError(t, err)

		cfg, err := LoadFromFile(configPath)
		require.NoError(t, err)

		assert.Equal(t, "text", cfg.Format)
		assert.False(t, cfg.Quiet)
		assert.True(t, cfg.Verbose)
		assert.Equal(t, "ws://localhost:7000/_profiler", cfg.Defaults.Endpoint)
		assert.Equal(t, "10s", cfg.Defaults.RegistryTimeout)
		assert.Equal(t, "250ms", cfg.Defaults.PollInterval)
		assert.Equal(t, 500, cfg.Defaults.BufferSize)
		assert.Equal(t, 32.0, cfg.Defaults.MaxZoom)
		assert.Equal(t, "Grid|Nav", cfg.Defaults.Pattern)
		assert.Equal(t, "Legacy", cfg.Defaults.ExcludePattern)
		assert.Contains(t, cfg.Defaults.Where, "event=render")
	})

	t.Run("missing fields keep defaults", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "rscope.yaml")
		err := os.WriteFile(configPath, []byte("format: text"), 0644)
		require.NoError(t, err)

		cfg, err := LoadFromFile(configPath)
		require.NoError(t, err)

		assert.Equal(t, "text", cfg.Format)
		assert.Equal(t, 2000, cfg.Defaults.BufferSize)
		assert.Equal(t, "500ms", cfg.Defaults.PollInterval)
	})
}

func TestConfigEnvironmentVariables(t *testing.T) {
	origFormat := os.Getenv("RSCOPE_FORMAT")
	origEndpoint := os.Getenv("RSCOPE_ENDPOINT")
	defer func() {
		os.Setenv("RSCOPE_FORMAT", origFormat)
		os.Setenv("RSCOPE_ENDPOINT", origEndpoint)
	}()

	os.Setenv("RSCOPE_FORMAT", "text")
	os.Setenv("RSCOPE_ENDPOINT", "ws://env-host:5000/_profiler")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "text", cfg.Format)
	assert.Equal(t, "ws://env-host:5000/_profiler", cfg.Defaults.Endpoint)
}

func TestFindConfigFile(t *testing.T) {
	t.Run("finds .rscope.yaml in current directory", func(t *testing.T) {
		tmpDir := t.TempDir()
		origDir, _ := os.Getwd()
		os.Chdir(tmpDir)
		defer os.Chdir(origDir)

		configPath := filepath.Join(tmpDir, ".rscope.yaml")
		err := os.WriteFile(configPath, []byte("format: text"), 0644)
		require.NoError(t, err)

		found := findConfigFile()
		expectedPath, _ := filepath.EvalSymlinks(configPath)
		foundPath, _ := filepath.EvalSymlinks(found)
		assert.Equal(t, expectedPath, foundPath)
	})

	t.Run("prefers .rscope.yaml over .rscope.yml", func(t *testing.T) {
		tmpDir := t.TempDir()
		origDir, _ := os.Getwd()
		os.Chdir(tmpDir)
		defer os.Chdir(origDir)

		yamlPath := filepath.Join(tmpDir, ".rscope.yaml")
		ymlPath := filepath.Join(tmpDir, ".rscope.yml")
		require.NoError(t, os.WriteFile(yamlPath, []byte("format: yaml"), 0644))
		require.NoError(t, os.WriteFile(ymlPath, []byte("format: yml"), 0644))

		found := findConfigFile()
		expectedPath, _ := filepath.EvalSymlinks(yamlPath)
		foundPath, _ := filepath.EvalSymlinks(found)
		assert.Equal(t, expectedPath, foundPath)
	})

	t.Run("returns empty string when no config found", func(t *testing.T) {
		tmpDir := t.TempDir()
		origDir, _ := os.Getwd()
		os.Chdir(tmpDir)
		defer os.Chdir(origDir)

		found := findConfigFile()
		assert.Empty(t, found)
	})
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Run("overrides format from env", func(t *testing.T) {
		cfg := Default()
		os.Setenv("RSCOPE_FORMAT", "text")
		defer os.Unsetenv("RSCOPE_FORMAT")

		applyEnvOverrides(cfg)
		assert.Equal(t, "text", cfg.Format)
	})

	t.Run("overrides quiet from env with true", func(t *testing.T) {
		cfg := Default()
		os.Setenv("RSCOPE_QUIET", "true")
		defer os.Unsetenv("RSCOPE_QUIET")

		applyEnvOverrides(cfg)
		assert.True(t, cfg.Quiet)
	})

	t.Run("overrides quiet from env with 1", func(t *testing.T) {
		cfg := Default()
		os.Setenv("RSCOPE_QUIET", "1")
		defer os.Unsetenv("RSCOPE_QUIET")

		applyEnvOverrides(cfg)
		assert.True(t, cfg.Quiet)
	})

	t.Run("does not override quiet with other values", func(t *testing.T) {
		cfg := Default()
		os.Setenv("RSCOPE_QUIET", "yes")
		defer os.Unsetenv("RSCOPE_QUIET")

		applyEnvOverrides(cfg)
		assert.False(t, cfg.Quiet)
	})

	t.Run("overrides endpoint from env", func(t *testing.T) {
		cfg := Default()
		os.Setenv("RSCOPE_ENDPOINT", "ws://other:5000/_profiler")
		defer os.Unsetenv("RSCOPE_ENDPOINT")

		applyEnvOverrides(cfg)
		assert.Equal(t, "ws://other:5000/_profiler", cfg.Defaults.Endpoint)
	})
}
