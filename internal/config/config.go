package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config holds application configuration
type Config struct {
	// Global settings
	Format  string `mapstructure:"format"`
	Quiet   bool   `mapstructure:"quiet"`
	Verbose bool   `mapstructure:"verbose"`

	// Default values for commands
	Defaults DefaultsConfig `mapstructure:"defaults"`
}

// DefaultsConfig holds default values for various commands
type DefaultsConfig struct {
	// Connection defaults
	Endpoint        string `mapstructure:"endpoint"`
	RegistryTimeout string `mapstructure:"registry_timeout"`

	// Recording defaults
	PollInterval string  `mapstructure:"poll_interval"`
	BufferSize   int     `mapstructure:"buffer_size"`
	MaxZoom      float64 `mapstructure:"max_zoom"`

	// Filter defaults
	Pattern        string   `mapstructure:"pattern"`
	ExcludePattern string   `mapstructure:"exclude_pattern"`
	Where          []string `mapstructure:"where"`
}

// Default returns a Config with default values
func Default() *Config {
	return &Config{
		Format:  "ndjson",
		Quiet:   false,
		Verbose: false,
		Defaults: DefaultsConfig{
			Endpoint:        "ws://localhost:5000/_profiler",
			RegistryTimeout: "5s",
			PollInterval:    "500ms",
			BufferSize:      2000,
			MaxZoom:         16,
		},
	}
}

// Load loads configuration from files and environment
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("rscope")
	v.SetConfigType("yaml")

	// Config paths (in order of precedence, lowest first)
	v.AddConfigPath("/etc/rscope/")
	if configDir, err := os.UserConfigDir(); err == nil {
		v.AddConfigPath(filepath.Join(configDir, "rscope"))
	}
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(home)
		v.SetConfigName(".rscope")
	}
	v.AddConfigPath(".")

	// Also check for .rscoperc file
	v.SetConfigName(".rscoperc")
	v.AddConfigPath(".")
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(home)
	}

	// Environment variables
	v.SetEnvPrefix("RSCOPE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	v.BindEnv("format", "RSCOPE_FORMAT")
	v.BindEnv("quiet", "RSCOPE_QUIET")
	v.BindEnv("verbose", "RSCOPE_VERBOSE")
	v.BindEnv("defaults.endpoint", "RSCOPE_ENDPOINT")
	v.BindEnv("defaults.poll_interval", "RSCOPE_POLL_INTERVAL")

	// Set defaults
	cfg := Default()
	v.SetDefault("format", cfg.Format)
	v.SetDefault("quiet", cfg.Quiet)
	v.SetDefault("verbose", cfg.Verbose)
	v.SetDefault("defaults.endpoint", cfg.Defaults.Endpoint)
	v.SetDefault("defaults.registry_timeout", cfg.Defaults.RegistryTimeout)
	v.SetDefault("defaults.poll_interval", cfg.Defaults.PollInterval)
	v.SetDefault("defaults.buffer_size", cfg.Defaults.BufferSize)
	v.SetDefault("defaults.max_zoom", cfg.Defaults.MaxZoom)

	// Try to read config file (ignore if not found)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		// Config file not found; use defaults
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadFromFile loads configuration from a specific file
func LoadFromFile(path string) (*Config, error) {
	v := viper.New()

	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	cfg := Default()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// ConfigFile returns the path to the config file that was loaded
func ConfigFile() string {
	v := viper.New()

	v.SetConfigName("rscope")
	v.SetConfigType("yaml")

	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(home)
	}
	v.AddConfigPath(".")

	if err := v.ReadInConfig(); err == nil {
		return v.ConfigFileUsed()
	}

	// Try .rscoperc
	v.SetConfigName(".rscoperc")
	if err := v.ReadInConfig(); err == nil {
		return v.ConfigFileUsed()
	}

	return ""
}

// findConfigFile looks for a dotfile config in the current directory,
// preferring the .yaml extension.
func findConfigFile() string {
	for _, name := range []string{".rscope.yaml", ".rscope.yml", ".rscoperc"} {
		if _, err := os.Stat(name); err == nil {
			abs, err := filepath.Abs(name)
			if err != nil {
				return name
			}
			return abs
		}
	}
	return ""
}

// applyEnvOverrides applies RSCOPE_* variables on top of a loaded config.
// Booleans accept "true" and "1" only.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("RSCOPE_FORMAT"); v != "" {
		cfg.Format = v
	}
	if v := os.Getenv("RSCOPE_QUIET"); v == "true" || v == "1" {
		cfg.Quiet = true
	}
	if v := os.Getenv("RSCOPE_VERBOSE"); v == "true" || v == "1" {
		cfg.Verbose = true
	}
	if v := os.Getenv("RSCOPE_ENDPOINT"); v != "" {
		cfg.Defaults.Endpoint = v
	}
	if v := os.Getenv("RSCOPE_POLL_INTERVAL"); v != "" {
		cfg.Defaults.PollInterval = v
	}
}
