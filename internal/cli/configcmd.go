package cli

import (
	"encoding/json"
	"fmt"

	"github.com/mzorec/renderscope/internal/config"
)

// ConfigCmd groups configuration subcommands
type ConfigCmd struct {
	Show     ConfigShowCmd     `cmd:"" default:"1" help:"Show the effective configuration"`
	Path     ConfigPathCmd     `cmd:"" help:"Show which config file is in use"`
	Generate ConfigGenerateCmd `cmd:"" help:"Print a sample configuration file"`
}

// ConfigShowCmd shows the effective configuration
type ConfigShowCmd struct{}

// Run executes the config show command
func (c *ConfigShowCmd) Run(globals *Globals) error {
	cfg := globals.Config
	if cfg == nil {
		cfg = config.Default()
	}

	if globals.Format == "ndjson" {
		out := map[string]interface{}{
			"type":    "config",
			"format":  cfg.Format,
			"quiet":   cfg.Quiet,
			"verbose": cfg.Verbose,
			"defaults": map[string]interface{}{
				"endpoint":         cfg.Defaults.Endpoint,
				"registry_timeout": cfg.Defaults.RegistryTimeout,
				"poll_interval":    cfg.Defaults.PollInterval,
				"buffer_size":      cfg.Defaults.BufferSize,
				"max_zoom":         cfg.Defaults.MaxZoom,
				"pattern":          cfg.Defaults.Pattern,
				"exclude_pattern":  cfg.Defaults.ExcludePattern,
				"where":            cfg.Defaults.Where,
			},
		}
		return json.NewEncoder(globals.Stdout).Encode(out)
	}

	fmt.Fprintln(globals.Stdout, "Current Configuration:")
	fmt.Fprintf(globals.Stdout, "  format: %s\n", cfg.Format)
	fmt.Fprintf(globals.Stdout, "  quiet: %t\n", cfg.Quiet)
	fmt.Fprintf(globals.Stdout, "  verbose: %t\n", cfg.Verbose)
	fmt.Fprintln(globals.Stdout, "  Defaults:")
	fmt.Fprintf(globals.Stdout, "    endpoint: %s\n", cfg.Defaults.Endpoint)
	fmt.Fprintf(globals.Stdout, "    registry_timeout: %s\n", cfg.Defaults.RegistryTimeout)
	fmt.Fprintf(globals.Stdout, "    poll_interval: %s\n", cfg.Defaults.PollInterval)
	fmt.Fprintf(globals.Stdout, "    buffer_size: %d\n", cfg.Defaults.BufferSize)
	fmt.Fprintf(globals.Stdout, "    max_zoom: %g\n", cfg.Defaults.MaxZoom)
	if cfg.Defaults.Pattern != "" {
		fmt.Fprintf(globals.Stdout, "    pattern: %s\n", cfg.Defaults.Pattern)
	}
	if cfg.Defaults.ExcludePattern != "" {
		fmt.Fprintf(globals.Stdout, "    exclude_pattern: %s\n", cfg.Defaults.ExcludePattern)
	}
	for _, w := range cfg.Defaults.Where {
		fmt.Fprintf(globals.Stdout, "    where: %s\n", w)
	}
	return nil
}

// ConfigPathCmd shows which config file is in use
type ConfigPathCmd struct{}

// Run executes the config path command
func (c *ConfigPathCmd) Run(globals *Globals) error {
	path := config.ConfigFile()

	if globals.Format == "ndjson" {
		out := map[string]interface{}{
			"type": "config_path",
			"path": path,
		}
		return json.NewEncoder(globals.Stdout).Encode(out)
	}

	if path == "" {
		fmt.Fprintln(globals.Stdout, "No configuration file found (using defaults)")
		fmt.Fprintln(globals.Stdout, "Searched: /etc/rscope/, ~/.config/rscope/, ~/.rscope.yaml, ./rscope.yaml, .rscoperc")
	} else {
		fmt.Fprintf(globals.Stdout, "Config file: %s\n", path)
	}
	return nil
}

// ConfigGenerateCmd prints a sample configuration file
type ConfigGenerateCmd struct{}

// Run executes the config generate command
func (c *ConfigGenerateCmd) Run(globals *Globals) error {
	sample := `# rscope configuration file
# Place at ~/.rscope.yaml, ./rscope.yaml, or ~/.config/rscope/rscope.yaml

# Output format: ndjson (machine-readable), text, or auto
format: ndjson

# Suppress informational output
quiet: false

# Verbose debug logging
verbose: false

defaults:
  # Profiler websocket endpoint of the instrumented app
  endpoint: ws://localhost:5000/_profiler

  # Deadline for registry queries
  registry_timeout: 5s

  # Event poll interval while recording
  poll_interval: 500ms

  # Live event buffer capacity
  buffer_size: 2000

  # Maximum flamegraph zoom factor
  max_zoom: 16

  # Default event filters
  # pattern: "Grid|Nav"
  # exclude_pattern: "Legacy"
  # where:
  #   - event=render
  #   - duration>=16.7
`
	fmt.Fprint(globals.Stdout, sample)
	return nil
}
