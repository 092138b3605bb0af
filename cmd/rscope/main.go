package main

import (
	"fmt"
	"os"

	"github.com/alecthomas/kong"

	"github.com/mzorec/renderscope/internal/cli"
	"github.com/mzorec/renderscope/internal/config"
)

const quickStart = `rscope - component render profiler for instrumented web apps

Quick start:
  rscope tree                            Show the live component tree
  rscope record -d 10s                   Record a 10 second session
  rscope ui                              Interactive profiler UI

For help:
  rscope --help                          All commands and flags
  rscope schema                          Machine-readable output schemas
`

func main() {
	// Show quick start if no args provided
	if len(os.Args) == 1 {
		fmt.Print(quickStart)
		return
	}

	// Load configuration from files/environment
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to load config: %v\n", err)
		cfg = config.Default()
	}

	var c cli.CLI

	// Apply config defaults before parsing
	// These will be overridden by CLI flags if specified
	vars := kong.Vars{
		"config_format":        cfg.Format,
		"config_endpoint":      cfg.Defaults.Endpoint,
		"config_poll_interval": cfg.Defaults.PollInterval,
		"config_buffer_size":   fmt.Sprintf("%d", cfg.Defaults.BufferSize),
	}

	ctx := kong.Parse(&c,
		kong.Name("rscope"),
		kong.Description("renderscope: profile component render behavior of instrumented web apps\n\nAI agents: run 'rscope schema' for machine-readable output contracts"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
			Summary: true,
		}),
		vars,
	)

	globals := cli.NewGlobalsWithConfig(&c, cfg)
	err = ctx.Run(globals)
	if err != nil {
		os.Exit(1)
	}
}
