package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"

	"github.com/mzorec/renderscope/internal/config"
)

// CLI is the top-level command structure parsed by kong.
type CLI struct {
	Format   string `help:"Output format: ndjson, text, or auto (text on a TTY)" enum:"ndjson,text,auto" default:"${config_format}"`
	Endpoint string `short:"e" help:"Profiler websocket endpoint of the instrumented app" default:"${config_endpoint}"`
	Quiet    bool   `short:"q" help:"Suppress informational output"`
	Verbose  bool   `short:"v" help:"Enable verbose debug logging"`

	Record  RecordCmd  `cmd:"" help:"Record a profiling session and emit events, rankings, and summary"`
	Watch   WatchCmd   `cmd:"" help:"Stream live component events without recording"`
	Tree    TreeCmd    `cmd:"" help:"Print the current component tree"`
	Flame   FlameCmd   `cmd:"" help:"Project a recorded session file into a flamegraph view"`
	UI      UICmd      `cmd:"" name:"ui" help:"Interactive terminal UI"`
	Config  ConfigCmd  `cmd:"" help:"Configuration file commands"`
	Schema  SchemaCmd  `cmd:"" help:"Output JSON Schema for rscope NDJSON records"`
	Version VersionCmd `cmd:"" help:"Show version information"`
}

// Globals carries resolved global options into command Run methods. Stdout
// and Stderr are injected so tests can capture output.
type Globals struct {
	Format   string
	Endpoint string
	Quiet    bool
	Verbose  bool
	Stdout   io.Writer
	Stderr   io.Writer
	Config   *config.Config
}

// NewGlobalsWithConfig builds Globals from parsed flags plus the loaded
// config. "auto" format resolves to text on a TTY, ndjson otherwise.
func NewGlobalsWithConfig(c *CLI, cfg *config.Config) *Globals {
	format := c.Format
	if format == "" {
		format = cfg.Format
	}
	if format == "auto" {
		if isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd()) {
			format = "text"
		} else {
			format = "ndjson"
		}
	}
	endpoint := c.Endpoint
	if endpoint == "" {
		endpoint = cfg.Defaults.Endpoint
	}
	return &Globals{
		Format:   format,
		Endpoint: endpoint,
		Quiet:    c.Quiet,
		Verbose:  c.Verbose,
		Stdout:   os.Stdout,
		Stderr:   os.Stderr,
		Config:   cfg,
	}
}

// Debug prints a debug line to stderr when verbose mode is on.
func (g *Globals) Debug(format string, args ...interface{}) {
	if g == nil || !g.Verbose {
		return
	}
	fmt.Fprintf(g.Stderr, "debug: "+format+"\n", args...)
}

// ColorOutput reports whether styled text output should be used.
func (g *Globals) ColorOutput() bool {
	if g.Format != "text" {
		return false
	}
	if f, ok := g.Stdout.(*os.File); ok {
		return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	return false
}
