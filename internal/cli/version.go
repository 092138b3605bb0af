package cli

import (
	"encoding/json"
	"fmt"
	"runtime"
)

// Version info, set via ldflags at build time
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

// VersionCmd shows version information
type VersionCmd struct{}

// Run executes the version command
func (c *VersionCmd) Run(globals *Globals) error {
	if globals.Format == "ndjson" {
		out := map[string]interface{}{
			"type":    "version",
			"version": Version,
			"commit":  Commit,
			"date":    Date,
			"go":      runtime.Version(),
		}
		return json.NewEncoder(globals.Stdout).Encode(out)
	}

	fmt.Fprintf(globals.Stdout, "rscope version %s (commit %s, built %s)\n", Version, Commit, Date)
	return nil
}
