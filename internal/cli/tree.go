package cli

import (
	"context"
	"fmt"

	"github.com/mzorec/renderscope/internal/engine"
	"github.com/mzorec/renderscope/internal/output"
	"github.com/mzorec/renderscope/internal/registry"
	"github.com/mzorec/renderscope/internal/transport"
)

// TreeCmd prints the current component tree from the app's reflection
// registry.
type TreeCmd struct {
	Find string `short:"f" help:"Only show components whose type name contains this substring"`
}

// Run executes the tree command
func (c *TreeCmd) Run(globals *Globals) error {
	ctx := context.Background()

	globals.Debug("Connecting to %s", globals.Endpoint)
	client, err := transport.Dial(ctx, globals.Endpoint, nil)
	if err != nil {
		return outputErrorCommon(globals, "CONNECT_FAILED", err.Error(),
			"is the instrumented app running and the profiler endpoint enabled?")
	}
	defer client.Close()

	eng := engine.New(engine.Options{
		Registry: registry.NewBoundedClient(client, registry.DefaultTimeout),
	})

	if err := eng.SyncRegistry(ctx); err != nil {
		code := "REGISTRY_FAILED"
		if registry.IsTimeout(err) {
			code = "REGISTRY_TIMEOUT"
		}
		return outputErrorCommon(globals, code, err.Error())
	}

	if c.Find != "" {
		matches := eng.FindComponents(c.Find)
		if globals.Format == "ndjson" {
			return output.NewNDJSONWriter(globals.Stdout).WriteFound(c.Find, matches)
		}
		if len(matches) == 0 {
			fmt.Fprintf(globals.Stdout, "no components matching %q\n", c.Find)
			return nil
		}
		for _, node := range matches {
			fmt.Fprintf(globals.Stdout, "%s  (id %s, %d renders)\n", node.TypeName, node.ID, node.RenderCount)
		}
		return nil
	}

	roots := eng.TreeSnapshot()
	if globals.Format == "ndjson" {
		return output.NewNDJSONWriter(globals.Stdout).WriteTree(roots)
	}
	return output.NewTextWriter(globals.Stdout, globals.ColorOutput()).WriteTree(roots)
}
