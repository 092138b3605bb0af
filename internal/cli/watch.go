package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mzorec/renderscope/internal/engine"
	"github.com/mzorec/renderscope/internal/filter"
	"github.com/mzorec/renderscope/internal/output"
	"github.com/mzorec/renderscope/internal/registry"
	"github.com/mzorec/renderscope/internal/timeline"
	"github.com/mzorec/renderscope/internal/transport"
)

// WatchCmd streams live component events without starting a recording
// session. Events land in the rolling buffer only, so a later record run
// starts clean.
type WatchCmd struct {
	Pattern    string   `short:"p" help:"Regex filter on component type names"`
	Exclude    string   `short:"x" help:"Regex to exclude component type names"`
	Where      []string `short:"w" help:"Field condition like event=render or duration>=16.7 (can be repeated)"`
	Dedupe     bool     `help:"Collapse runs of identical events into one line with a count"`
	BufferSize int      `help:"Live event buffer capacity" default:"${config_buffer_size}"`
}

// Run executes the watch command
func (c *WatchCmd) Run(globals *Globals) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	pipeline, err := buildPipeline(c.Pattern, c.Exclude, c.Where)
	if err != nil {
		return outputErrorCommon(globals, "INVALID_PATTERN", err.Error())
	}

	globals.Debug("Connecting to %s", globals.Endpoint)
	client, err := transport.Dial(ctx, globals.Endpoint, nil)
	if err != nil {
		return outputErrorCommon(globals, "CONNECT_FAILED", err.Error(),
			"is the instrumented app running and the profiler endpoint enabled?")
	}
	defer client.Close()

	eng := engine.New(engine.Options{
		Registry:        registry.NewBoundedClient(client, registry.DefaultTimeout),
		RollingCapacity: c.BufferSize,
		Timeline:        timeline.Config{MaxZoom: globals.Config.Defaults.MaxZoom},
	})

	writer := output.NewNDJSONWriter(globals.Stdout)
	if globals.Format == "ndjson" {
		writer.WriteReady(nowStamp(), eng.ID(), globals.Endpoint, eng.Session())
	} else if !globals.Quiet {
		fmt.Fprintf(globals.Stderr, "Watching events from %s\n", globals.Endpoint)
		fmt.Fprintln(globals.Stderr, "Press Ctrl+C to stop")
	}

	dedupe := filter.NewDedupeFilter(0)
	var cursor int64
	count := 0
	emit := func() {
		for _, ev := range eng.LiveEventsSince(cursor) {
			cursor = ev.EventID
			if pipeline != nil && !pipeline.Match(&ev) {
				continue
			}
			repeated := 1
			if c.Dedupe {
				res := dedupe.Check(&ev)
				if !res.ShouldEmit {
					continue
				}
				repeated = res.Count
			}
			count++
			if globals.Format == "ndjson" {
				writer.WriteEvent(eng.Session(), ev, repeated)
			} else {
				dur := ""
				if ev.DurationMs != nil {
					dur = fmt.Sprintf(" %.2fms", *ev.DurationMs)
				}
				suffix := ""
				if repeated > 1 {
					suffix = fmt.Sprintf(" (×%d)", repeated)
				}
				fmt.Fprintf(globals.Stdout, "%-14s %-24s%s%s\n", ev.EventType, ev.ComponentType, dur, suffix)
			}
		}
	}

	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			if !globals.Quiet && globals.Format != "ndjson" {
				fmt.Fprintf(globals.Stderr, "Watched %d events\n", count)
			}
			return nil
		case sig, ok := <-client.Signals():
			if !ok {
				outputWarningCommon(globals, writer, "connection closed by app")
				return nil
			}
			eng.Apply(sig)
			emit()
		case err := <-client.Errors():
			outputWarningCommon(globals, writer, err.Error())
		case <-ticker.C:
			emit()
		}
	}
}
