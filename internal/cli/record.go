package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/mzorec/renderscope/internal/domain"
	"github.com/mzorec/renderscope/internal/engine"
	"github.com/mzorec/renderscope/internal/filter"
	"github.com/mzorec/renderscope/internal/output"
	"github.com/mzorec/renderscope/internal/registry"
	"github.com/mzorec/renderscope/internal/timeline"
	"github.com/mzorec/renderscope/internal/transport"
)

// RecordCmd records a profiling session: it attaches to the instrumented
// app, starts a recording, and emits events plus the final ranked summary.
type RecordCmd struct {
	Duration     string   `short:"d" help:"Stop after this duration (e.g. 10s, 2m); records until Ctrl+C when empty"`
	Output       string   `short:"o" help:"Also write session events to this NDJSON file (one file per session)"`
	Pattern      string   `short:"p" help:"Regex filter on component type names"`
	Exclude      string   `short:"x" help:"Regex to exclude component type names"`
	Where        []string `short:"w" help:"Field condition like event=render or duration>=16.7 (can be repeated)"`
	Dedupe       bool     `help:"Collapse runs of identical events into one line with a count"`
	PollInterval string   `help:"Event poll interval while recording" default:"${config_poll_interval}"`
	BufferSize   int      `help:"Live event buffer capacity" default:"${config_buffer_size}"`
}

// Run executes the record command
func (c *RecordCmd) Run(globals *Globals) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	var recordFor time.Duration
	if c.Duration != "" {
		var err error
		recordFor, err = time.ParseDuration(c.Duration)
		if err != nil {
			return outputErrorCommon(globals, "INVALID_DURATION", fmt.Sprintf("invalid duration: %s", err))
		}
	}

	pollInterval, err := time.ParseDuration(c.PollInterval)
	if err != nil {
		return outputErrorCommon(globals, "INVALID_INTERVAL", fmt.Sprintf("invalid poll interval: %s", err))
	}

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
		Fetcher:         client,
		PollInterval:    pollInterval,
		RollingCapacity: c.BufferSize,
		Timeline:        timeline.Config{MaxZoom: globals.Config.Defaults.MaxZoom},
	})
	log := newAgentLogger(globals, eng.ID(), eng.Session)

	writer := output.NewNDJSONWriter(globals.Stdout)
	text := output.NewTextWriter(globals.Stdout, globals.ColorOutput())

	if globals.Format == "ndjson" {
		writer.WriteReady(nowStamp(), eng.ID(), globals.Endpoint, eng.Session())
	} else if !globals.Quiet {
		fmt.Fprintf(globals.Stderr, "Recording from %s\n", globals.Endpoint)
		fmt.Fprintln(globals.Stderr, "Press Ctrl+C to stop")
	}

	if !eng.StartRecording(ctx) {
		return outputErrorCommon(globals, "ALREADY_RECORDING", "a recording session is already active")
	}
	log.Debug("session %d started", eng.Session())

	if globals.Format == "ndjson" {
		writer.WriteSessionStart(nowStamp(), eng.Session())
	}

	// Per-session output file, rotated on session number.
	rot := newRotation(c.sessionPathBuilder())
	defer rot.Close()
	var fileWriter *output.NDJSONWriter
	if c.Output != "" {
		bufw, _, path, err := rot.Open(eng.Session())
		if err != nil {
			return outputErrorCommon(globals, "OUTPUT_FAILED", err.Error())
		}
		fileWriter = output.NewNDJSONWriter(bufw)
		globals.Debug("Writing session events to %s", path)
	}

	dedupe := filter.NewDedupeFilter(0)
	var cursor int64
	emit := func() {
		for _, ev := range eng.EventsSince(cursor) {
			cursor = ev.EventID
			if fileWriter != nil {
				fileWriter.WriteEvent(eng.Session(), ev, 1)
			}
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
			c.writeEvent(globals, writer, eng.Session(), ev, repeated)
		}
	}

	var deadline <-chan time.Time
	if recordFor > 0 {
		deadline = time.After(recordFor)
	}
	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()

loop:
	for {
		select {
		case <-ctx.Done():
			break loop
		case <-deadline:
			break loop
		case sig, ok := <-client.Signals():
			if !ok {
				outputWarningCommon(globals, writer, "connection closed by app")
				break loop
			}
			eng.Apply(sig)
			emit()
		case err := <-client.Errors():
			outputWarningCommon(globals, writer, err.Error())
		case <-ticker.C:
			emit()
		}
	}

	summary := eng.StopRecording()
	emit()

	if summary == nil {
		return nil
	}
	log.Debug("session %d stopped: %d events", summary.Session, summary.Events)

	if globals.Format == "ndjson" {
		writer.WriteSessionEnd(nowStamp(), *summary)
		writer.WriteRanked(summary.Session, eng.Ranked())
		return nil
	}

	if !globals.Quiet {
		fmt.Fprintf(globals.Stderr, "Recorded %d events (%d renders) in %.1fs\n",
			summary.Events, summary.Renders, summary.DurationSeconds)
	}
	return text.WriteRanked(eng.Ranked())
}

func (c *RecordCmd) writeEvent(globals *Globals, writer *output.NDJSONWriter, session int, ev domain.Event, repeated int) {
	if globals.Format == "ndjson" {
		writer.WriteEvent(session, ev, repeated)
		return
	}
	dur := ""
	if ev.DurationMs != nil {
		dur = fmt.Sprintf(" %.2fms", *ev.DurationMs)
	}
	suffix := ""
	if repeated > 1 {
		suffix = fmt.Sprintf(" (×%d)", repeated)
	}
	fmt.Fprintf(globals.Stdout, "%10.1fms  %-14s %-24s%s%s\n",
		ev.RelativeTimestampMs, ev.EventType, ev.ComponentType, dur, suffix)
}

// sessionPathBuilder derives the per-session output path: session number is
// appended before the extension when recording rolls into a new session.
func (c *RecordCmd) sessionPathBuilder() func(int) (string, error) {
	if c.Output == "" {
		return nil
	}
	return func(session int) (string, error) {
		if session <= 1 {
			return c.Output, nil
		}
		base := c.Output
		ext := ""
		if idx := strings.LastIndex(base, "."); idx > 0 {
			ext = base[idx:]
			base = base[:idx]
		}
		return fmt.Sprintf("%s.%d%s", base, session, ext), nil
	}
}
