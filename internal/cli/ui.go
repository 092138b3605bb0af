package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/mzorec/renderscope/internal/engine"
	"github.com/mzorec/renderscope/internal/registry"
	"github.com/mzorec/renderscope/internal/timeline"
	"github.com/mzorec/renderscope/internal/transport"
	"github.com/mzorec/renderscope/internal/tui"
)

// UICmd launches the interactive terminal UI.
type UICmd struct {
	PollInterval string `help:"Event poll interval while recording" default:"${config_poll_interval}"`
	BufferSize   int    `help:"Live event buffer capacity" default:"${config_buffer_size}"`
}

// Run executes the ui command
func (c *UICmd) Run(globals *Globals) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	pollInterval, err := time.ParseDuration(c.PollInterval)
	if err != nil {
		return outputErrorCommon(globals, "INVALID_INTERVAL", fmt.Sprintf("invalid poll interval: %s", err))
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

	// Feed structural signals into the engine in the background; the UI
	// reads derived state on its own tick.
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case sig, ok := <-client.Signals():
				if !ok {
					return
				}
				eng.Apply(sig)
			}
		}
	}()

	model := tui.New(eng, globals.Endpoint)
	p := tea.NewProgram(model, tea.WithAltScreen())

	go func() {
		<-ctx.Done()
		p.Quit()
	}()

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}
