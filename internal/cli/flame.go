package cli

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"

	"github.com/mzorec/renderscope/internal/domain"
	"github.com/mzorec/renderscope/internal/output"
	"github.com/mzorec/renderscope/internal/timeline"
)

// FlameCmd projects a recorded session file (written by record --output)
// into a zoomed/panned flamegraph view.
type FlameCmd struct {
	Input string  `short:"i" required:"" help:"Session NDJSON file written by record --output"`
	Zoom  float64 `short:"z" default:"1" help:"Zoom factor, 1 shows the whole session"`
	Pan   float64 `default:"0" help:"Pan offset as a fraction of the timeline, 0 is the left edge"`
}

// Run executes the flame command
func (c *FlameCmd) Run(globals *Globals) error {
	events, session, err := c.readSession()
	if err != nil {
		return outputErrorCommon(globals, "INPUT_FAILED", err.Error())
	}
	if len(events) == 0 {
		return outputErrorCommon(globals, "EMPTY_SESSION", fmt.Sprintf("no events in %s", c.Input))
	}

	cfg := timeline.Config{MaxZoom: globals.Config.Defaults.MaxZoom}
	projection := timeline.Project(events, c.Zoom, c.Pan, cfg)

	if globals.Format == "ndjson" {
		return output.NewNDJSONWriter(globals.Stdout).WriteFlamegraph(session, projection)
	}
	return output.NewTextWriter(globals.Stdout, globals.ColorOutput()).WriteFlamegraph(projection)
}

// readSession parses event records out of a session NDJSON file, ignoring
// other record types.
func (c *FlameCmd) readSession() ([]domain.Event, int, error) {
	f, err := os.Open(c.Input)
	if err != nil {
		return nil, 0, err
	}
	defer f.Close()

	var events []domain.Event
	session := 0
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var rec output.EventRecord
		if err := json.Unmarshal(line, &rec); err != nil {
			continue
		}
		if rec.Type != "event" {
			continue
		}
		events = append(events, rec.Event)
		session = rec.Session
	}
	if err := scanner.Err(); err != nil {
		return nil, 0, err
	}
	return events, session, nil
}
