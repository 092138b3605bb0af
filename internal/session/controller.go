package session

import (
	"sync"
	"time"

	"github.com/benbjohnson/clock"
)

// State is the recording lifecycle state.
type State string

const (
	StateIdle      State = "idle"
	StateRecording State = "recording"
	StateStopped   State = "stopped"
)

// Change describes one observed state transition.
type Change struct {
	From    State
	To      State
	Session int // session number, 1-based; 0 before the first Start
}

// Summary holds statistics for a finished recording session.
type Summary struct {
	Session         int     `json:"session"`
	Events          int     `json:"events"`
	Renders         int     `json:"renders"`
	DurationSeconds float64 `json:"duration_seconds"`
}

// Listener observes state transitions. Listeners are called synchronously,
// in registration order, on the goroutine performing the transition, so
// dependent read models can reset before the next mutation lands.
type Listener func(Change)

// Controller is the Idle -> Recording -> Stopped state machine that gates
// event ingestion. Start while Recording and Stop while not Recording are
// no-ops; Clear is valid from Idle or Stopped and returns to Idle.
type Controller struct {
	mu        sync.Mutex
	clk       clock.Clock
	state     State
	session   int
	startedAt time.Time
	baseMs    *float64
	lastRelMs float64
	events    int
	renders   int
	listeners []Listener
}

// NewController creates a controller in the Idle state.
func NewController(clk clock.Clock) *Controller {
	if clk == nil {
		clk = clock.New()
	}
	return &Controller{clk: clk, state: StateIdle}
}

// OnChange registers a transition listener.
func (c *Controller) OnChange(fn Listener) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listeners = append(c.listeners, fn)
}

// State returns the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Session returns the current session number.
func (c *Controller) Session() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session
}

// Recording reports whether events are currently accepted.
func (c *Controller) Recording() bool {
	return c.State() == StateRecording
}

// Start begins a new recording session. Returns true if a transition
// happened; calling Start while already Recording is an idempotent no-op.
func (c *Controller) Start() bool {
	c.mu.Lock()
	if c.state == StateRecording {
		c.mu.Unlock()
		return false
	}
	from := c.state
	c.state = StateRecording
	c.session++
	c.startedAt = c.clk.Now()
	c.baseMs = nil
	c.lastRelMs = 0
	c.events = 0
	c.renders = 0
	change := Change{From: from, To: StateRecording, Session: c.session}
	listeners := append([]Listener(nil), c.listeners...)
	c.mu.Unlock()

	notify(listeners, change)
	return true
}

// Stop freezes ingestion. Returns the finished session's summary, or nil if
// the controller was not recording.
func (c *Controller) Stop() *Summary {
	c.mu.Lock()
	if c.state != StateRecording {
		c.mu.Unlock()
		return nil
	}
	c.state = StateStopped
	summary := &Summary{
		Session:         c.session,
		Events:          c.events,
		Renders:         c.renders,
		DurationSeconds: c.clk.Since(c.startedAt).Seconds(),
	}
	change := Change{From: StateRecording, To: StateStopped, Session: c.session}
	listeners := append([]Listener(nil), c.listeners...)
	c.mu.Unlock()

	notify(listeners, change)
	return summary
}

// Clear resets to Idle. Valid from Idle or Stopped; a no-op while Recording.
func (c *Controller) Clear() bool {
	c.mu.Lock()
	if c.state == StateRecording {
		c.mu.Unlock()
		return false
	}
	from := c.state
	c.state = StateIdle
	c.events = 0
	c.renders = 0
	change := Change{From: from, To: StateIdle, Session: c.session}
	listeners := append([]Listener(nil), c.listeners...)
	c.mu.Unlock()

	notify(listeners, change)
	return true
}

// Observe counts one accepted event toward the session summary.
func (c *Controller) Observe(isRender bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events++
	if isRender {
		c.renders++
	}
}

// Rebase converts a producer timestamp (the source's own ms clock) into
// milliseconds since recording start. The first accepted timestamp of a
// session anchors the base; results are clamped to stay non-decreasing, so
// out-of-order producer frames tie instead of going backwards.
func (c *Controller) Rebase(producerMs float64) float64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.baseMs == nil {
		base := producerMs
		c.baseMs = &base
	}
	rel := producerMs - *c.baseMs
	if rel < c.lastRelMs {
		rel = c.lastRelMs
	}
	c.lastRelMs = rel
	return rel
}

func notify(listeners []Listener, change Change) {
	for _, fn := range listeners {
		fn(change)
	}
}
