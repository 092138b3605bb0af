package engine

import (
	"context"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mzorec/renderscope/internal/domain"
	"github.com/mzorec/renderscope/internal/eventlog"
	"github.com/mzorec/renderscope/internal/rank"
	"github.com/mzorec/renderscope/internal/registry"
	"github.com/mzorec/renderscope/internal/session"
	"github.com/mzorec/renderscope/internal/timeline"
	"github.com/mzorec/renderscope/internal/tree"
)

// DefaultPollInterval paces the incremental event fetch while recording.
const DefaultPollInterval = 500 * time.Millisecond

// DefaultRollingCapacity bounds the passive live buffer.
const DefaultRollingCapacity = 2000

// Fetcher is the source-side incremental event query the poll loop uses.
type Fetcher interface {
	PollEvents(ctx context.Context, cursor int64) ([]domain.Event, int64, error)
}

// Options wires an Engine's collaborators. Zero values get sensible
// defaults; Registry and Fetcher may be nil for offline use.
type Options struct {
	Clock           clock.Clock
	Logger          *zap.SugaredLogger
	Registry        registry.Client
	Fetcher         Fetcher
	PollInterval    time.Duration
	RollingCapacity int
	Timeline        timeline.Config
}

// Engine is the profiler core: it owns the component tree, the event logs,
// the recording session, and the derived read models. External consumers
// only ever receive copies; no accessor hands out live mutable state.
type Engine struct {
	id   string
	clk  clock.Clock
	log  *zap.SugaredLogger
	tcfg timeline.Config

	resolver *tree.Resolver

	// ingestMu serializes id assignment with the log appends so both logs
	// stay ascending by event id, which cursor reads depend on.
	ingestMu sync.Mutex
	seq      eventlog.Sequence
	sessions *eventlog.SessionLog
	live     *eventlog.RollingLog
	ctrl     *session.Controller
	acc      *rank.Accumulator
	reg      registry.Client
	fetcher  Fetcher

	pollInterval time.Duration

	mu            sync.Mutex
	zoom          float64
	pan           float64
	selected      int64
	generation    int
	poller        *poller
	treeListeners []func()
}

// New creates an idle engine.
func New(opts Options) *Engine {
	clk := opts.Clock
	if clk == nil {
		clk = clock.New()
	}
	capacity := opts.RollingCapacity
	if capacity <= 0 {
		capacity = DefaultRollingCapacity
	}
	interval := opts.PollInterval
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	e := &Engine{
		id:           uuid.NewString(),
		clk:          clk,
		log:          opts.Logger,
		tcfg:         opts.Timeline,
		resolver:     tree.NewResolver(tree.WithLogger(opts.Logger)),
		sessions:     eventlog.NewSessionLog(),
		live:         eventlog.NewRollingLog(capacity),
		ctrl:         session.NewController(clk),
		acc:          rank.NewAccumulator(),
		reg:          opts.Registry,
		fetcher:      opts.Fetcher,
		pollInterval: interval,
		zoom:         1,
	}
	return e
}

// ID is the engine's trace id, stamped on machine-readable output.
func (e *Engine) ID() string { return e.id }

// State returns the recording state.
func (e *Engine) State() session.State { return e.ctrl.State() }

// Session returns the current session number.
func (e *Engine) Session() int { return e.ctrl.Session() }

// OnTreeChanged registers a listener fired after any tree mutation.
func (e *Engine) OnTreeChanged(fn func()) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.treeListeners = append(e.treeListeners, fn)
}

// OnSessionStateChanged registers a recording-state listener.
func (e *Engine) OnSessionStateChanged(fn session.Listener) {
	e.ctrl.OnChange(fn)
}

// Apply dispatches one signal frame from the structural source.
func (e *Engine) Apply(sig domain.Signal) {
	switch {
	case sig.Edge != nil:
		e.ApplyEdge(*sig.Edge)
	case sig.Event != nil:
		e.Ingest(*sig.Event)
	case sig.Dispose != nil:
		e.ApplyDispose(*sig.Dispose)
	}
}

// ApplyEdge feeds a candidate edge into the resolver.
func (e *Engine) ApplyEdge(edge domain.EdgeSignal) {
	e.resolver.Upsert(edge.ChildID, edge.ParentID, edge.TypeName)
	e.notifyTree()
}

// ApplyDispose removes a component; its children become roots.
func (e *Engine) ApplyDispose(d domain.DisposeSignal) {
	e.resolver.Dispose(d.ComponentID)
	e.notifyTree()
}

// Ingest accepts one event. The rolling live buffer always takes it; the
// session log only while recording. Returns the assigned event id.
func (e *Engine) Ingest(ev domain.Event) int64 {
	e.mu.Lock()
	gen := e.generation
	e.mu.Unlock()
	return e.ingest(ev, gen, false)
}

// ingest assigns the id and fans the event out. gen gates the session-log
// append for polled batches: a batch carries the generation of the session
// it was fetched for, so a fetch in flight when Stop lands may still
// deliver, while batches from a previous or cleared session are dropped.
// Direct (pushed) events only enter the session log while Recording.
func (e *Engine) ingest(ev domain.Event, gen int, fromPoll bool) int64 {
	isRender := ev.EventType == domain.EventRender
	if ev.ComponentID != "" && isRender {
		e.resolver.RecordRender(ev.ComponentID)
	}

	e.ingestMu.Lock()
	defer e.ingestMu.Unlock()

	ev.EventID = e.seq.Next()

	e.mu.Lock()
	currentGen := e.generation
	e.mu.Unlock()

	accepted := gen == currentGen && gen > 0 &&
		(e.ctrl.Recording() || (fromPoll && e.ctrl.State() == session.StateStopped))
	if accepted {
		ev.RelativeTimestampMs = e.ctrl.Rebase(ev.TimestampMs)
		e.sessions.Append(ev)
		e.acc.Observe(ev)
		e.ctrl.Observe(isRender)
	} else {
		ev.RelativeTimestampMs = ev.TimestampMs
	}

	e.live.Append(ev)
	return ev.EventID
}

// StartRecording begins a session: wipes the previous session log and
// aggregates, resets the view, and starts the poll loop. Idempotent while
// already recording.
func (e *Engine) StartRecording(ctx context.Context) bool {
	if !e.ctrl.Start() {
		return false
	}
	e.sessions.Clear()
	e.acc.Reset()

	e.mu.Lock()
	e.generation++
	gen := e.generation
	e.zoom = 1
	e.pan = 0
	e.selected = 0
	e.mu.Unlock()

	if e.reg != nil {
		if err := e.SyncRegistry(ctx); err != nil {
			e.warnf("initial registry sync failed: %v", err)
		}
	}

	if e.fetcher != nil {
		p := newPoller(
			e.clk,
			e.pollInterval,
			registry.DefaultTimeout,
			e.fetcher.PollEvents,
			func(events []domain.Event) {
				for _, ev := range events {
					e.ingest(ev, gen, true)
				}
			},
			func(err error) { e.warnf("poll failed, retrying next interval: %v", err) },
		)
		e.mu.Lock()
		e.poller = p
		e.mu.Unlock()
		go p.run()
	}
	return true
}

// StopRecording freezes the session and cancels the poll loop immediately.
// Returns the session summary, or nil if nothing was recording.
func (e *Engine) StopRecording() *session.Summary {
	summary := e.ctrl.Stop()
	if summary == nil {
		return nil
	}
	e.stopPoller()
	return summary
}

// ClearRecording wipes the session log and returns to Idle. A no-op while
// recording.
func (e *Engine) ClearRecording() bool {
	if !e.ctrl.Clear() {
		return false
	}
	e.stopPoller()
	e.sessions.Clear()
	e.acc.Reset()

	e.mu.Lock()
	e.generation++ // orphan any still-in-flight poll delivery
	e.zoom = 1
	e.pan = 0
	e.selected = 0
	e.mu.Unlock()
	return true
}

func (e *Engine) stopPoller() {
	e.mu.Lock()
	p := e.poller
	e.poller = nil
	e.mu.Unlock()
	if p != nil {
		p.stop()
	}
}

// SyncRegistry pulls the authoritative component list and confirms
// identities. Transport errors surface to the caller and leave the tree as
// it was.
func (e *Engine) SyncRegistry(ctx context.Context) error {
	infos, err := e.reg.GetAllComponents(ctx)
	if err != nil {
		return err
	}
	for _, info := range infos {
		e.resolver.Upsert(info.ID, info.ParentID, info.TypeName)
		e.resolver.ResolveIdentity(info.ID, info.TypeName, info.FullTypeName)
	}
	e.notifyTree()
	return nil
}

// TreeSnapshot returns the current forest as immutable copies.
func (e *Engine) TreeSnapshot() []domain.ComponentSnapshot {
	return e.resolver.Snapshot()
}

// FindComponents searches the tree by type-name substring.
func (e *Engine) FindComponents(substring string) []domain.ComponentNode {
	return e.resolver.FindByTypeName(substring)
}

// EventsSince incrementally reads the session log.
func (e *Engine) EventsSince(cursor int64) []domain.Event {
	return e.sessions.SliceSince(cursor)
}

// SessionEvents returns the whole session log.
func (e *Engine) SessionEvents() []domain.Event {
	return e.sessions.All()
}

// LiveEventsSince incrementally reads the passive rolling buffer. Gaps are
// possible once eviction kicks in; duplicates are not.
func (e *Engine) LiveEventsSince(cursor int64) []domain.Event {
	return e.live.SliceSince(cursor)
}

// Ranked returns the per-type aggregate view for the current session.
func (e *Engine) Ranked() []domain.RankedEntry {
	return e.acc.Ranked()
}

// SetView clamps and stores the interactive zoom/pan state.
func (e *Engine) SetView(zoom, pan float64) (float64, float64) {
	zoom = e.tcfg.ClampZoom(zoom)
	pan = timeline.ClampPan(pan, zoom)
	e.mu.Lock()
	e.zoom = zoom
	e.pan = pan
	e.mu.Unlock()
	return zoom, pan
}

// View returns the stored zoom/pan.
func (e *Engine) View() (zoom, pan float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.zoom, e.pan
}

// Flamegraph projects the session log into swimlanes for the given view and
// remembers the clamped view state.
func (e *Engine) Flamegraph(zoom, pan float64) timeline.Projection {
	zoom, pan = e.SetView(zoom, pan)
	return timeline.Project(e.sessions.All(), zoom, pan, e.tcfg)
}

// SelectEvent marks one session event for detail display. Returns the event
// if the id exists. Selection never affects projection.
func (e *Engine) SelectEvent(id int64) (domain.Event, bool) {
	for _, ev := range e.sessions.All() {
		if ev.EventID == id {
			e.mu.Lock()
			e.selected = id
			e.mu.Unlock()
			return ev, true
		}
	}
	return domain.Event{}, false
}

// SelectedEvent returns the currently selected event, if any.
func (e *Engine) SelectedEvent() (domain.Event, bool) {
	e.mu.Lock()
	id := e.selected
	e.mu.Unlock()
	if id == 0 {
		return domain.Event{}, false
	}
	for _, ev := range e.sessions.All() {
		if ev.EventID == id {
			return ev, true
		}
	}
	return domain.Event{}, false
}

func (e *Engine) notifyTree() {
	e.mu.Lock()
	listeners := append([]func(){}, e.treeListeners...)
	e.mu.Unlock()
	for _, fn := range listeners {
		fn()
	}
}

func (e *Engine) warnf(format string, args ...interface{}) {
	if e.log != nil {
		e.log.Warnf(format, args...)
	}
}
