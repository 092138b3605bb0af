package rank

import (
	"sort"
	"sync"

	"github.com/samber/lo"

	"github.com/mzorec/renderscope/internal/domain"
)

// group carries one type's running aggregates plus the count of duration
// samples, which the output entry does not expose but min/max need.
type group struct {
	entry   domain.RankedEntry
	samples int
}

// observe folds one event into the group. Only render events count; the
// average is derived, never divided by a zero count.
func (g *group) observe(ev domain.Event) {
	if ev.EventType != domain.EventRender {
		return
	}
	g.entry.RenderCount++
	if ev.DurationMs != nil {
		d := *ev.DurationMs
		g.entry.TotalDurationMs += d
		g.samples++
		if g.samples == 1 || d < g.entry.MinDurationMs {
			g.entry.MinDurationMs = d
		}
		if g.samples == 1 || d > g.entry.MaxDurationMs {
			g.entry.MaxDurationMs = d
		}
	}
	g.entry.AverageDurationMs = g.entry.TotalDurationMs / float64(g.entry.RenderCount)
}

// Compute fully recomputes the ranked view from an event slice. Groups are
// keyed by component type name (instances of the same type merge); only
// render events carry statistical weight, but any observed type gets an
// entry. Ordered by total duration descending, ties by type name ascending.
func Compute(events []domain.Event) []domain.RankedEntry {
	byType := lo.GroupBy(events, func(ev domain.Event) string {
		return ev.ComponentType
	})

	entries := make([]domain.RankedEntry, 0, len(byType))
	for typeName, evs := range byType {
		g := group{entry: domain.RankedEntry{ComponentType: typeName}}
		for _, ev := range evs {
			g.observe(ev)
		}
		entries = append(entries, g.entry)
	}
	sortEntries(entries)
	return entries
}

// Accumulator maintains the same ranked view incrementally, one event at a
// time. Ranked() must be byte-for-byte equivalent to Compute over the same
// event sequence.
type Accumulator struct {
	mu     sync.Mutex
	groups map[string]*group
}

// NewAccumulator creates an empty accumulator.
func NewAccumulator() *Accumulator {
	return &Accumulator{groups: make(map[string]*group)}
}

// Observe folds one event into the running aggregates.
func (a *Accumulator) Observe(ev domain.Event) {
	a.mu.Lock()
	defer a.mu.Unlock()

	g, ok := a.groups[ev.ComponentType]
	if !ok {
		g = &group{entry: domain.RankedEntry{ComponentType: ev.ComponentType}}
		a.groups[ev.ComponentType] = g
	}
	g.observe(ev)
}

// Ranked returns the current ranked view.
func (a *Accumulator) Ranked() []domain.RankedEntry {
	a.mu.Lock()
	defer a.mu.Unlock()

	entries := make([]domain.RankedEntry, 0, len(a.groups))
	for _, g := range a.groups {
		entries = append(entries, g.entry)
	}
	sortEntries(entries)
	return entries
}

// Reset drops all accumulated state (new recording session).
func (a *Accumulator) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.groups = make(map[string]*group)
}

func sortEntries(entries []domain.RankedEntry) {
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].TotalDurationMs != entries[j].TotalDurationMs {
			return entries[i].TotalDurationMs > entries[j].TotalDurationMs
		}
		return entries[i].ComponentType < entries[j].ComponentType
	})
}
