package filter

import (
	"sync"
	"time"

	"github.com/mzorec/renderscope/internal/domain"
)

// DedupeFilter collapses repeated identical events (same component, same
// event type). Render storms from a single component show up as one line
// with a count instead of a wall of duplicates.
type DedupeFilter struct {
	mu      sync.Mutex
	window  time.Duration // Time window for deduplication (0 = consecutive only)
	seen    map[string]*dedupeEntry
	lastKey string
}

type dedupeEntry struct {
	count     int
	firstSeen time.Time
	lastSeen  time.Time
}

// NewDedupeFilter creates a new deduplication filter
// window=0 means only collapse consecutive identical events
// window>0 means collapse identical events within the time window
func NewDedupeFilter(window time.Duration) *DedupeFilter {
	return &DedupeFilter{
		window: window,
		seen:   make(map[string]*dedupeEntry),
	}
}

// DedupeResult holds the result of a dedupe check
type DedupeResult struct {
	ShouldEmit bool      // Whether this event should be emitted
	Count      int       // Number of duplicates (1 = first occurrence)
	FirstSeen  time.Time // First occurrence timestamp
	LastSeen   time.Time // Last occurrence timestamp (same as FirstSeen if count=1)
}

func dedupeKey(ev *domain.Event) string {
	return ev.ComponentID + "\x00" + string(ev.EventType)
}

// Check determines if an event should be emitted or suppressed
func (f *DedupeFilter) Check(ev *domain.Event) DedupeResult {
	f.mu.Lock()
	defer f.mu.Unlock()

	key := dedupeKey(ev)
	now := time.Now()

	if f.window > 0 {
		f.cleanOldEntries(now)
	}

	if existing, ok := f.seen[key]; ok {
		existing.count++
		existing.lastSeen = now

		// In window mode, always suppress duplicates within window
		if f.window > 0 {
			return DedupeResult{
				ShouldEmit: false,
				Count:      existing.count,
				FirstSeen:  existing.firstSeen,
				LastSeen:   existing.lastSeen,
			}
		}

		// In consecutive mode, only suppress if same as last event
		if f.lastKey == key {
			return DedupeResult{
				ShouldEmit: false,
				Count:      existing.count,
				FirstSeen:  existing.firstSeen,
				LastSeen:   existing.lastSeen,
			}
		}
	}

	f.seen[key] = &dedupeEntry{
		count:     1,
		firstSeen: now,
		lastSeen:  now,
	}
	f.lastKey = key

	return DedupeResult{
		ShouldEmit: true,
		Count:      1,
		FirstSeen:  now,
		LastSeen:   now,
	}
}

// PendingDuplicates returns suppressed counts keyed by "componentID eventType",
// for a periodic duplicate summary line.
func (f *DedupeFilter) PendingDuplicates() map[string]int {
	f.mu.Lock()
	defer f.mu.Unlock()

	result := make(map[string]int)
	for key, entry := range f.seen {
		if entry.count > 1 {
			result[key] = entry.count
		}
	}
	return result
}

// Reset clears the deduplication state
func (f *DedupeFilter) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seen = make(map[string]*dedupeEntry)
	f.lastKey = ""
}

// cleanOldEntries removes entries outside the time window
func (f *DedupeFilter) cleanOldEntries(now time.Time) {
	cutoff := now.Add(-f.window)
	for key, entry := range f.seen {
		if entry.lastSeen.Before(cutoff) {
			delete(f.seen, key)
		}
	}
}
