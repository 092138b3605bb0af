package eventlog

import (
	"sort"
	"sync"
	"sync/atomic"

	"github.com/mzorec/renderscope/internal/domain"
)

// Sequence hands out the monotonically increasing event ids shared by the
// session log and the rolling live buffer. Ids are never reused, so a cursor
// stays valid across session clears and buffer eviction.
type Sequence struct {
	last int64
}

// Next returns the next event id.
func (s *Sequence) Next() int64 {
	return atomic.AddInt64(&s.last, 1)
}

// Last returns the most recently issued id, 0 if none.
func (s *Sequence) Last() int64 {
	return atomic.LoadInt64(&s.last)
}

// SessionLog is the exact, append-only log of one recording session. It is
// never evicted; Clear wipes it for the next session.
type SessionLog struct {
	mu     sync.Mutex
	events []domain.Event
}

// NewSessionLog creates an empty session log.
func NewSessionLog() *SessionLog {
	return &SessionLog{}
}

// Append adds an event. The caller is responsible for gating on recording
// state; the log itself accepts unconditionally.
func (l *SessionLog) Append(ev domain.Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, ev)
}

// All returns a copy of every event in ascending event-id order.
func (l *SessionLog) All() []domain.Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]domain.Event(nil), l.events...)
}

// SliceSince returns all events with EventID > cursor, ascending. Feeding the
// last returned id back as the next cursor never skips or repeats an event.
func (l *SessionLog) SliceSince(cursor int64) []domain.Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	return sliceSince(l.events, cursor)
}

// Len returns the number of stored events.
func (l *SessionLog) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.events)
}

// Clear removes all events.
func (l *SessionLog) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = nil
}

// RollingLog is the passive live buffer: capacity-bounded, oldest events
// evicted first. Consumers polling with a cursor that points into an evicted
// range simply see a gap; that lossy degradation is accepted for the passive
// buffer only.
type RollingLog struct {
	mu       sync.Mutex
	capacity int
	events   []domain.Event
}

// NewRollingLog creates a buffer holding at most capacity events. A
// non-positive capacity falls back to 1.
func NewRollingLog(capacity int) *RollingLog {
	if capacity < 1 {
		capacity = 1
	}
	return &RollingLog{capacity: capacity}
}

// Append adds an event, evicting the oldest when full.
func (l *RollingLog) Append(ev domain.Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, ev)
	if len(l.events) > l.capacity {
		overflow := len(l.events) - l.capacity
		l.events = append([]domain.Event(nil), l.events[overflow:]...)
	}
}

// All returns a copy of the buffered events, ascending.
func (l *RollingLog) All() []domain.Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]domain.Event(nil), l.events...)
}

// SliceSince returns buffered events with EventID > cursor, ascending.
func (l *RollingLog) SliceSince(cursor int64) []domain.Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	return sliceSince(l.events, cursor)
}

// Len returns the number of buffered events.
func (l *RollingLog) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.events)
}

// Clear empties the buffer.
func (l *RollingLog) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = nil
}

// sliceSince binary-searches the ascending-by-id events slice.
func sliceSince(events []domain.Event, cursor int64) []domain.Event {
	idx := sort.Search(len(events), func(i int) bool {
		return events[i].EventID > cursor
	})
	if idx == len(events) {
		return nil
	}
	return append([]domain.Event(nil), events[idx:]...)
}
