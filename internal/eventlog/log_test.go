package eventlog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mzorec/renderscope/internal/domain"
)

func mkEvent(seq *Sequence) domain.Event {
	return domain.Event{
		EventID:       seq.Next(),
		ComponentID:   "c1",
		ComponentType: "Widget",
		EventType:     domain.EventRender,
	}
}

func TestSequenceMonotonic(t *testing.T) {
	seq := &Sequence{}
	prev := seq.Next()
	for i := 0; i < 100; i++ {
		next := seq.Next()
		require.Greater(t, next, prev)
		prev = next
	}
	assert.Equal(t, prev, seq.Last())
}

func TestSessionLogCursorCompleteness(t *testing.T) {
	seq := &Sequence{}
	log := NewSessionLog()

	var cursor int64
	var collected []int64
	// interleave appends and incremental reads; nothing may be skipped or
	// returned twice
	for batch := 0; batch < 5; batch++ {
		for i := 0; i < 7; i++ {
			log.Append(mkEvent(seq))
		}
		for _, ev := range log.SliceSince(cursor) {
			collected = append(collected, ev.EventID)
			cursor = ev.EventID
		}
	}

	require.Len(t, collected, 35)
	for i, id := range collected {
		assert.Equal(t, int64(i+1), id)
	}
	assert.Empty(t, log.SliceSince(cursor))
}

func TestSessionLogClear(t *testing.T) {
	seq := &Sequence{}
	log := NewSessionLog()
	log.Append(mkEvent(seq))
	log.Clear()
	assert.Zero(t, log.Len())
	// the sequence keeps climbing across clears
	assert.Equal(t, int64(2), seq.Next())
}

func TestRollingLogEvictsOldestFirst(t *testing.T) {
	seq := &Sequence{}
	log := NewRollingLog(3)
	for i := 0; i < 10; i++ {
		log.Append(mkEvent(seq))
	}

	all := log.All()
	require.Len(t, all, 3)
	assert.Equal(t, int64(8), all[0].EventID)
	assert.Equal(t, int64(10), all[2].EventID)
}

func TestRollingLogCursorSurvivesEviction(t *testing.T) {
	seq := &Sequence{}
	log := NewRollingLog(4)
	for i := 0; i < 4; i++ {
		log.Append(mkEvent(seq))
	}

	first := log.SliceSince(0)
	require.Len(t, first, 4)
	cursor := first[len(first)-1].EventID

	// evict everything the cursor has seen and more
	for i := 0; i < 6; i++ {
		log.Append(mkEvent(seq))
	}

	rest := log.SliceSince(cursor)
	require.Len(t, rest, 4)
	// a gap is allowed (lossy buffer), duplicates are not
	assert.Greater(t, rest[0].EventID, cursor)
	for i := 1; i < len(rest); i++ {
		assert.Greater(t, rest[i].EventID, rest[i-1].EventID)
	}
}

func TestRollingLogMinimumCapacity(t *testing.T) {
	log := NewRollingLog(0)
	seq := &Sequence{}
	log.Append(mkEvent(seq))
	log.Append(mkEvent(seq))
	assert.Equal(t, 1, log.Len())
}

func TestSliceSinceMidStream(t *testing.T) {
	seq := &Sequence{}
	log := NewSessionLog()
	for i := 0; i < 10; i++ {
		log.Append(mkEvent(seq))
	}

	events := log.SliceSince(7)
	require.Len(t, events, 3)
	assert.Equal(t, int64(8), events[0].EventID)
}
