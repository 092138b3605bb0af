package rank

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mzorec/renderscope/internal/domain"
)

func ptr(v float64) *float64 { return &v }

func renderEvent(id int64, typeName string, ts float64, dur *float64) domain.Event {
	return domain.Event{
		EventID:             id,
		ComponentID:         "i-" + typeName,
		ComponentType:       typeName,
		EventType:           domain.EventRender,
		RelativeTimestampMs: ts,
		DurationMs:          dur,
	}
}

func TestComputeScenarioFoo(t *testing.T) {
	events := []domain.Event{
		renderEvent(1, "Foo", 0, ptr(5)),
		renderEvent(2, "Foo", 10, ptr(15)),
	}

	ranked := Compute(events)
	require.Len(t, ranked, 1)
	assert.Equal(t, "Foo", ranked[0].ComponentType)
	assert.Equal(t, 2, ranked[0].RenderCount)
	assert.Equal(t, 20.0, ranked[0].TotalDurationMs)
	assert.Equal(t, 10.0, ranked[0].AverageDurationMs)
	assert.Equal(t, 5.0, ranked[0].MinDurationMs)
	assert.Equal(t, 15.0, ranked[0].MaxDurationMs)
}

func TestComputeEmpty(t *testing.T) {
	assert.Empty(t, Compute(nil))
}

func TestZeroRenderCountGroupHasZeroAverage(t *testing.T) {
	events := []domain.Event{
		{EventID: 1, ComponentType: "Quiet", EventType: domain.EventInitialized},
		{EventID: 2, ComponentType: "Quiet", EventType: domain.EventStateChanged},
	}

	ranked := Compute(events)
	require.Len(t, ranked, 1)
	assert.Zero(t, ranked[0].RenderCount)
	assert.Zero(t, ranked[0].AverageDurationMs)
	assert.False(t, math.IsNaN(ranked[0].AverageDurationMs))
}

func TestOrderingTotalDescThenNameAsc(t *testing.T) {
	events := []domain.Event{
		renderEvent(1, "Slow", 0, ptr(30)),
		renderEvent(2, "Beta", 0, ptr(10)),
		renderEvent(3, "Alpha", 0, ptr(10)),
	}

	ranked := Compute(events)
	require.Len(t, ranked, 3)
	assert.Equal(t, "Slow", ranked[0].ComponentType)
	assert.Equal(t, "Alpha", ranked[1].ComponentType)
	assert.Equal(t, "Beta", ranked[2].ComponentType)
}

func TestNilDurationRendersCountButAddNothing(t *testing.T) {
	events := []domain.Event{
		renderEvent(1, "Foo", 0, nil),
		renderEvent(2, "Foo", 5, ptr(8)),
	}

	ranked := Compute(events)
	require.Len(t, ranked, 1)
	assert.Equal(t, 2, ranked[0].RenderCount)
	assert.Equal(t, 8.0, ranked[0].TotalDurationMs)
	assert.Equal(t, 4.0, ranked[0].AverageDurationMs)
	// min/max span only the events that measured a duration
	assert.Equal(t, 8.0, ranked[0].MinDurationMs)
	assert.Equal(t, 8.0, ranked[0].MaxDurationMs)
}

// TestIncrementalEqualsFullRecompute drives the accumulator and the full
// recompute with the same pseudo-random event mix and requires identical
// output at every step.
func TestIncrementalEqualsFullRecompute(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	types := []string{"Grid", "Row", "Cell", "NavMenu", "Chart"}
	kinds := []domain.EventType{
		domain.EventRender,
		domain.EventInitialized,
		domain.EventParametersSet,
		domain.EventAfterRender,
		domain.EventStateChanged,
	}

	acc := NewAccumulator()
	var seen []domain.Event
	for i := 0; i < 500; i++ {
		ev := domain.Event{
			EventID:       int64(i + 1),
			ComponentType: types[rng.Intn(len(types))],
			EventType:     kinds[rng.Intn(len(kinds))],
		}
		if rng.Intn(4) != 0 {
			ev.DurationMs = ptr(float64(rng.Intn(5000)) / 100)
		}
		seen = append(seen, ev)
		acc.Observe(ev)

		if i%50 == 0 || i == 499 {
			assert.Equal(t, Compute(seen), acc.Ranked(), "diverged after %d events", i+1)
		}
	}
}

func TestAccumulatorReset(t *testing.T) {
	acc := NewAccumulator()
	acc.Observe(renderEvent(1, "Foo", 0, ptr(5)))
	acc.Reset()
	assert.Empty(t, acc.Ranked())
}
