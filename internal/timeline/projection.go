package timeline

import (
	"github.com/mzorec/renderscope/internal/domain"
)

const (
	// padFraction is the visual breathing room added to both ends of the
	// full time range.
	padFraction = 0.05
	// minSpanMs replaces a degenerate (zero-width) time range so the
	// projection never divides by zero.
	minSpanMs = 1.0
	// minWidthPercent keeps zero-duration events visible and clickable.
	minWidthPercent = 0.5
	// DefaultMaxZoom bounds zoom when the config does not say otherwise.
	DefaultMaxZoom = 16.0
)

// Config bounds the interactive controls.
type Config struct {
	MaxZoom float64
}

// Window is the visible slice of the padded time range, all in relative ms.
type Window struct {
	StartMs     float64 `json:"start_ms"`
	EndMs       float64 `json:"end_ms"`
	PaddedMinMs float64 `json:"padded_min_ms"`
	PaddedMaxMs float64 `json:"padded_max_ms"`
}

// Segment is one event projected into the visible window. Left and Width are
// percentages of the window, clipped to [0, 100].
type Segment struct {
	EventID      int64            `json:"event_id"`
	ComponentID  string           `json:"component_id"`
	EventType    domain.EventType `json:"event_type"`
	StartMs      float64          `json:"start_ms"`
	DurationMs   float64          `json:"duration_ms"`
	LeftPercent  float64          `json:"left_percent"`
	WidthPercent float64          `json:"width_percent"`
}

// Swimlane is the per-component-type track of visible segments.
type Swimlane struct {
	TypeName string    `json:"type_name"`
	Segments []Segment `json:"segments"`
}

// Projection is the full flamegraph read model for one view state.
type Projection struct {
	Zoom   float64    `json:"zoom"`
	Pan    float64    `json:"pan"`
	Window Window     `json:"window"`
	Lanes  []Swimlane `json:"lanes,omitempty"`
}

// ClampZoom bounds zoom to [1, MaxZoom].
func (c Config) ClampZoom(zoom float64) float64 {
	maxZoom := c.MaxZoom
	if maxZoom < 1 {
		maxZoom = DefaultMaxZoom
	}
	if zoom < 1 {
		return 1
	}
	if zoom > maxZoom {
		return maxZoom
	}
	return zoom
}

// ClampPan bounds pan so the visible window stays inside the padded range.
// At zoom 1 there is nothing to pan over and the offset is forced to 0.
func ClampPan(pan, zoom float64) float64 {
	maxPan := 1 - 1/zoom
	if maxPan <= 0 {
		return 0
	}
	if pan < 0 {
		return 0
	}
	if pan > maxPan {
		return maxPan
	}
	return pan
}

// Project maps the event log into swimlanes for the window selected by zoom
// and pan. Events are grouped per component type in first-seen order;
// events fully outside the window are dropped.
func Project(events []domain.Event, zoom, pan float64, cfg Config) Projection {
	zoom = cfg.ClampZoom(zoom)
	pan = ClampPan(pan, zoom)

	if len(events) == 0 {
		return Projection{Zoom: zoom, Pan: pan}
	}

	minTime := events[0].RelativeTimestampMs
	maxTime := events[0].EndMs()
	for _, ev := range events[1:] {
		if ev.RelativeTimestampMs < minTime {
			minTime = ev.RelativeTimestampMs
		}
		if end := ev.EndMs(); end > maxTime {
			maxTime = end
		}
	}

	span := maxTime - minTime
	if span <= 0 {
		// single instant (or all events tie): substitute a fixed span so
		// widths stay finite
		span = minSpanMs
	}
	pad := span * padFraction
	paddedMin := minTime - pad
	fullRange := span + 2*pad

	// pan is a fraction of the full range; its clamp to [0, 1-1/zoom]
	// guarantees the window never leaves the padded range
	visibleRange := fullRange / zoom
	visibleStart := paddedMin + pan*fullRange
	visibleEnd := visibleStart + visibleRange

	window := Window{
		StartMs:     visibleStart,
		EndMs:       visibleEnd,
		PaddedMinMs: paddedMin,
		PaddedMaxMs: paddedMin + fullRange,
	}

	laneIndex := make(map[string]int)
	lanes := make([]Swimlane, 0)
	for _, ev := range events {
		start := ev.RelativeTimestampMs
		end := ev.EndMs()
		if end < visibleStart || start > visibleEnd {
			continue
		}

		clippedStart := start
		if clippedStart < visibleStart {
			clippedStart = visibleStart
		}
		clippedEnd := end
		if clippedEnd > visibleEnd {
			clippedEnd = visibleEnd
		}

		left := (clippedStart - visibleStart) / visibleRange * 100
		width := (clippedEnd - clippedStart) / visibleRange * 100
		if width < minWidthPercent {
			width = minWidthPercent
		}
		if left+width > 100 {
			left = 100 - width
		}
		if left < 0 {
			left = 0
		}

		idx, ok := laneIndex[ev.ComponentType]
		if !ok {
			idx = len(lanes)
			laneIndex[ev.ComponentType] = idx
			lanes = append(lanes, Swimlane{TypeName: ev.ComponentType})
		}
		lanes[idx].Segments = append(lanes[idx].Segments, Segment{
			EventID:      ev.EventID,
			ComponentID:  ev.ComponentID,
			EventType:    ev.EventType,
			StartMs:      start,
			DurationMs:   ev.Duration(),
			LeftPercent:  left,
			WidthPercent: width,
		})
	}

	return Projection{Zoom: zoom, Pan: pan, Window: window, Lanes: lanes}
}
