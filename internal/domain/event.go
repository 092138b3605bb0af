package domain

// EventType identifies which lifecycle hook or render phase produced an event.
type EventType string

const (
	EventInitialized   EventType = "Initialized"
	EventParametersSet EventType = "ParametersSet"
	EventRender        EventType = "Render"
	EventAfterRender   EventType = "AfterRender"
	EventStateChanged  EventType = "StateChanged"
	EventDisposed      EventType = "Disposed"
)

// ParseEventType normalizes a string into an EventType.
// Unknown values pass through unchanged so foreign producers stay visible.
func ParseEventType(s string) EventType {
	switch s {
	case "initialized", "Initialized", "init":
		return EventInitialized
	case "parametersset", "ParametersSet", "parameters_set":
		return EventParametersSet
	case "render", "Render":
		return EventRender
	case "afterrender", "AfterRender", "after_render":
		return EventAfterRender
	case "statechanged", "StateChanged", "state_changed":
		return EventStateChanged
	case "disposed", "Disposed":
		return EventDisposed
	}
	return EventType(s)
}

// TriggerReason describes what caused a render to happen.
type TriggerReason string

const (
	TriggerFirstRender     TriggerReason = "FirstRender"
	TriggerParameterChange TriggerReason = "ParameterChanged"
	TriggerInvalidation    TriggerReason = "ExplicitInvalidation"
	TriggerParentRerender  TriggerReason = "ParentRerendered"
	TriggerEventCallback   TriggerReason = "EventCallback"
	TriggerCascadingValue  TriggerReason = "CascadingValueChanged"
	TriggerExternal        TriggerReason = "External"
	TriggerUnknown         TriggerReason = "Unknown"
)

// Event is a single lifecycle/render observation for one component instance.
//
// EventID is assigned by the engine at ingest and is the canonical ordering;
// it doubles as the cursor for incremental reads. RelativeTimestampMs is
// milliseconds since recording start and is advisory only (it may tie).
type Event struct {
	EventID       int64     `json:"event_id"`
	ComponentID   string    `json:"component_id"`
	ComponentType string    `json:"component_type"`
	EventType     EventType `json:"event_type"`
	IsAsync       bool      `json:"is_async,omitempty"`
	WasSkipped    bool      `json:"was_skipped,omitempty"`

	// TimestampMs is the producer-side timestamp; the session controller
	// rebases it into RelativeTimestampMs on append.
	TimestampMs         float64 `json:"timestamp_ms"`
	RelativeTimestampMs float64 `json:"relative_timestamp_ms"`

	// DurationMs is nil for point events that do not measure a span.
	DurationMs *float64 `json:"duration_ms,omitempty"`

	Trigger       TriggerReason `json:"trigger,omitempty"`
	TriggerDetail string        `json:"trigger_detail,omitempty"`
}

// Duration returns the measured span in ms, or 0 for point events.
func (e *Event) Duration() float64 {
	if e.DurationMs == nil {
		return 0
	}
	return *e.DurationMs
}

// EndMs returns the end of the interval the event occupies on the timeline.
func (e *Event) EndMs() float64 {
	return e.RelativeTimestampMs + e.Duration()
}
