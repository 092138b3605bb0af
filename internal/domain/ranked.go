package domain

// RankedEntry is the per-component-type aggregate shown in the ranked view.
// Entries are derived from the event log and never hand-mutated.
type RankedEntry struct {
	ComponentType     string  `json:"component_type"`
	RenderCount       int     `json:"render_count"`
	TotalDurationMs   float64 `json:"total_duration_ms"`
	AverageDurationMs float64 `json:"average_duration_ms"`
	MinDurationMs     float64 `json:"min_duration_ms"`
	MaxDurationMs     float64 `json:"max_duration_ms"`
}
