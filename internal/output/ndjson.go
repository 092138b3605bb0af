package output

import (
	"encoding/json"
	"io"
	"sync"

	"github.com/mzorec/renderscope/internal/domain"
	"github.com/mzorec/renderscope/internal/session"
	"github.com/mzorec/renderscope/internal/timeline"
)

// SchemaVersion is bumped whenever an NDJSON record shape changes
// incompatibly. Consumers should check it before parsing further fields.
const SchemaVersion = 1

// NDJSONWriter emits one JSON record per line. Safe for concurrent use.
type NDJSONWriter struct {
	mu  sync.Mutex
	enc *json.Encoder
}

// NewNDJSONWriter creates a writer targeting w.
func NewNDJSONWriter(w io.Writer) *NDJSONWriter {
	return &NDJSONWriter{enc: json.NewEncoder(w)}
}

func (w *NDJSONWriter) write(v interface{}) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.enc.Encode(v)
}

// Ready announces a live stream: trace id for correlation, the endpoint the
// watcher attached to, and the session counter at attach time.
type Ready struct {
	Type          string `json:"type"`
	SchemaVersion int    `json:"schemaVersion"`
	Timestamp     string `json:"timestamp"`
	TraceID       string `json:"trace_id"`
	Endpoint      string `json:"endpoint"`
	Session       int    `json:"session"`
}

// WriteReady emits the stream header record.
func (w *NDJSONWriter) WriteReady(timestamp, traceID, endpoint string, sessionNum int) error {
	return w.write(Ready{
		Type:          "ready",
		SchemaVersion: SchemaVersion,
		Timestamp:     timestamp,
		TraceID:       traceID,
		Endpoint:      endpoint,
		Session:       sessionNum,
	})
}

// EventRecord wraps a single lifecycle event.
type EventRecord struct {
	Type          string       `json:"type"`
	SchemaVersion int          `json:"schemaVersion"`
	Session       int          `json:"session"`
	Event         domain.Event `json:"event"`
	Repeated      int          `json:"repeated,omitempty"`
}

// WriteEvent emits one event record. repeated > 1 marks a collapsed run of
// identical events.
func (w *NDJSONWriter) WriteEvent(sessionNum int, ev domain.Event, repeated int) error {
	rec := EventRecord{
		Type:          "event",
		SchemaVersion: SchemaVersion,
		Session:       sessionNum,
		Event:         ev,
	}
	if repeated > 1 {
		rec.Repeated = repeated
	}
	return w.write(rec)
}

// TreeRecord is a full component-forest snapshot.
type TreeRecord struct {
	Type          string                     `json:"type"`
	SchemaVersion int                        `json:"schemaVersion"`
	Roots         []domain.ComponentSnapshot `json:"roots"`
	Count         int                        `json:"count"`
}

// WriteTree emits a snapshot of the component forest.
func (w *NDJSONWriter) WriteTree(roots []domain.ComponentSnapshot) error {
	count := 0
	var walk func(snap domain.ComponentSnapshot)
	walk = func(snap domain.ComponentSnapshot) {
		count++
		for _, child := range snap.Children {
			walk(child)
		}
	}
	for _, root := range roots {
		walk(root)
	}
	return w.write(TreeRecord{
		Type:          "tree",
		SchemaVersion: SchemaVersion,
		Roots:         roots,
		Count:         count,
	})
}

// RankedRecord is the per-type aggregate table.
type RankedRecord struct {
	Type          string               `json:"type"`
	SchemaVersion int                  `json:"schemaVersion"`
	Session       int                  `json:"session"`
	Entries       []domain.RankedEntry `json:"entries"`
}

// WriteRanked emits the ranked aggregate view.
func (w *NDJSONWriter) WriteRanked(sessionNum int, entries []domain.RankedEntry) error {
	return w.write(RankedRecord{
		Type:          "ranked",
		SchemaVersion: SchemaVersion,
		Session:       sessionNum,
		Entries:       entries,
	})
}

// FlamegraphRecord is one projected timeline view.
type FlamegraphRecord struct {
	Type          string              `json:"type"`
	SchemaVersion int                 `json:"schemaVersion"`
	Session       int                 `json:"session"`
	Projection    timeline.Projection `json:"projection"`
}

// WriteFlamegraph emits a swimlane projection of the session timeline.
func (w *NDJSONWriter) WriteFlamegraph(sessionNum int, p timeline.Projection) error {
	return w.write(FlamegraphRecord{
		Type:          "flamegraph",
		SchemaVersion: SchemaVersion,
		Session:       sessionNum,
		Projection:    p,
	})
}

// SessionStart marks a recording session beginning.
type SessionStart struct {
	Type          string `json:"type"`
	SchemaVersion int    `json:"schemaVersion"`
	Timestamp     string `json:"timestamp"`
	Session       int    `json:"session"`
}

// WriteSessionStart emits a session boundary record.
func (w *NDJSONWriter) WriteSessionStart(timestamp string, sessionNum int) error {
	return w.write(SessionStart{
		Type:          "session_start",
		SchemaVersion: SchemaVersion,
		Timestamp:     timestamp,
		Session:       sessionNum,
	})
}

// SessionEnd closes a recording session with its summary counters.
type SessionEnd struct {
	Type            string  `json:"type"`
	SchemaVersion   int     `json:"schemaVersion"`
	Timestamp       string  `json:"timestamp"`
	Session         int     `json:"session"`
	Events          int     `json:"events"`
	Renders         int     `json:"renders"`
	DurationSeconds float64 `json:"duration_seconds"`
}

// WriteSessionEnd emits the closing record with the session summary.
func (w *NDJSONWriter) WriteSessionEnd(timestamp string, s session.Summary) error {
	return w.write(SessionEnd{
		Type:            "session_end",
		SchemaVersion:   SchemaVersion,
		Timestamp:       timestamp,
		Session:         s.Session,
		Events:          s.Events,
		Renders:         s.Renders,
		DurationSeconds: s.DurationSeconds,
	})
}

// FoundRecord lists components matched by a type-name search.
type FoundRecord struct {
	Type          string                 `json:"type"`
	SchemaVersion int                    `json:"schemaVersion"`
	Query         string                 `json:"query"`
	Components    []domain.ComponentNode `json:"components"`
}

// WriteFound emits the result of a component search.
func (w *NDJSONWriter) WriteFound(query string, components []domain.ComponentNode) error {
	return w.write(FoundRecord{
		Type:          "found",
		SchemaVersion: SchemaVersion,
		Query:         query,
		Components:    components,
	})
}

// ErrorRecord is a machine-readable failure report.
type ErrorRecord struct {
	Type          string `json:"type"`
	SchemaVersion int    `json:"schemaVersion"`
	Code          string `json:"code"`
	Message       string `json:"message"`
	Hint          string `json:"hint,omitempty"`
}

// WriteError emits an error record.
func (w *NDJSONWriter) WriteError(code, message string, hint ...string) error {
	rec := ErrorRecord{
		Type:          "error",
		SchemaVersion: SchemaVersion,
		Code:          code,
		Message:       message,
	}
	if len(hint) > 0 {
		rec.Hint = hint[0]
	}
	return w.write(rec)
}

// WarningRecord is a non-fatal notice (poll failures, dropped batches).
type WarningRecord struct {
	Type          string `json:"type"`
	SchemaVersion int    `json:"schemaVersion"`
	Message       string `json:"message"`
}

// WriteWarning emits a warning record.
func (w *NDJSONWriter) WriteWarning(message string) error {
	return w.write(WarningRecord{
		Type:          "warning",
		SchemaVersion: SchemaVersion,
		Message:       message,
	})
}
