package transport

import (
	"encoding/json"

	"github.com/mzorec/renderscope/internal/domain"
)

// Frame is the NDJSON envelope exchanged with the instrumented app. The
// Type field selects which of the optional payloads is present.
type Frame struct {
	Type string `json:"type"`

	// signal payloads (app -> rscope)
	ChildID     string        `json:"child_id,omitempty"`
	ParentID    string        `json:"parent_id,omitempty"`
	TypeName    string        `json:"type_name,omitempty"`
	ComponentID string        `json:"component_id,omitempty"`
	Event       *domain.Event `json:"event,omitempty"`

	// request/response correlation (rscope <-> app)
	RequestID string          `json:"request_id,omitempty"`
	Method    string          `json:"method,omitempty"`
	Params    json.RawMessage `json:"params,omitempty"`
	Result    json.RawMessage `json:"result,omitempty"`
	Error     string          `json:"error,omitempty"`
}

const (
	frameEdge     = "edge"
	frameEvent    = "event"
	frameDispose  = "dispose"
	frameRequest  = "request"
	frameResponse = "response"
)

// methods understood by the instrumented app's registry endpoint
const (
	methodGetAll      = "getAllComponents"
	methodGetByID     = "getComponentById"
	methodGetCount    = "getComponentCount"
	methodGetCircuit  = "getCircuitId"
	methodEventsSince = "eventsSince"
)

// eventBatch is the eventsSince response payload. Cursor is source-side and
// unrelated to engine event ids.
type eventBatch struct {
	Events     []domain.Event `json:"events"`
	NextCursor int64          `json:"next_cursor"`
}
