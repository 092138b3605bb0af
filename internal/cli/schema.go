package cli

import (
	"encoding/json"
	"strings"
)

// SchemaCmd outputs JSON Schema for rscope output types
type SchemaCmd struct {
	Type []string `short:"t" help:"Output types to include (event,tree,ranked,flamegraph,session,error). Default: all"`
}

// Run executes the schema command
func (c *SchemaCmd) Run(globals *Globals) error {
	schemas := map[string]interface{}{
		"event":      eventSchema(),
		"tree":       treeSchema(),
		"ranked":     rankedSchema(),
		"flamegraph": flamegraphSchema(),
		"session":    sessionSchema(),
		"error":      errorSchema(),
	}

	typesToOutput := c.Type
	if len(typesToOutput) == 0 {
		typesToOutput = []string{"event", "tree", "ranked", "flamegraph", "session", "error"}
	}

	out := map[string]interface{}{
		"$schema":     "http://json-schema.org/draft-07/schema#",
		"title":       "renderscope Output Schemas",
		"description": "JSON Schema definitions for all rscope NDJSON output types",
		"definitions": map[string]interface{}{},
	}

	defs := out["definitions"].(map[string]interface{})
	for _, t := range typesToOutput {
		t = strings.ToLower(strings.TrimSpace(t))
		if schema, ok := schemas[t]; ok {
			defs[t] = schema
		}
	}

	encoder := json.NewEncoder(globals.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(out)
}

func eventSchema() map[string]interface{} {
	return map[string]interface{}{
		"type":        "object",
		"title":       "Component Event",
		"description": "A single lifecycle or render event from one component instance",
		"properties": map[string]interface{}{
			"event_id": map[string]interface{}{
				"type":        "integer",
				"description": "Monotonic event id assigned at ingest; doubles as the incremental-read cursor",
			},
			"component_id": map[string]interface{}{
				"type":        "string",
				"description": "Stable id of the component instance",
			},
			"component_type": map[string]interface{}{
				"type":        "string",
				"description": "Short type name of the component",
			},
			"event_type": map[string]interface{}{
				"type":        "string",
				"enum":        []string{"Initialized", "ParametersSet", "Render", "AfterRender", "StateChanged", "Disposed"},
				"description": "Lifecycle hook or render phase that produced the event",
			},
			"timestamp_ms": map[string]interface{}{
				"type":        "number",
				"description": "Producer-side timestamp in milliseconds",
			},
			"relative_timestamp_ms": map[string]interface{}{
				"type":        "number",
				"description": "Milliseconds since recording start",
			},
			"duration_ms": map[string]interface{}{
				"type":        "number",
				"description": "Measured span in milliseconds; absent for point events",
			},
			"trigger": map[string]interface{}{
				"type":        "string",
				"description": "What caused the render (FirstRender, ParameterChanged, ...)",
			},
		},
		"required": []string{"event_id", "component_id", "component_type", "event_type", "timestamp_ms"},
	}
}

func treeSchema() map[string]interface{} {
	return map[string]interface{}{
		"type":        "object",
		"title":       "Component Tree",
		"description": "Snapshot of the component forest",
		"properties": map[string]interface{}{
			"type": map[string]interface{}{
				"type":  "string",
				"const": "tree",
			},
			"roots": map[string]interface{}{
				"type":        "array",
				"description": "Root component snapshots, children nested recursively",
			},
			"count": map[string]interface{}{
				"type":        "integer",
				"description": "Total number of nodes in the snapshot",
			},
		},
		"required": []string{"type", "roots", "count"},
	}
}

func rankedSchema() map[string]interface{} {
	return map[string]interface{}{
		"type":        "object",
		"title":       "Ranked Aggregates",
		"description": "Per-component-type render statistics, worst offenders first",
		"properties": map[string]interface{}{
			"type": map[string]interface{}{
				"type":  "string",
				"const": "ranked",
			},
			"session": map[string]interface{}{
				"type":        "integer",
				"description": "Session number the aggregates belong to",
			},
			"entries": map[string]interface{}{
				"type": "array",
				"items": map[string]interface{}{
					"type": "object",
					"properties": map[string]interface{}{
						"component_type":      map[string]interface{}{"type": "string"},
						"render_count":        map[string]interface{}{"type": "integer"},
						"total_duration_ms":   map[string]interface{}{"type": "number"},
						"average_duration_ms": map[string]interface{}{"type": "number"},
						"min_duration_ms":     map[string]interface{}{"type": "number"},
						"max_duration_ms":     map[string]interface{}{"type": "number"},
					},
				},
				"description": "Sorted by total duration descending, name ascending on ties",
			},
		},
		"required": []string{"type", "entries"},
	}
}

func flamegraphSchema() map[string]interface{} {
	return map[string]interface{}{
		"type":        "object",
		"title":       "Flamegraph Projection",
		"description": "Swimlane timeline projection for one zoom/pan view",
		"properties": map[string]interface{}{
			"type": map[string]interface{}{
				"type":  "string",
				"const": "flamegraph",
			},
			"projection": map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"zoom":   map[string]interface{}{"type": "number"},
					"pan":    map[string]interface{}{"type": "number"},
					"window": map[string]interface{}{"type": "object"},
					"lanes": map[string]interface{}{
						"type":        "array",
						"description": "One swimlane per component type, in first-seen order",
					},
				},
			},
		},
		"required": []string{"type", "projection"},
	}
}

func sessionSchema() map[string]interface{} {
	return map[string]interface{}{
		"type":        "object",
		"title":       "Session Boundary",
		"description": "session_start and session_end records framing one recording",
		"properties": map[string]interface{}{
			"type": map[string]interface{}{
				"type": "string",
				"enum": []string{"session_start", "session_end"},
			},
			"timestamp": map[string]interface{}{
				"type":   "string",
				"format": "date-time",
			},
			"session": map[string]interface{}{
				"type":        "integer",
				"description": "Monotonic session number within one rscope run",
			},
			"events": map[string]interface{}{
				"type":        "integer",
				"description": "Total events recorded (session_end only)",
			},
			"renders": map[string]interface{}{
				"type":        "integer",
				"description": "Render events recorded (session_end only)",
			},
			"duration_seconds": map[string]interface{}{
				"type":        "number",
				"description": "Wall-clock session length (session_end only)",
			},
		},
		"required": []string{"type", "timestamp", "session"},
	}
}

func errorSchema() map[string]interface{} {
	return map[string]interface{}{
		"type":        "object",
		"title":       "Error",
		"description": "Error message from rscope",
		"properties": map[string]interface{}{
			"type": map[string]interface{}{
				"type":  "string",
				"const": "error",
			},
			"code": map[string]interface{}{
				"type":        "string",
				"description": "Error code (e.g., CONNECT_FAILED, INVALID_PATTERN)",
				"enum": []string{
					"CONNECT_FAILED",
					"REGISTRY_FAILED",
					"REGISTRY_TIMEOUT",
					"INVALID_PATTERN",
					"INVALID_DURATION",
					"INVALID_INTERVAL",
					"INPUT_FAILED",
					"EMPTY_SESSION",
					"OUTPUT_FAILED",
					"ALREADY_RECORDING",
				},
			},
			"message": map[string]interface{}{
				"type":        "string",
				"description": "Human-readable error description",
			},
			"hint": map[string]interface{}{
				"type":        "string",
				"description": "Suggested remediation, when known",
			},
		},
		"required": []string{"type", "code", "message"},
	}
}
