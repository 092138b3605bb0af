package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mzorec/renderscope/internal/config"
	"github.com/mzorec/renderscope/internal/domain"
	"github.com/mzorec/renderscope/internal/output"
)

// testGlobals creates a Globals struct with captured stdout/stderr
func testGlobals(format string) (*Globals, *bytes.Buffer, *bytes.Buffer) {
	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}
	return &Globals{
		Format:   format,
		Endpoint: "ws://localhost:5000/_profiler",
		Quiet:    false,
		Verbose:  false,
		Stdout:   stdout,
		Stderr:   stderr,
		Config:   config.Default(),
	}, stdout, stderr
}

// --- Config Command Tests ---

func TestConfigShowCmd_Run(t *testing.T) {
	t.Run("outputs config in text format", func(t *testing.T) {
		globals, stdout, _ := testGlobals("text")
		cmd := &ConfigShowCmd{}

		err := cmd.Run(globals)
		require.NoError(t, err)

		out := stdout.String()
		assert.Contains(t, out, "Current Configuration:")
		assert.Contains(t, out, "format:")
		assert.Contains(t, out, "endpoint:")
		assert.Contains(t, out, "Defaults:")
	})

	t.Run("outputs config in NDJSON format", func(t *testing.T) {
		globals, stdout, _ := testGlobals("ndjson")
		cmd := &ConfigShowCmd{}

		err := cmd.Run(globals)
		require.NoError(t, err)

		var result map[string]interface{}
		err = json.Unmarshal(stdout.Bytes(), &result)
		require.NoError(t, err)

		assert.Equal(t, "config", result["type"])
		assert.Contains(t, result, "format")
		assert.Contains(t, result, "defaults")
	})
}

func TestConfigPathCmd_Run(t *testing.T) {
	t.Run("outputs path info in text format when no config", func(t *testing.T) {
		globals, stdout, _ := testGlobals("text")
		cmd := &ConfigPathCmd{}

		err := cmd.Run(globals)
		require.NoError(t, err)

		out := stdout.String()
		// Either shows the path or says no config found
		assert.True(t, strings.Contains(out, "Config file:") || strings.Contains(out, "No configuration file found"))
	})

	t.Run("outputs path in NDJSON format", func(t *testing.T) {
		globals, stdout, _ := testGlobals("ndjson")
		cmd := &ConfigPathCmd{}

		err := cmd.Run(globals)
		require.NoError(t, err)

		var result map[string]interface{}
		err = json.Unmarshal(stdout.Bytes(), &result)
		require.NoError(t, err)

		assert.Equal(t, "config_path", result["type"])
		assert.Contains(t, result, "path")
	})
}

func TestConfigGenerateCmd_Run(t *testing.T) {
	t.Run("outputs sample config YAML", func(t *testing.T) {
		globals, stdout, _ := testGlobals("text")
		cmd := &ConfigGenerateCmd{}

		err := cmd.Run(globals)
		require.NoError(t, err)

		out := stdout.String()
		assert.Contains(t, out, "# rscope configuration file")
		assert.Contains(t, out, "format: ndjson")
		assert.Contains(t, out, "defaults:")
		assert.Contains(t, out, "endpoint: ws://localhost:5000/_profiler")
		assert.Contains(t, out, "buffer_size: 2000")
	})
}

// --- Schema Command Tests ---

func TestSchemaCmd_Run(t *testing.T) {
	t.Run("outputs all schemas by default", func(t *testing.T) {
		globals, stdout, _ := testGlobals("ndjson")
		cmd := &SchemaCmd{}

		err := cmd.Run(globals)
		require.NoError(t, err)

		var result map[string]interface{}
		err = json.Unmarshal(stdout.Bytes(), &result)
		require.NoError(t, err)

		assert.Equal(t, "http://json-schema.org/draft-07/schema#", result["$schema"])
		assert.Equal(t, "renderscope Output Schemas", result["title"])

		defs := result["definitions"].(map[string]interface{})
		assert.Contains(t, defs, "event")
		assert.Contains(t, defs, "tree")
		assert.Contains(t, defs, "ranked")
		assert.Contains(t, defs, "flamegraph")
		assert.Contains(t, defs, "session")
		assert.Contains(t, defs, "error")
	})

	t.Run("filters schemas by type", func(t *testing.T) {
		globals, stdout, _ := testGlobals("ndjson")
		cmd := &SchemaCmd{Type: []string{"event", "error"}}

		err := cmd.Run(globals)
		require.NoError(t, err)

		var result map[string]interface{}
		err = json.Unmarshal(stdout.Bytes(), &result)
		require.NoError(t, err)

		defs := result["definitions"].(map[string]interface{})
		assert.Len(t, defs, 2)
		assert.Contains(t, defs, "event")
		assert.Contains(t, defs, "error")
		assert.NotContains(t, defs, "ranked")
	})
}

func TestEventSchema(t *testing.T) {
	schema := eventSchema()

	assert.Equal(t, "object", schema["type"])
	assert.Equal(t, "Component Event", schema["title"])

	props := schema["properties"].(map[string]interface{})
	assert.Contains(t, props, "event_id")
	assert.Contains(t, props, "component_id")
	assert.Contains(t, props, "component_type")
	assert.Contains(t, props, "event_type")
	assert.Contains(t, props, "duration_ms")
}

func TestRankedSchema(t *testing.T) {
	schema := rankedSchema()

	assert.Equal(t, "object", schema["type"])
	assert.Equal(t, "Ranked Aggregates", schema["title"])

	props := schema["properties"].(map[string]interface{})
	assert.Contains(t, props, "entries")
	assert.Contains(t, props, "session")
}

// --- Flame Command Tests ---

func TestFlameCmd_Run(t *testing.T) {
	tmpDir := t.TempDir()
	sessionFile := filepath.Join(tmpDir, "session.ndjson")

	dur := 5.0
	f, err := os.Create(sessionFile)
	require.NoError(t, err)
	w := output.NewNDJSONWriter(f)
	w.WriteSessionStart("2026-08-25T10:00:00Z", 1)
	events := []domain.Event{
		{EventID: 1, ComponentID: "1", ComponentType: "Grid", EventType: domain.EventRender, RelativeTimestampMs: 0, DurationMs: &dur},
		{EventID: 2, ComponentID: "2", ComponentType: "Nav", EventType: domain.EventRender, RelativeTimestampMs: 10, DurationMs: &dur},
	}
	for _, ev := range events {
		w.WriteEvent(1, ev, 1)
	}
	f.Close()

	t.Run("projects session file in NDJSON format", func(t *testing.T) {
		globals, stdout, _ := testGlobals("ndjson")
		cmd := &FlameCmd{Input: sessionFile, Zoom: 1}

		err := cmd.Run(globals)
		require.NoError(t, err)

		var result map[string]interface{}
		err = json.Unmarshal(stdout.Bytes(), &result)
		require.NoError(t, err)

		assert.Equal(t, "flamegraph", result["type"])
		assert.EqualValues(t, 1, result["session"])
		proj := result["projection"].(map[string]interface{})
		lanes := proj["lanes"].([]interface{})
		assert.Len(t, lanes, 2)
	})

	t.Run("projects session file in text format", func(t *testing.T) {
		globals, stdout, _ := testGlobals("text")
		cmd := &FlameCmd{Input: sessionFile, Zoom: 2, Pan: 0.1}

		err := cmd.Run(globals)
		require.NoError(t, err)

		out := stdout.String()
		assert.Contains(t, out, "Grid")
		assert.Contains(t, out, "zoom 2.0x")
	})

	t.Run("clamps zoom beyond the configured maximum", func(t *testing.T) {
		globals, stdout, _ := testGlobals("ndjson")
		cmd := &FlameCmd{Input: sessionFile, Zoom: 99}

		err := cmd.Run(globals)
		require.NoError(t, err)

		var result map[string]interface{}
		require.NoError(t, json.Unmarshal(stdout.Bytes(), &result))
		proj := result["projection"].(map[string]interface{})
		assert.EqualValues(t, 16, proj["zoom"])
	})

	t.Run("returns error for non-existent file", func(t *testing.T) {
		globals, _, _ := testGlobals("text")
		cmd := &FlameCmd{Input: "/nonexistent/file.ndjson", Zoom: 1}

		err := cmd.Run(globals)
		assert.Error(t, err)
	})

	t.Run("returns error for file with no events", func(t *testing.T) {
		emptyFile := filepath.Join(tmpDir, "empty.ndjson")
		os.WriteFile(emptyFile, []byte("{\"type\":\"session_start\"}\n"), 0644)

		globals, _, _ := testGlobals("text")
		cmd := &FlameCmd{Input: emptyFile, Zoom: 1}

		err := cmd.Run(globals)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "no events")
	})
}

// --- Version Command Tests ---

func TestVersionCmd_Run(t *testing.T) {
	t.Run("outputs version in text format", func(t *testing.T) {
		globals, stdout, _ := testGlobals("text")
		cmd := &VersionCmd{}

		err := cmd.Run(globals)
		require.NoError(t, err)

		assert.Contains(t, stdout.String(), "rscope version")
	})

	t.Run("outputs version in NDJSON format", func(t *testing.T) {
		globals, stdout, _ := testGlobals("ndjson")
		cmd := &VersionCmd{}

		err := cmd.Run(globals)
		require.NoError(t, err)

		var result map[string]interface{}
		err = json.Unmarshal(stdout.Bytes(), &result)
		require.NoError(t, err)

		assert.Equal(t, "version", result["type"])
		assert.Contains(t, result, "version")
		assert.Contains(t, result, "commit")
	})
}

// --- Helper Tests ---

func TestBuildPipeline(t *testing.T) {
	t.Run("nil when no filters", func(t *testing.T) {
		p, err := buildPipeline("", "", nil)
		require.NoError(t, err)
		assert.Nil(t, p)
	})

	t.Run("rejects invalid include regex", func(t *testing.T) {
		_, err := buildPipeline("[unclosed", "", nil)
		assert.Error(t, err)
	})

	t.Run("rejects invalid exclude regex", func(t *testing.T) {
		_, err := buildPipeline("", "[unclosed", nil)
		assert.Error(t, err)
	})

	t.Run("rejects invalid where clause", func(t *testing.T) {
		_, err := buildPipeline("", "", []string{"garbage"})
		assert.Error(t, err)
	})

	t.Run("builds combined pipeline", func(t *testing.T) {
		p, err := buildPipeline("Grid", "Legacy", []string{"event=render"})
		require.NoError(t, err)
		require.NotNil(t, p)

		ok := p.Match(&domain.Event{ComponentType: "ProductGrid", EventType: domain.EventRender})
		assert.True(t, ok)
	})
}

func TestRecordSessionPathBuilder(t *testing.T) {
	cmd := &RecordCmd{Output: "run.ndjson"}
	pb := cmd.sessionPathBuilder()
	require.NotNil(t, pb)

	first, err := pb(1)
	require.NoError(t, err)
	assert.Equal(t, "run.ndjson", first)

	second, err := pb(2)
	require.NoError(t, err)
	assert.Equal(t, "run.2.ndjson", second)

	cmd = &RecordCmd{}
	assert.Nil(t, cmd.sessionPathBuilder())
}

func TestOutputErrorCommon(t *testing.T) {
	t.Run("ndjson error record", func(t *testing.T) {
		globals, stdout, _ := testGlobals("ndjson")

		err := outputErrorCommon(globals, "CONNECT_FAILED", "dial refused", "start the app")
		require.Error(t, err)

		var result map[string]interface{}
		require.NoError(t, json.Unmarshal(stdout.Bytes(), &result))
		assert.Equal(t, "error", result["type"])
		assert.Equal(t, "CONNECT_FAILED", result["code"])
		assert.Equal(t, "start the app", result["hint"])
	})

	t.Run("text error to stderr", func(t *testing.T) {
		globals, _, stderr := testGlobals("text")

		err := outputErrorCommon(globals, "INVALID_PATTERN", "bad regex")
		require.Error(t, err)
		assert.Contains(t, stderr.String(), "Error [INVALID_PATTERN]: bad regex")
	})
}

func TestOutputWarningCommon(t *testing.T) {
	t.Run("ndjson warning record on stdout", func(t *testing.T) {
		globals, stdout, stderr := testGlobals("ndjson")
		writer := output.NewNDJSONWriter(globals.Stdout)

		outputWarningCommon(globals, writer, "connection closed by app")

		var result map[string]interface{}
		require.NoError(t, json.Unmarshal(stdout.Bytes(), &result))
		assert.Equal(t, "warning", result["type"])
		assert.Equal(t, "connection closed by app", result["message"])
		assert.Empty(t, stderr.String())
	})

	t.Run("text warning to stderr keeps stdout clean", func(t *testing.T) {
		globals, stdout, stderr := testGlobals("text")
		writer := output.NewNDJSONWriter(globals.Stdout)

		outputWarningCommon(globals, writer, "connection closed by app")

		assert.Empty(t, stdout.String())
		assert.Contains(t, stderr.String(), "Warning: connection closed by app")
	})

	t.Run("quiet suppresses both formats", func(t *testing.T) {
		for _, format := range []string{"ndjson", "text"} {
			globals, stdout, stderr := testGlobals(format)
			globals.Quiet = true
			writer := output.NewNDJSONWriter(globals.Stdout)

			outputWarningCommon(globals, writer, "noise")

			assert.Empty(t, stdout.String())
			assert.Empty(t, stderr.String())
		}
	})
}
