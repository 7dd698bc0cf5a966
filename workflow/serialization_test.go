package workflow

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Casys-AI/flowgrid/types"
)

func sampleDAG() *types.DAGStructure {
	return &types.DAGStructure{Tasks: []types.Task{
		{ID: "read", Kind: types.TaskKindMCPTool, Tool: "fs:read", Arguments: map[string]any{"path": "/tmp/in"}},
		{ID: "write", Kind: types.TaskKindMCPTool, Tool: "fs:write", DependsOn: []string{"read"}},
	}}
}

// ---------------------------------------------------------------------------
// DAG serialization
// ---------------------------------------------------------------------------

func TestDAG_JSONRoundTrip(t *testing.T) {
	t.Parallel()

	jsonStr, err := DAGToJSON(sampleDAG())
	require.NoError(t, err)

	dag, err := DAGFromJSON(jsonStr)
	require.NoError(t, err)
	require.Len(t, dag.Tasks, 2)

	write, ok := dag.TaskByID("write")
	require.True(t, ok)
	assert.Equal(t, []string{"read"}, write.DependsOn)
}

func TestDAG_YAMLRoundTrip(t *testing.T) {
	t.Parallel()

	yamlStr, err := DAGToYAML(sampleDAG())
	require.NoError(t, err)

	dag, err := DAGFromYAML(yamlStr)
	require.NoError(t, err)
	assert.Len(t, dag.Tasks, 2)
}

func TestDAGFromJSON_RejectsInvalid(t *testing.T) {
	t.Parallel()

	// Unknown dependency fails structural validation on load.
	_, err := DAGFromJSON(`{"tasks":[{"id":"a","kind":"mcp_tool","depends_on":["ghost"]}]}`)
	require.Error(t, err)
	assert.Equal(t, types.ErrInvalidStructure, types.GetErrorCode(err))

	_, err = DAGFromJSON(`not json`)
	require.Error(t, err)
}

func TestDAGFromJSON_RejectsCycle(t *testing.T) {
	t.Parallel()

	_, err := DAGFromJSON(`{"tasks":[
		{"id":"a","kind":"mcp_tool","depends_on":["b"]},
		{"id":"b","kind":"mcp_tool","depends_on":["a"]}
	]}`)
	require.Error(t, err)
	assert.Equal(t, types.ErrCycleDetected, types.GetErrorCode(err))
}

func TestDAG_FileRoundTrip(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	jsonPath := filepath.Join(dir, "dag.json")
	require.NoError(t, SaveDAGToFile(sampleDAG(), jsonPath))
	fromJSON, err := LoadDAGFromFile(jsonPath)
	require.NoError(t, err)
	assert.Len(t, fromJSON.Tasks, 2)

	yamlPath := filepath.Join(dir, "dag.yaml")
	require.NoError(t, SaveDAGToFile(sampleDAG(), yamlPath))
	fromYAML, err := LoadDAGFromFile(yamlPath)
	require.NoError(t, err)
	assert.Len(t, fromYAML.Tasks, 2)
}

func TestLoadDAGFromFile_Missing(t *testing.T) {
	t.Parallel()

	_, err := LoadDAGFromFile(filepath.Join(t.TempDir(), "absent.json"))
	require.Error(t, err)
}

// ---------------------------------------------------------------------------
// Structure parsing
// ---------------------------------------------------------------------------

func TestStructureFromJSON(t *testing.T) {
	t.Parallel()

	s, err := StructureFromJSON(`{
		"nodes": [
			{"id": "read", "type": "task", "tool": "fs:read"},
			{"id": "check", "type": "decision", "expression": "ok"}
		],
		"edges": [
			{"from": "check", "to": "read", "type": "conditional", "outcome": "true"}
		]
	}`)
	require.NoError(t, err)
	require.Len(t, s.Nodes, 2)
	require.Len(t, s.Edges, 1)
	assert.Equal(t, NodeDecision, s.Nodes[1].Type)
	assert.Equal(t, EdgeConditional, s.Edges[0].Type)
}

func TestStructureFromYAML(t *testing.T) {
	t.Parallel()

	s, err := StructureFromYAML(`
nodes:
  - id: read
    type: task
    tool: fs:read
edges: []
`)
	require.NoError(t, err)
	require.Len(t, s.Nodes, 1)
	assert.Equal(t, "fs:read", s.Nodes[0].Tool)
}
