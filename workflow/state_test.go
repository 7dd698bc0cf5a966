package workflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Casys-AI/flowgrid/types"
)

// ---------------------------------------------------------------------------
// Reducers
// ---------------------------------------------------------------------------

func TestAppendReducer(t *testing.T) {
	t.Parallel()

	reduce := AppendReducer[int]()

	assert.Equal(t, []int{1, 2, 3, 4}, reduce([]int{1, 2}, []int{3, 4}))
	assert.Equal(t, []int{1}, reduce(nil, []int{1}))
	assert.Equal(t, []int{1}, reduce([]int{1}, nil))
}

func TestAppendReducer_DoesNotAliasInputs(t *testing.T) {
	t.Parallel()

	current := []int{1, 2}
	merged := AppendReducer[int]()(current, []int{3})
	merged[0] = 99

	assert.Equal(t, []int{1, 2}, current)
}

func TestMergeMapReducer(t *testing.T) {
	t.Parallel()

	reduce := MergeMapReducer[string, int]()

	merged := reduce(map[string]int{"a": 1, "b": 2}, map[string]int{"b": 20, "c": 3})
	assert.Equal(t, map[string]int{"a": 1, "b": 20, "c": 3}, merged)
}

// ---------------------------------------------------------------------------
// UpdateState
// ---------------------------------------------------------------------------

func TestUpdateState_AppendsResults(t *testing.T) {
	t.Parallel()

	state := types.NewWorkflowState("wf-1")

	layer := 1
	next, err := UpdateState(state, StateUpdate{
		CurrentLayer: &layer,
		Tasks: []types.TaskResult{
			{TaskID: "a", Status: types.TaskStatusSuccess},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, 1, next.CurrentLayer)
	require.Len(t, next.Tasks, 1)
	assert.Equal(t, "a", next.Tasks[0].TaskID)

	// The input state is a different object and untouched.
	assert.Equal(t, 0, state.CurrentLayer)
	assert.Empty(t, state.Tasks)
}

func TestUpdateState_MergesContext(t *testing.T) {
	t.Parallel()

	state := types.NewWorkflowState("wf-1")
	state.Context["keep"] = "old"
	state.Context["replace"] = "old"

	next, err := UpdateState(state, StateUpdate{
		Tasks:   []types.TaskResult{{TaskID: "a", Status: types.TaskStatusSuccess}},
		Context: map[string]any{"replace": "new", "add": 1},
	})
	require.NoError(t, err)

	assert.Equal(t, "old", next.Context["keep"])
	assert.Equal(t, "new", next.Context["replace"])
	assert.Equal(t, 1, next.Context["add"])
}

func TestUpdateState_RecordsDecisions(t *testing.T) {
	t.Parallel()

	state := types.NewWorkflowState("wf-1")

	next, err := UpdateState(state, StateUpdate{
		Tasks:     []types.TaskResult{{TaskID: "check", Status: types.TaskStatusSuccess}},
		Decisions: []types.Decision{{DecisionID: "check", Outcome: "true"}},
	})
	require.NoError(t, err)

	outcome, ok := next.OutcomeFor("check")
	require.True(t, ok)
	assert.Equal(t, "true", outcome)
}

func TestUpdateState_InvariantViolationLeavesStateUnchanged(t *testing.T) {
	t.Parallel()

	state := types.NewWorkflowState("wf-1")
	state.Tasks = []types.TaskResult{{TaskID: "a", Status: types.TaskStatusSuccess}}

	negative := -1
	next, err := UpdateState(state, StateUpdate{CurrentLayer: &negative})
	require.Error(t, err)
	assert.Nil(t, next)
	assert.Equal(t, types.ErrInvalidState, types.GetErrorCode(err))

	// All-or-nothing: nothing about the prior state moved.
	assert.Equal(t, 0, state.CurrentLayer)
	assert.Len(t, state.Tasks, 1)
}

func TestUpdateState_DecisionsCannotOutnumberResults(t *testing.T) {
	t.Parallel()

	state := types.NewWorkflowState("wf-1")

	_, err := UpdateState(state, StateUpdate{
		Decisions: []types.Decision{{DecisionID: "check", Outcome: "true"}},
	})
	require.Error(t, err)
	assert.Equal(t, types.ErrInvalidState, types.GetErrorCode(err))
	assert.Empty(t, state.Decisions)
}
