package workflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Casys-AI/flowgrid/types"
)

// ---------------------------------------------------------------------------
// Dependency resolution
// ---------------------------------------------------------------------------

func TestResolveDependencies_AllPresent(t *testing.T) {
	t.Parallel()

	prior := map[string]types.TaskResult{
		"a": {TaskID: "a", Status: types.TaskStatusSuccess, Output: 42},
		"b": {TaskID: "b", Status: types.TaskStatusSuccess, Output: "hello"},
	}

	resolved, err := ResolveDependencies([]string{"a", "b"}, prior)
	require.NoError(t, err)
	require.Len(t, resolved, 2)
	assert.Equal(t, 42, resolved["a"].Output)
	assert.Equal(t, "hello", resolved["b"].Output)
}

func TestResolveDependencies_Empty(t *testing.T) {
	t.Parallel()

	resolved, err := ResolveDependencies(nil, map[string]types.TaskResult{})
	require.NoError(t, err)
	assert.Empty(t, resolved)
}

func TestResolveDependencies_Missing(t *testing.T) {
	t.Parallel()

	prior := map[string]types.TaskResult{
		"a": {TaskID: "a", Status: types.TaskStatusSuccess},
	}

	_, err := ResolveDependencies([]string{"a", "ghost"}, prior)
	require.Error(t, err)
	assert.Equal(t, types.ErrDependencyNotFound, types.GetErrorCode(err))
	assert.Contains(t, err.Error(), "dependency ghost not found")
}

func TestResolveDependencies_FailedUpstream(t *testing.T) {
	t.Parallel()

	prior := map[string]types.TaskResult{
		"a": {TaskID: "a", Status: types.TaskStatusError, Error: "disk full"},
	}

	_, err := ResolveDependencies([]string{"a"}, prior)
	require.Error(t, err)
	assert.Equal(t, types.ErrDependencyFailed, types.GetErrorCode(err))
	// The upstream's original error message is preserved.
	assert.Contains(t, err.Error(), "disk full")
}

func TestResolveDependencies_FailedSafePassesThrough(t *testing.T) {
	t.Parallel()

	prior := map[string]types.TaskResult{
		"a": {TaskID: "a", Status: types.TaskStatusFailedSafe, Error: "flaky computation"},
	}

	resolved, err := ResolveDependencies([]string{"a"}, prior)
	require.NoError(t, err)
	// Downstream sees the tolerated failure as a regular result.
	assert.Equal(t, types.TaskStatusFailedSafe, resolved["a"].Status)
}
