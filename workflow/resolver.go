package workflow

import (
	"github.com/Casys-AI/flowgrid/types"
)

// ResolveDependencies gathers the completed upstream results for a task.
// For each dependency id, a missing result is a DEPENDENCY_NOT_FOUND error
// and a result with status error is a DEPENDENCY_FAILED error carrying the
// original message. This is the fail-fast propagation point that halts a
// branch when an upstream critical task failed.
//
// The full TaskResult is returned per dependency, not just its output, so
// downstream tasks can branch on status (a failed_safe upstream is visible
// as such).
func ResolveDependencies(dependsOn []string, priorResults map[string]types.TaskResult) (map[string]types.TaskResult, error) {
	resolved := make(map[string]types.TaskResult, len(dependsOn))

	for _, depID := range dependsOn {
		result, ok := priorResults[depID]
		if !ok {
			return nil, types.NewErrorf(types.ErrDependencyNotFound,
				"dependency %s not found", depID).WithTaskID(depID)
		}
		if result.Status == types.TaskStatusError {
			return nil, types.NewErrorf(types.ErrDependencyFailed,
				"dependency %s failed: %s", depID, result.Error).WithTaskID(depID)
		}
		resolved[depID] = result
	}

	return resolved, nil
}
