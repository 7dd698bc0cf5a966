package workflow

import (
	"github.com/Casys-AI/flowgrid/types"
)

// Reducer defines how a state field folds an update into its current value.
type Reducer[T any] func(current T, update T) T

// AppendReducer concatenates slices, existing entries first.
func AppendReducer[T any]() Reducer[[]T] {
	return func(current, update []T) []T {
		result := make([]T, 0, len(current)+len(update))
		result = append(result, current...)
		result = append(result, update...)
		return result
	}
}

// MergeMapReducer shallow-merges maps, update values winning on conflicts.
func MergeMapReducer[K comparable, V any]() Reducer[map[K]V] {
	return func(current, update map[K]V) map[K]V {
		result := make(map[K]V, len(current)+len(update))
		for k, v := range current {
			result[k] = v
		}
		for k, v := range update {
			result[k] = v
		}
		return result
	}
}

// StateUpdate is a partial update folded into workflow state. Nil / empty
// fields leave the corresponding state field untouched.
type StateUpdate struct {
	CurrentLayer *int
	Messages     []types.Message
	Tasks        []types.TaskResult
	Decisions    []types.Decision
	Context      map[string]any
}

// UpdateState applies the per-field reducers and re-checks all state
// invariants. The update is all-or-nothing: on violation the returned error
// is non-nil and the input state is observably unchanged.
func UpdateState(state *types.WorkflowState, update StateUpdate) (*types.WorkflowState, error) {
	next := state.Clone()

	if update.CurrentLayer != nil {
		next.CurrentLayer = *update.CurrentLayer
	}
	if len(update.Messages) > 0 {
		next.Messages = AppendReducer[types.Message]()(next.Messages, update.Messages)
	}
	if len(update.Tasks) > 0 {
		next.Tasks = AppendReducer[types.TaskResult]()(next.Tasks, update.Tasks)
	}
	if len(update.Decisions) > 0 {
		next.Decisions = AppendReducer[types.Decision]()(next.Decisions, update.Decisions)
	}
	if len(update.Context) > 0 {
		next.Context = MergeMapReducer[string, any]()(next.Context, update.Context)
	}

	if err := next.CheckInvariants(); err != nil {
		return nil, err
	}
	return next, nil
}
