package workflow

import (
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/Casys-AI/flowgrid/types"
)

// ---------------------------------------------------------------------------
// TaskRouter
// ---------------------------------------------------------------------------

func TestTaskRouter_Classify(t *testing.T) {
	t.Parallel()

	router := NewTaskRouter(DefaultRoutingConfig(), zap.NewNop())

	assert.Equal(t, types.TaskKindCodeExecution,
		router.Classify(&types.Task{ID: "a", Kind: types.TaskKindCodeExecution}))
	assert.Equal(t, types.TaskKindCapability,
		router.Classify(&types.Task{ID: "b", Kind: types.TaskKindCapability}))

	// Untagged tasks fall back to the configured default.
	assert.Equal(t, types.TaskKindMCPTool, router.Classify(&types.Task{ID: "c"}))
}

func TestTaskRouter_ClassifyCustomDefault(t *testing.T) {
	t.Parallel()

	config := DefaultRoutingConfig()
	config.DefaultKind = types.TaskKindCodeExecution
	router := NewTaskRouter(config, zap.NewNop())

	assert.Equal(t, types.TaskKindCodeExecution, router.Classify(&types.Task{ID: "a"}))
}

func TestTaskRouter_RequiresSandbox(t *testing.T) {
	t.Parallel()

	router := NewTaskRouter(DefaultRoutingConfig(), zap.NewNop())

	assert.True(t, router.RequiresSandbox(types.TaskKindCodeExecution))
	assert.True(t, router.RequiresSandbox(types.TaskKindCapability))
	assert.False(t, router.RequiresSandbox(types.TaskKindMCPTool))
}

func TestTaskRouter_IsSafeToFail(t *testing.T) {
	t.Parallel()

	router := NewTaskRouter(DefaultRoutingConfig(), zap.NewNop())

	tests := []struct {
		name string
		task types.Task
		want bool
	}{
		{"pure code task", types.Task{ID: "a", Kind: types.TaskKindCodeExecution}, true},
		{"code task with side effects", types.Task{ID: "b", Kind: types.TaskKindCodeExecution, SideEffects: true}, false},
		{"tool task", types.Task{ID: "c", Kind: types.TaskKindMCPTool}, false},
		{"capability task", types.Task{ID: "d", Kind: types.TaskKindCapability}, false},
		{"pure capability task", types.Task{ID: "e", Kind: types.TaskKindCapability, SideEffects: false}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, router.IsSafeToFail(&tt.task))
		})
	}
}

func TestTaskRouter_ReloadBumpsVersion(t *testing.T) {
	t.Parallel()

	router := NewTaskRouter(DefaultRoutingConfig(), zap.NewNop())
	assert.Equal(t, uint64(1), router.Version())

	next := DefaultRoutingConfig()
	next.SandboxTimeout = 5 * time.Second
	router.Reload(next)

	assert.Equal(t, uint64(2), router.Version())
	assert.Equal(t, 5*time.Second, router.Config().SandboxTimeout)
}

func TestTaskRouter_ReloadDefaultsEmptyKind(t *testing.T) {
	t.Parallel()

	router := NewTaskRouter(RoutingConfig{}, zap.NewNop())
	assert.Equal(t, types.TaskKindMCPTool, router.Config().DefaultKind)

	router.Reload(RoutingConfig{})
	assert.Equal(t, types.TaskKindMCPTool, router.Config().DefaultKind)
}

// Safe-to-fail holds exactly for side-effect-free code tasks, regardless of
// the rest of the task's shape.
func TestProperty_SafeToFailRule(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200

	properties := gopter.NewProperties(parameters)

	kinds := gen.OneConstOf(
		types.TaskKindCodeExecution,
		types.TaskKindCapability,
		types.TaskKindMCPTool,
	)

	properties.Property("only pure code tasks fail safely", prop.ForAll(
		func(kind types.TaskKind, sideEffects bool, id string) bool {
			router := NewTaskRouter(DefaultRoutingConfig(), zap.NewNop())
			task := &types.Task{ID: id, Kind: kind, SideEffects: sideEffects}

			want := kind == types.TaskKindCodeExecution && !sideEffects
			return router.IsSafeToFail(task) == want
		},
		kinds,
		gen.Bool(),
		gen.AlphaString(),
	))

	properties.TestingRun(t)
}
