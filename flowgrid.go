// Package flowgrid provides a top-level convenience entry point for running
// workflow DAGs with minimal boilerplate.
//
// Usage:
//
//	import "github.com/Casys-AI/flowgrid"
//
//	s, err := flowgrid.New(dag, flowgrid.WithTools(invoker))
//	outcome, err := s.Run(ctx)
//
// This is a thin wrapper around [workflow.NewScheduler]; both produce
// identical results. Use this package when you prefer the shorter import
// path.
package flowgrid

import (
	"go.uber.org/zap"

	"github.com/Casys-AI/flowgrid/types"
	"github.com/Casys-AI/flowgrid/workflow"
)

// Option configures the scheduler created by [New].
type Option func(*workflow.SchedulerConfig)

// New creates a [workflow.Scheduler] for the given DAG with minimal
// configuration. Without options the scheduler routes every task to the
// tool executor and keeps no checkpoints.
func New(dag *types.DAGStructure, opts ...Option) (*workflow.Scheduler, error) {
	cfg := workflow.SchedulerConfig{DAG: dag}
	for _, opt := range opts {
		opt(&cfg)
	}
	return workflow.NewScheduler(cfg)
}

// WithWorkflowID pins the workflow identifier instead of generating one.
func WithWorkflowID(id string) Option {
	return func(cfg *workflow.SchedulerConfig) { cfg.WorkflowID = id }
}

// WithIntent records the originating intent on every checkpoint.
func WithIntent(intent string) Option {
	return func(cfg *workflow.SchedulerConfig) { cfg.Intent = intent }
}

// WithSandbox sets the executor for code_execution and capability tasks.
func WithSandbox(sandbox types.SandboxExecutor) Option {
	return func(cfg *workflow.SchedulerConfig) { cfg.Sandbox = sandbox }
}

// WithCapabilities sets the capability lookup store.
func WithCapabilities(store types.CapabilityStore) Option {
	return func(cfg *workflow.SchedulerConfig) { cfg.Capabilities = store }
}

// WithTools sets the tool invoker for mcp_tool tasks.
func WithTools(tools *workflow.ToolInvoker) Option {
	return func(cfg *workflow.SchedulerConfig) { cfg.Tools = tools }
}

// WithCheckpoints enables per-layer checkpoint persistence.
func WithCheckpoints(store workflow.CheckpointStore) Option {
	return func(cfg *workflow.SchedulerConfig) { cfg.Checkpoints = store }
}

// WithRouter overrides the default task router.
func WithRouter(router *workflow.TaskRouter) Option {
	return func(cfg *workflow.SchedulerConfig) { cfg.Router = router }
}

// WithLayerValidation suspends the workflow after every layer for approval.
func WithLayerValidation() Option {
	return func(cfg *workflow.SchedulerConfig) { cfg.Options.LayerValidation = true }
}

// WithMaxParallel bounds concurrent task execution within one layer.
func WithMaxParallel(n int64) Option {
	return func(cfg *workflow.SchedulerConfig) { cfg.Options.MaxParallel = n }
}

// WithLogger sets a custom zap logger.
func WithLogger(logger *zap.Logger) Option {
	return func(cfg *workflow.SchedulerConfig) { cfg.Logger = logger }
}
