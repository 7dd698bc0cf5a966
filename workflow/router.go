package workflow

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Casys-AI/flowgrid/types"
)

// RoutingConfig is the explicit, versioned routing configuration. There is
// no module-level mutable routing state; components hold a *TaskRouter and
// observe config swaps through it.
type RoutingConfig struct {
	// DefaultKind classifies tasks that carry no kind.
	DefaultKind types.TaskKind `yaml:"default_kind" json:"default_kind"`
	// SandboxTimeout bounds one sandboxed execution.
	SandboxTimeout time.Duration `yaml:"sandbox_timeout" json:"sandbox_timeout"`
	// SandboxMemoryMB is the sandbox memory budget in megabytes.
	SandboxMemoryMB int `yaml:"sandbox_memory_mb" json:"sandbox_memory_mb"`
	// ToolTimeout bounds one external tool invocation.
	ToolTimeout time.Duration `yaml:"tool_timeout" json:"tool_timeout"`
}

// DefaultRoutingConfig returns the routing defaults.
func DefaultRoutingConfig() RoutingConfig {
	return RoutingConfig{
		DefaultKind:     types.TaskKindMCPTool,
		SandboxTimeout:  30 * time.Second,
		SandboxMemoryMB: 256,
		ToolTimeout:     60 * time.Second,
	}
}

// TaskRouter classifies tasks by execution kind and decides failure
// tolerance.
type TaskRouter struct {
	mu      sync.RWMutex
	config  RoutingConfig
	version uint64
	logger  *zap.Logger
}

// NewTaskRouter creates a router with the given configuration.
func NewTaskRouter(config RoutingConfig, logger *zap.Logger) *TaskRouter {
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.DefaultKind == "" {
		config.DefaultKind = types.TaskKindMCPTool
	}
	return &TaskRouter{
		config:  config,
		version: 1,
		logger:  logger.With(zap.String("component", "task_router")),
	}
}

// Classify returns a task's execution kind, falling back to the configured
// default when the task carries none.
func (r *TaskRouter) Classify(task *types.Task) types.TaskKind {
	if task.Kind != "" {
		return task.Kind
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.config.DefaultKind
}

// RequiresSandbox reports whether a kind executes in the sandbox runtime.
func (r *TaskRouter) RequiresSandbox(kind types.TaskKind) bool {
	return kind == types.TaskKindCodeExecution || kind == types.TaskKindCapability
}

// IsSafeToFail reports whether a task's failure is tolerated. This is the
// sole rule deciding failed_safe versus error: only side-effect-free code
// tasks may fail safely.
func (r *TaskRouter) IsSafeToFail(task *types.Task) bool {
	return r.Classify(task) == types.TaskKindCodeExecution && !task.SideEffects
}

// Config returns the current routing configuration.
func (r *TaskRouter) Config() RoutingConfig {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.config
}

// Version returns the configuration version, incremented on every reload.
func (r *TaskRouter) Version() uint64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.version
}

// Reload atomically replaces the routing configuration.
func (r *TaskRouter) Reload(config RoutingConfig) {
	if config.DefaultKind == "" {
		config.DefaultKind = types.TaskKindMCPTool
	}

	r.mu.Lock()
	r.config = config
	r.version++
	version := r.version
	r.mu.Unlock()

	r.logger.Info("routing config reloaded",
		zap.Uint64("version", version),
		zap.String("default_kind", string(config.DefaultKind)),
	)
}
