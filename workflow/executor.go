package workflow

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/Casys-AI/flowgrid/types"
)

// ExecOutput is the shared success contract of all task executors.
type ExecOutput struct {
	Output    any
	ElapsedMs int64
}

// TaskExecutor executes one task of a given kind. On failure the returned
// error's message is propagated verbatim into TaskResult.Error.
type TaskExecutor interface {
	ExecuteTask(ctx context.Context, task *types.Task, deps map[string]types.TaskResult) (*ExecOutput, error)
}

// buildExecutionContext assembles the sandbox context from resolved
// dependency results and task arguments. Dependency entries keep the full
// result so sandboxed code can branch on upstream status.
func buildExecutionContext(task *types.Task, deps map[string]types.TaskResult) map[string]any {
	depCtx := make(map[string]any, len(deps))
	for id, result := range deps {
		depCtx[id] = map[string]any{
			"status": string(result.Status),
			"output": result.Output,
		}
	}

	execCtx := map[string]any{
		"task_id":      task.ID,
		"dependencies": depCtx,
	}
	for k, v := range task.Arguments {
		execCtx[k] = v
	}
	return execCtx
}

// sandboxBudget resolves the effective timeout for a sandboxed task.
func sandboxBudget(task *types.Task, config RoutingConfig) time.Duration {
	if task.SandboxConfig != nil && task.SandboxConfig.TimeoutMs > 0 {
		return time.Duration(task.SandboxConfig.TimeoutMs) * time.Millisecond
	}
	return config.SandboxTimeout
}

// ---------------------------------------------------------------------------
// Code executor
// ---------------------------------------------------------------------------

// CodeExecutor runs generated code against the sandbox runtime.
type CodeExecutor struct {
	sandbox types.SandboxExecutor
	router  *TaskRouter
	logger  *zap.Logger
}

// NewCodeExecutor creates a code executor.
func NewCodeExecutor(sandbox types.SandboxExecutor, router *TaskRouter, logger *zap.Logger) *CodeExecutor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CodeExecutor{
		sandbox: sandbox,
		router:  router,
		logger:  logger.With(zap.String("component", "code_executor")),
	}
}

// ExecuteTask implements TaskExecutor.
func (e *CodeExecutor) ExecuteTask(ctx context.Context, task *types.Task, deps map[string]types.TaskResult) (*ExecOutput, error) {
	if e.sandbox == nil {
		return nil, types.NewError(types.ErrExecutorNotConfigured,
			"code executor requires a sandbox executor")
	}

	config := e.router.Config()
	execCtx := buildExecutionContext(task, deps)
	execCtx["memory_limit_mb"] = config.SandboxMemoryMB
	if task.SandboxConfig != nil && task.SandboxConfig.MemoryLimit > 0 {
		execCtx["memory_limit_mb"] = task.SandboxConfig.MemoryLimit
	}

	runCtx, cancel := context.WithTimeout(ctx, sandboxBudget(task, config))
	defer cancel()

	e.logger.Debug("executing code task", zap.String("task_id", task.ID))

	result, err := e.sandbox.Execute(runCtx, task.Code, execCtx)
	if err != nil {
		if runCtx.Err() == context.DeadlineExceeded {
			return nil, types.NewErrorf(types.ErrExecutionTimeout,
				"task %s exceeded sandbox budget", task.ID).WithTaskID(task.ID)
		}
		return nil, types.NewError(types.ErrSandboxFailure, "sandbox invocation failed").
			WithCause(err).WithTaskID(task.ID)
	}

	if !result.Success {
		msg := "sandbox execution failed"
		if result.Error != nil {
			msg = result.Error.Message
		}
		return nil, types.NewError(types.ErrSandboxFailure, msg).WithTaskID(task.ID)
	}

	return &ExecOutput{Output: result.Result, ElapsedMs: result.ElapsedMs}, nil
}

// ---------------------------------------------------------------------------
// Capability executor
// ---------------------------------------------------------------------------

// CapabilityExecutor runs stored, reusable code patterns. Source code is
// resolved either inline from the task or by id lookup in the capability
// store; lacking both is a configuration error.
type CapabilityExecutor struct {
	sandbox types.SandboxExecutor
	store   types.CapabilityStore
	router  *TaskRouter
	intent  string
	logger  *zap.Logger
}

// NewCapabilityExecutor creates a capability executor. The store may be nil
// only when every capability task carries inline code.
func NewCapabilityExecutor(sandbox types.SandboxExecutor, store types.CapabilityStore, router *TaskRouter, intent string, logger *zap.Logger) *CapabilityExecutor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CapabilityExecutor{
		sandbox: sandbox,
		store:   store,
		router:  router,
		intent:  intent,
		logger:  logger.With(zap.String("component", "capability_executor")),
	}
}

// ExecuteTask implements TaskExecutor.
func (e *CapabilityExecutor) ExecuteTask(ctx context.Context, task *types.Task, deps map[string]types.TaskResult) (*ExecOutput, error) {
	if e.sandbox == nil {
		return nil, types.NewError(types.ErrExecutorNotConfigured,
			"capability executor requires a sandbox executor")
	}

	code := task.Code
	if code == "" {
		if e.store == nil {
			return nil, types.NewError(types.ErrExecutorNotConfigured,
				"capability executor requires a capability store for id lookup")
		}
		capability, err := e.store.FindByID(ctx, task.CapabilityID)
		if err != nil {
			return nil, types.NewErrorf(types.ErrStoreFailure,
				"capability store lookup for %s failed", task.CapabilityID).WithCause(err)
		}
		if capability == nil {
			return nil, types.NewErrorf(types.ErrCapabilityNotFound,
				"capability %s not found", task.CapabilityID).WithTaskID(task.ID)
		}
		code = capability.CodeSnippet
	}

	config := e.router.Config()
	execCtx := buildExecutionContext(task, deps)
	execCtx["capability_id"] = task.CapabilityID
	execCtx["intent"] = e.intent

	runCtx, cancel := context.WithTimeout(ctx, sandboxBudget(task, config))
	defer cancel()

	e.logger.Debug("executing capability task",
		zap.String("task_id", task.ID),
		zap.String("capability_id", task.CapabilityID),
	)

	result, err := e.sandbox.Execute(runCtx, code, execCtx)
	if err != nil {
		if runCtx.Err() == context.DeadlineExceeded {
			return nil, types.NewErrorf(types.ErrExecutionTimeout,
				"task %s exceeded sandbox budget", task.ID).WithTaskID(task.ID)
		}
		return nil, types.NewError(types.ErrSandboxFailure, "sandbox invocation failed").
			WithCause(err).WithTaskID(task.ID)
	}

	if !result.Success {
		msg := "sandbox execution failed"
		if result.Error != nil {
			msg = result.Error.Message
		}
		return nil, types.NewError(types.ErrSandboxFailure, msg).WithTaskID(task.ID)
	}

	return &ExecOutput{Output: result.Result, ElapsedMs: result.ElapsedMs}, nil
}

// PermissionProfile returns a capability's stored permission profile. When
// the store is unavailable or the capability is unknown, the most
// restrictive profile is returned.
func (e *CapabilityExecutor) PermissionProfile(ctx context.Context, capabilityID string) types.PermissionSet {
	if e.store == nil {
		return types.RestrictedPermissions()
	}
	capability, err := e.store.FindByID(ctx, capabilityID)
	if err != nil || capability == nil {
		return types.RestrictedPermissions()
	}
	return capability.PermissionSet
}

// ---------------------------------------------------------------------------
// Tool invoker
// ---------------------------------------------------------------------------

// ToolInvoker dispatches server:action tool identifiers to registered
// clients, with optional per-server rate limiting.
type ToolInvoker struct {
	mu       sync.RWMutex
	clients  map[string]types.ToolClient
	limiters map[string]*rate.Limiter
	logger   *zap.Logger
}

// NewToolInvoker creates an empty tool invoker.
func NewToolInvoker(logger *zap.Logger) *ToolInvoker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ToolInvoker{
		clients:  make(map[string]types.ToolClient),
		limiters: make(map[string]*rate.Limiter),
		logger:   logger.With(zap.String("component", "tool_invoker")),
	}
}

// RegisterClient registers the client serving a tool server.
func (t *ToolInvoker) RegisterClient(server string, client types.ToolClient) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.clients[server] = client
}

// SetRateLimit throttles calls against one server to r events/sec with the
// given burst.
func (t *ToolInvoker) SetRateLimit(server string, r rate.Limit, burst int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.limiters[server] = rate.NewLimiter(r, burst)
}

// SplitToolID splits a "server:action" identifier.
func SplitToolID(toolID string) (server, action string, ok bool) {
	server, action, ok = strings.Cut(toolID, ":")
	if !ok || server == "" || action == "" {
		return "", "", false
	}
	return server, action, true
}

// ExecuteTask implements TaskExecutor.
func (t *ToolInvoker) ExecuteTask(ctx context.Context, task *types.Task, deps map[string]types.TaskResult) (*ExecOutput, error) {
	server, action, ok := SplitToolID(task.Tool)
	if !ok {
		return nil, types.NewErrorf(types.ErrToolNotFound,
			"malformed tool id %q, want server:action", task.Tool).WithTaskID(task.ID)
	}

	t.mu.RLock()
	client, exists := t.clients[server]
	limiter := t.limiters[server]
	t.mu.RUnlock()

	if !exists {
		return nil, types.NewErrorf(types.ErrToolNotFound,
			"no client registered for tool server %s", server).WithTaskID(task.ID)
	}

	if limiter != nil {
		if err := limiter.Wait(ctx); err != nil {
			return nil, types.NewErrorf(types.ErrAborted,
				"rate limit wait for %s interrupted", server).WithCause(err)
		}
	}

	args := task.Arguments
	if args == nil {
		args = make(map[string]any)
	}

	t.logger.Debug("invoking tool",
		zap.String("task_id", task.ID),
		zap.String("server", server),
		zap.String("action", action),
	)

	start := time.Now()
	result, err := client.CallTool(ctx, action, args)
	if err != nil {
		return nil, err
	}

	return &ExecOutput{Output: result, ElapsedMs: time.Since(start).Milliseconds()}, nil
}
