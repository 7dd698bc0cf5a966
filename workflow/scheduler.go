package workflow

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/Casys-AI/flowgrid/internal/metrics"
	"github.com/Casys-AI/flowgrid/types"
)

// WorkflowStatus is the scheduler's state-machine position.
type WorkflowStatus string

const (
	StatusCreated           WorkflowStatus = "created"
	StatusRunning           WorkflowStatus = "running"
	StatusPausedForApproval WorkflowStatus = "paused_for_approval"
	StatusComplete          WorkflowStatus = "complete"
	StatusAborted           WorkflowStatus = "aborted"
)

// StepStatus discriminates the outcome of one scheduler step.
type StepStatus string

const (
	// StepPaused means a layer boundary was reached; call Step again to
	// continue.
	StepPaused StepStatus = "paused"
	// StepAwaitingApproval means the workflow suspended for a human or
	// agent decision.
	StepAwaitingApproval StepStatus = "awaiting_approval"
	// StepCompleted means every runnable task has a result.
	StepCompleted StepStatus = "completed"
	// StepAborted means the workflow halted; Results holds the partial set.
	StepAborted StepStatus = "aborted"
)

// StepOutcome is the discriminated result of one scheduler step.
type StepOutcome struct {
	Status       StepStatus         `json:"status"`
	Layer        int                `json:"layer"`
	Executed     []types.TaskResult `json:"executed,omitempty"`
	CheckpointID string             `json:"checkpoint_id,omitempty"`
	Reason       string             `json:"reason,omitempty"`
}

// CheckpointStore persists workflow checkpoints with a rolling TTL. Reads
// must filter expired records.
type CheckpointStore interface {
	Save(ctx context.Context, cp *types.Checkpoint) error
	Get(ctx context.Context, workflowID string) (*types.Checkpoint, error)
	Touch(ctx context.Context, workflowID string) error
}

// SchedulerOptions tunes a scheduler instance.
type SchedulerOptions struct {
	// LayerValidation suspends the workflow after every layer, awaiting an
	// approval_response command.
	LayerValidation bool
	// MaxParallel bounds concurrent task execution within one layer.
	// Zero means the whole layer fans out at once.
	MaxParallel int64
}

// SchedulerConfig assembles a scheduler's collaborators.
type SchedulerConfig struct {
	WorkflowID   string
	Intent       string
	DAG          *types.DAGStructure
	Sandbox      types.SandboxExecutor
	Capabilities types.CapabilityStore
	Tools        *ToolInvoker
	Checkpoints  CheckpointStore
	Router       *TaskRouter
	Options      SchedulerOptions
	Logger       *zap.Logger
	Metrics      *metrics.Collector
}

// Scheduler turns a task DAG into parallel execution layers, driven
// cooperatively one layer at a time by an external loop. It exclusively
// owns the workflow's in-memory state for the duration of a run; callers
// must keep single-writer discipline per workflow id.
type Scheduler struct {
	workflowID string
	intent     string
	dag        *types.DAGStructure
	state      *types.WorkflowState
	status     WorkflowStatus

	commands  *CommandQueue
	router    *TaskRouter
	executors map[types.TaskKind]TaskExecutor

	checkpoints CheckpointStore
	opts        SchedulerOptions

	// skipped tracks tasks terminally excluded from scheduling: contradicted
	// conditions and their transitive dependents, plus skip_layer victims.
	skipped map[string]bool
	// pendingApproval is the checkpoint id the workflow is suspended on.
	pendingApproval string
	skipNextLayer   bool
	abortReason     string

	logger  *zap.Logger
	metrics *metrics.Collector
	tracer  trace.Tracer

	mu sync.Mutex
}

// NewScheduler validates the DAG and assembles a scheduler in the created
// state.
func NewScheduler(cfg SchedulerConfig) (*Scheduler, error) {
	if cfg.DAG == nil {
		return nil, types.NewError(types.ErrInvalidStructure, "dag is required")
	}
	if err := cfg.DAG.Validate(); err != nil {
		return nil, err
	}

	workflowID := cfg.WorkflowID
	if workflowID == "" {
		workflowID = uuid.NewString()
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.With(
		zap.String("component", "scheduler"),
		zap.String("workflow_id", workflowID),
	)

	router := cfg.Router
	if router == nil {
		router = NewTaskRouter(DefaultRoutingConfig(), logger)
	}

	tools := cfg.Tools
	if tools == nil {
		tools = NewToolInvoker(logger)
	}

	executors := map[types.TaskKind]TaskExecutor{
		types.TaskKindCodeExecution: NewCodeExecutor(cfg.Sandbox, router, logger),
		types.TaskKindCapability:    NewCapabilityExecutor(cfg.Sandbox, cfg.Capabilities, router, cfg.Intent, logger),
		types.TaskKindMCPTool:       tools,
	}

	return &Scheduler{
		workflowID:  workflowID,
		intent:      cfg.Intent,
		dag:         cfg.DAG,
		state:       types.NewWorkflowState(workflowID),
		status:      StatusCreated,
		commands:    NewCommandQueue(logger),
		router:      router,
		executors:   executors,
		checkpoints: cfg.Checkpoints,
		opts:        cfg.Options,
		skipped:     make(map[string]bool),
		logger:      logger,
		metrics:     cfg.Metrics,
		tracer:      otel.Tracer("flowgrid/workflow"),
	}, nil
}

// WorkflowID returns the workflow identifier.
func (s *Scheduler) WorkflowID() string { return s.workflowID }

// Commands returns the workflow's command channel. The caller holding this
// reference is the channel's producer.
func (s *Scheduler) Commands() *CommandQueue { return s.commands }

// Status returns the current state-machine position.
func (s *Scheduler) Status() WorkflowStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// State returns a copy of the workflow state.
func (s *Scheduler) State() *types.WorkflowState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

// Results returns all accumulated task results.
func (s *Scheduler) Results() []types.TaskResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]types.TaskResult, len(s.state.Tasks))
	copy(out, s.state.Tasks)
	return out
}

// Step advances the workflow by at most one execution layer: drain pending
// commands, compute the next layer, execute it, fold results, persist a
// checkpoint, and report the boundary outcome. Structural failures (cycle,
// store errors, invalid replans) are returned as errors; task failures are
// folded into state, never raised.
func (s *Scheduler) Step(ctx context.Context) (*StepOutcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.status {
	case StatusComplete:
		return nil, types.NewError(types.ErrInvalidState, "workflow already complete")
	case StatusAborted:
		return nil, types.NewError(types.ErrInvalidState, "workflow already aborted")
	case StatusCreated:
		s.status = StatusRunning
		if s.metrics != nil {
			s.metrics.WorkflowStarted()
		}
	}

	if err := s.applyCommands(); err != nil {
		return nil, err
	}

	if s.abortReason != "" {
		return s.finishAborted(ctx, s.abortReason), nil
	}

	if s.pendingApproval != "" {
		return &StepOutcome{
			Status:       StepAwaitingApproval,
			Layer:        s.state.CurrentLayer,
			CheckpointID: s.pendingApproval,
		}, nil
	}

	eligible, remaining, blocked, err := s.computeLayer()
	if err != nil {
		return nil, err
	}

	if len(eligible) == 0 {
		if remaining == 0 {
			return s.finishComplete(ctx), nil
		}
		if blocked == remaining {
			// Dependents of failed tasks stay pending forever; surface the
			// run as aborted with the partial result set.
			return s.finishAborted(ctx, "remaining tasks blocked by failed dependencies"), nil
		}
		return nil, types.NewErrorf(types.ErrCycleDetected,
			"cycle detected: %d tasks remain but none are eligible", remaining)
	}

	layerIndex := s.state.CurrentLayer

	if s.skipNextLayer {
		s.skipNextLayer = false
		for _, task := range eligible {
			s.skipped[task.ID] = true
		}
		s.logger.Info("layer skipped by command",
			zap.Int("layer", layerIndex),
			zap.Int("tasks", len(eligible)),
		)
		if err := s.advanceLayer(ctx, nil); err != nil {
			return nil, err
		}
		return &StepOutcome{Status: StepPaused, Layer: layerIndex}, nil
	}

	results, err := s.executeLayer(ctx, layerIndex, eligible)
	if err != nil {
		return nil, err
	}

	if err := s.advanceLayer(ctx, results); err != nil {
		return nil, err
	}

	if s.opts.LayerValidation {
		s.status = StatusPausedForApproval
		s.pendingApproval = uuid.NewString()
		s.logger.Info("workflow awaiting approval",
			zap.Int("layer", layerIndex),
			zap.String("checkpoint_id", s.pendingApproval),
		)
		return &StepOutcome{
			Status:       StepAwaitingApproval,
			Layer:        layerIndex,
			Executed:     results,
			CheckpointID: s.pendingApproval,
		}, nil
	}

	return &StepOutcome{Status: StepPaused, Layer: layerIndex, Executed: results}, nil
}

// Run drives Step until the workflow completes, aborts, or suspends for
// approval.
func (s *Scheduler) Run(ctx context.Context) (*StepOutcome, error) {
	for {
		outcome, err := s.Step(ctx)
		if err != nil {
			return nil, err
		}
		if outcome.Status != StepPaused {
			return outcome, nil
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}
}

// ---------------------------------------------------------------------------
// Command handling
// ---------------------------------------------------------------------------

// applyCommands drains the command channel non-blockingly and applies every
// command admissible at a layer boundary.
func (s *Scheduler) applyCommands() error {
	for _, cmd := range s.commands.DrainSync() {
		if s.metrics != nil {
			s.metrics.CommandProcessed(string(cmd.Type))
		}
		switch cmd.Type {
		case types.CommandContinue:
			// An explicit resume clears a pending approval gate.
			s.pendingApproval = ""
			if s.status == StatusPausedForApproval {
				s.status = StatusRunning
			}
		case types.CommandAbort:
			s.abortReason = cmd.Reason
		case types.CommandInjectTasks, types.CommandReplanDAG:
			if err := s.augmentDAG(cmd.Tasks); err != nil {
				return err
			}
			s.logger.Info("dag augmented",
				zap.String("command", string(cmd.Type)),
				zap.Int("new_tasks", len(cmd.Tasks)),
			)
		case types.CommandSkipLayer:
			s.skipNextLayer = true
		case types.CommandModifyArgs:
			s.modifyArgs(cmd.TaskID, cmd.Arguments)
		case types.CommandApprovalResponse:
			s.applyApproval(cmd)
		case types.CommandCheckpointResponse:
			// Acknowledgment of a checkpoint notification; resumes like an
			// approved response when it addresses the pending gate.
			if cmd.CheckpointID == s.pendingApproval {
				s.pendingApproval = ""
				s.status = StatusRunning
			}
		}
	}
	return nil
}

func (s *Scheduler) applyApproval(cmd *types.Command) {
	if s.pendingApproval == "" {
		s.logger.Warn("approval response with no pending approval",
			zap.String("checkpoint_id", cmd.CheckpointID))
		return
	}
	if cmd.CheckpointID != s.pendingApproval {
		s.logger.Warn("approval response for mismatched checkpoint",
			zap.String("expected", s.pendingApproval),
			zap.String("got", cmd.CheckpointID),
		)
		return
	}
	if !*cmd.Approved {
		s.abortReason = "approval rejected"
		s.pendingApproval = ""
		return
	}
	s.pendingApproval = ""
	s.status = StatusRunning
}

// augmentDAG appends replanned tasks, re-validating the whole structure.
func (s *Scheduler) augmentDAG(newTasks []types.Task) error {
	augmented := &types.DAGStructure{
		Tasks: append(append([]types.Task{}, s.dag.Tasks...), newTasks...),
	}
	if err := augmented.Validate(); err != nil {
		return err
	}
	s.dag = augmented
	return nil
}

// modifyArgs merges new arguments into a not-yet-executed task. Tasks are
// immutable once executed; late modifications are logged and dropped.
func (s *Scheduler) modifyArgs(taskID string, args map[string]any) {
	if _, done := s.state.ResultFor(taskID); done {
		s.logger.Warn("modify_args for already-executed task", zap.String("task_id", taskID))
		return
	}
	task, ok := s.dag.TaskByID(taskID)
	if !ok {
		s.logger.Warn("modify_args for unknown task", zap.String("task_id", taskID))
		return
	}
	if task.Arguments == nil {
		task.Arguments = make(map[string]any, len(args))
	}
	for k, v := range args {
		task.Arguments[k] = v
	}
}

// ---------------------------------------------------------------------------
// Layer computation
// ---------------------------------------------------------------------------

// computeLayer peels the next layer Kahn-style: every task without a result
// whose dependencies all completed without error and whose condition, if
// any, is satisfied. It also classifies the rest: blocked counts tasks
// transitively downstream of a failed dependency.
func (s *Scheduler) computeLayer() (eligible []*types.Task, remaining, blocked int, err error) {
	results := make(map[string]types.TaskResult, len(s.state.Tasks))
	for _, r := range s.state.Tasks {
		results[r.TaskID] = r
	}

	s.propagateSkips(results)

	for i := range s.dag.Tasks {
		task := &s.dag.Tasks[i]
		if _, done := results[task.ID]; done {
			continue
		}
		if s.skipped[task.ID] {
			continue
		}
		remaining++

		if s.isBlocked(task.ID, results, make(map[string]bool)) {
			blocked++
			continue
		}

		ready := true
		for _, dep := range task.DependsOn {
			depResult, done := results[dep]
			if !done || depResult.Status == types.TaskStatusError {
				ready = false
				break
			}
		}
		if !ready {
			continue
		}

		if task.Condition != nil {
			outcome, recorded := s.state.OutcomeFor(task.Condition.DecisionNodeID)
			if !recorded {
				// Decision not yet observed; the task stays pending until
				// its producer runs.
				continue
			}
			if outcome != task.Condition.RequiredOutcome {
				continue // contradicted, propagateSkips excludes it next pass
			}
		}

		eligible = append(eligible, task)
	}

	return eligible, remaining, blocked, nil
}

// propagateSkips terminally excludes tasks whose condition is contradicted
// by a recorded outcome, tasks gated on a decision node that can never
// record one (absent from the DAG, or finished without success), and
// transitively every dependent of a skipped task.
func (s *Scheduler) propagateSkips(results map[string]types.TaskResult) {
	for {
		changed := false
		for i := range s.dag.Tasks {
			task := &s.dag.Tasks[i]
			if s.skipped[task.ID] {
				continue
			}
			if _, done := results[task.ID]; done {
				continue
			}

			if task.Condition != nil {
				if outcome, recorded := s.state.OutcomeFor(task.Condition.DecisionNodeID); recorded {
					if outcome != task.Condition.RequiredOutcome {
						s.skipped[task.ID] = true
						changed = true
						continue
					}
				} else if _, exists := s.dag.TaskByID(task.Condition.DecisionNodeID); !exists {
					// No producer can ever record this outcome.
					s.skipped[task.ID] = true
					changed = true
					continue
				} else if r, done := results[task.Condition.DecisionNodeID]; done && r.Status != types.TaskStatusSuccess {
					// The producer finished without a recordable outcome;
					// the gate can never open.
					s.skipped[task.ID] = true
					changed = true
					continue
				}
			}

			for _, dep := range task.DependsOn {
				if s.skipped[dep] {
					s.skipped[task.ID] = true
					changed = true
					break
				}
			}
		}
		if !changed {
			return
		}
	}
}

// isBlocked reports whether a task is transitively downstream of a failed
// dependency.
func (s *Scheduler) isBlocked(taskID string, results map[string]types.TaskResult, visiting map[string]bool) bool {
	if visiting[taskID] {
		return false
	}
	visiting[taskID] = true

	task, ok := s.dag.TaskByID(taskID)
	if !ok {
		return false
	}
	for _, dep := range task.DependsOn {
		if r, done := results[dep]; done {
			if r.Status == types.TaskStatusError {
				return true
			}
			continue
		}
		if s.isBlocked(dep, results, visiting) {
			return true
		}
	}
	return false
}

// ---------------------------------------------------------------------------
// Layer execution
// ---------------------------------------------------------------------------

// executeLayer fans out every eligible task concurrently, bounded by the
// configured semaphore, and waits for the whole layer. Task failures are
// mapped to error or failed_safe results; they are never raised.
func (s *Scheduler) executeLayer(ctx context.Context, layerIndex int, layer []*types.Task) ([]types.TaskResult, error) {
	ctx, span := s.tracer.Start(ctx, "workflow.layer",
		trace.WithAttributes(
			attribute.String("workflow.id", s.workflowID),
			attribute.Int("workflow.layer", layerIndex),
			attribute.Int("workflow.layer_size", len(layer)),
		))
	defer span.End()

	// Routing misconfiguration is fatal before anything launches.
	for _, task := range layer {
		kind := s.router.Classify(task)
		if _, ok := s.executors[kind]; !ok {
			return nil, types.NewErrorf(types.ErrExecutorNotConfigured,
				"no executor for kind %s", kind).WithTaskID(task.ID)
		}
	}

	priorResults := make(map[string]types.TaskResult, len(s.state.Tasks))
	for _, r := range s.state.Tasks {
		priorResults[r.TaskID] = r
	}

	limit := s.opts.MaxParallel
	if limit <= 0 {
		limit = int64(len(layer))
	}
	sem := semaphore.NewWeighted(limit)

	s.logger.Info("executing layer",
		zap.Int("layer", layerIndex),
		zap.Int("tasks", len(layer)),
	)

	start := time.Now()
	resultCh := make(chan types.TaskResult, len(layer))
	var wg sync.WaitGroup

	for _, task := range layer {
		wg.Add(1)
		go func(task *types.Task) {
			defer wg.Done()

			if err := sem.Acquire(ctx, 1); err != nil {
				resultCh <- types.TaskResult{
					TaskID: task.ID,
					Status: types.TaskStatusError,
					Error:  err.Error(),
				}
				return
			}
			defer sem.Release(1)

			resultCh <- s.executeTask(ctx, task, priorResults)
		}(task)
	}

	wg.Wait()
	close(resultCh)

	results := make([]types.TaskResult, 0, len(layer))
	for r := range resultCh {
		results = append(results, r)
	}

	if s.metrics != nil {
		s.metrics.LayerExecuted(len(layer), time.Since(start))
	}
	return results, nil
}

// executeTask routes and runs one task, mapping failure per the safe-to-fail
// rule.
func (s *Scheduler) executeTask(ctx context.Context, task *types.Task, priorResults map[string]types.TaskResult) types.TaskResult {
	kind := s.router.Classify(task)
	executor := s.executors[kind]

	taskStart := time.Now()
	result := func() types.TaskResult {
		deps, err := ResolveDependencies(task.DependsOn, priorResults)
		if err != nil {
			return types.TaskResult{TaskID: task.ID, Status: types.TaskStatusError, Error: err.Error()}
		}

		output, err := executor.ExecuteTask(ctx, task, deps)
		if err != nil {
			status := types.TaskStatusError
			if s.router.IsSafeToFail(task) {
				status = types.TaskStatusFailedSafe
			}
			return types.TaskResult{
				TaskID:    task.ID,
				Status:    status,
				Error:     err.Error(),
				ElapsedMs: time.Since(taskStart).Milliseconds(),
			}
		}

		return types.TaskResult{
			TaskID:    task.ID,
			Status:    types.TaskStatusSuccess,
			Output:    output.Output,
			ElapsedMs: output.ElapsedMs,
		}
	}()

	if s.metrics != nil {
		s.metrics.TaskExecuted(string(kind), string(result.Status), time.Since(taskStart))
	}

	switch result.Status {
	case types.TaskStatusSuccess:
		s.logger.Debug("task completed",
			zap.String("task_id", task.ID),
			zap.Int64("elapsed_ms", result.ElapsedMs),
		)
	case types.TaskStatusFailedSafe:
		s.logger.Warn("task failed safely",
			zap.String("task_id", task.ID),
			zap.String("error", result.Error),
		)
	default:
		s.logger.Error("task failed",
			zap.String("task_id", task.ID),
			zap.String("error", result.Error),
		)
	}
	return result
}

// ---------------------------------------------------------------------------
// State folding and checkpointing
// ---------------------------------------------------------------------------

// advanceLayer folds layer results into state, records decision outcomes,
// bumps the layer counter, and persists a checkpoint.
func (s *Scheduler) advanceLayer(ctx context.Context, results []types.TaskResult) error {
	decisions := s.extractDecisions(results)

	nextLayer := s.state.CurrentLayer + 1
	next, err := UpdateState(s.state, StateUpdate{
		CurrentLayer: &nextLayer,
		Tasks:        results,
		Decisions:    decisions,
	})
	if err != nil {
		return err
	}
	s.state = next

	return s.persistCheckpoint(ctx)
}

// extractDecisions records an outcome for every executed task that some
// other task's condition references as its decision node.
func (s *Scheduler) extractDecisions(results []types.TaskResult) []types.Decision {
	referenced := make(map[string]bool)
	for _, t := range s.dag.Tasks {
		if t.Condition != nil {
			referenced[t.Condition.DecisionNodeID] = true
		}
	}

	var decisions []types.Decision
	for _, r := range results {
		if r.Status != types.TaskStatusSuccess || !referenced[r.TaskID] {
			continue
		}
		decisions = append(decisions, types.Decision{
			DecisionID: r.TaskID,
			Outcome:    fmt.Sprintf("%v", r.Output),
		})
	}
	return decisions
}

func (s *Scheduler) persistCheckpoint(ctx context.Context) error {
	if s.checkpoints == nil {
		return nil
	}

	now := time.Now()
	cp := &types.Checkpoint{
		ID:         uuid.NewString(),
		WorkflowID: s.workflowID,
		DAG:        *s.dag,
		Intent:     s.intent,
		Layer:      s.state.CurrentLayer - 1,
		State:      s.state.Clone(),
		CreatedAt:  now,
		ExpiresAt:  now.Add(types.DefaultCheckpointTTL),
	}

	if err := s.checkpoints.Save(ctx, cp); err != nil {
		return types.NewError(types.ErrStoreFailure, "failed to persist checkpoint").WithCause(err)
	}
	if s.metrics != nil {
		s.metrics.CheckpointSaved()
	}
	return nil
}

func (s *Scheduler) finishComplete(ctx context.Context) *StepOutcome {
	s.status = StatusComplete
	if s.metrics != nil {
		s.metrics.WorkflowFinished(string(StatusComplete))
	}
	s.logger.Info("workflow complete",
		zap.Int("layers", s.state.CurrentLayer),
		zap.Int("results", len(s.state.Tasks)),
		zap.Int("skipped", len(s.skipped)),
	)
	return &StepOutcome{
		Status:   StepCompleted,
		Layer:    s.state.CurrentLayer,
		Executed: s.state.Tasks,
	}
}

func (s *Scheduler) finishAborted(ctx context.Context, reason string) *StepOutcome {
	s.status = StatusAborted
	s.abortReason = reason
	if s.metrics != nil {
		s.metrics.WorkflowFinished(string(StatusAborted))
	}
	s.logger.Warn("workflow aborted", zap.String("reason", reason))
	// Partial results are never discarded.
	return &StepOutcome{
		Status:   StepAborted,
		Layer:    s.state.CurrentLayer,
		Executed: s.state.Tasks,
		Reason:   reason,
	}
}

// ---------------------------------------------------------------------------
// Resumption
// ---------------------------------------------------------------------------

// ResumeFromCheckpoint rehydrates a scheduler from the latest persisted
// checkpoint for the workflow id in cfg and continues the layer loop from
// checkpoint.layer + 1. The record's TTL is refreshed.
func ResumeFromCheckpoint(ctx context.Context, cfg SchedulerConfig) (*Scheduler, error) {
	if cfg.Checkpoints == nil {
		return nil, types.NewError(types.ErrExecutorNotConfigured, "resume requires a checkpoint store")
	}
	if cfg.WorkflowID == "" {
		return nil, types.NewError(types.ErrCheckpointNotFound, "resume requires a workflow id")
	}

	cp, err := cfg.Checkpoints.Get(ctx, cfg.WorkflowID)
	if err != nil {
		return nil, err
	}

	resumed := cfg
	resumed.DAG = &cp.DAG
	if resumed.Intent == "" {
		resumed.Intent = cp.Intent
	}

	s, err := NewScheduler(resumed)
	if err != nil {
		return nil, err
	}

	if cp.State != nil {
		s.state = cp.State.Clone()
	}
	s.state.CurrentLayer = cp.Layer + 1
	s.status = StatusRunning

	if err := cfg.Checkpoints.Touch(ctx, cfg.WorkflowID); err != nil {
		return nil, types.NewError(types.ErrStoreFailure, "failed to refresh checkpoint ttl").WithCause(err)
	}

	s.logger.Info("resumed from checkpoint",
		zap.String("checkpoint_id", cp.ID),
		zap.Int("layer", cp.Layer),
		zap.Int("completed_tasks", len(s.state.Tasks)),
	)
	return s, nil
}
