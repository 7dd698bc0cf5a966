package types

import "fmt"

// TaskKind identifies how a task is executed.
type TaskKind string

const (
	// TaskKindCodeExecution runs generated code in the sandbox.
	TaskKindCodeExecution TaskKind = "code_execution"
	// TaskKindCapability runs a stored, reusable code pattern in the sandbox.
	TaskKindCapability TaskKind = "capability"
	// TaskKindMCPTool invokes an external tool via a registered client.
	TaskKindMCPTool TaskKind = "mcp_tool"
)

// TaskStatus is the terminal status of one task attempt.
type TaskStatus string

const (
	// TaskStatusSuccess means the task produced an output.
	TaskStatusSuccess TaskStatus = "success"
	// TaskStatusError means a critical failure; dependents never run.
	TaskStatusError TaskStatus = "error"
	// TaskStatusFailedSafe means a tolerated failure; the workflow continues.
	TaskStatusFailedSafe TaskStatus = "failed_safe"
)

// TaskCondition gates whether a task runs based on an upstream decision's
// observed outcome.
type TaskCondition struct {
	DecisionNodeID  string `json:"decision_node_id" yaml:"decision_node_id"`
	RequiredOutcome string `json:"required_outcome" yaml:"required_outcome"`
}

// SandboxConfig carries per-task sandbox budgets, overriding routing defaults.
type SandboxConfig struct {
	TimeoutMs   int `json:"timeout_ms,omitempty" yaml:"timeout_ms,omitempty"`
	MemoryLimit int `json:"memory_limit_mb,omitempty" yaml:"memory_limit_mb,omitempty"`
}

// Task is a single node of an executable DAG. A task is immutable once the
// layer containing it begins executing.
type Task struct {
	ID            string         `json:"id" yaml:"id"`
	Kind          TaskKind       `json:"kind" yaml:"kind"`
	Tool          string         `json:"tool,omitempty" yaml:"tool,omitempty"`
	CapabilityID  string         `json:"capability_id,omitempty" yaml:"capability_id,omitempty"`
	Code          string         `json:"code,omitempty" yaml:"code,omitempty"`
	Arguments     map[string]any `json:"arguments" yaml:"arguments"`
	DependsOn     []string       `json:"depends_on" yaml:"depends_on"`
	SideEffects   bool           `json:"side_effects,omitempty" yaml:"side_effects,omitempty"`
	Condition     *TaskCondition `json:"condition,omitempty" yaml:"condition,omitempty"`
	SandboxConfig *SandboxConfig `json:"sandbox_config,omitempty" yaml:"sandbox_config,omitempty"`
}

// TaskResult records the outcome of exactly one task attempt. Results are
// appended to workflow state and never mutated afterward.
type TaskResult struct {
	TaskID    string     `json:"task_id"`
	Status    TaskStatus `json:"status"`
	Output    any        `json:"output,omitempty"`
	Error     string     `json:"error,omitempty"`
	ElapsedMs int64      `json:"elapsed_ms,omitempty"`
}

// Decision records the observed outcome of a decision node.
type Decision struct {
	DecisionID string `json:"decision_id"`
	Outcome    string `json:"outcome"`
}

// DAGStructure is an ordered set of tasks with id uniqueness. Every
// dependsOn entry must reference an id present in the same structure; this
// is validated at conversion/load time, not re-validated per layer.
type DAGStructure struct {
	Tasks []Task `json:"tasks" yaml:"tasks"`
}

// Validate checks id uniqueness and dependency closure.
func (d *DAGStructure) Validate() error {
	if len(d.Tasks) == 0 {
		return NewError(ErrInvalidStructure, "dag has no tasks")
	}

	ids := make(map[string]bool, len(d.Tasks))
	for _, t := range d.Tasks {
		if t.ID == "" {
			return NewError(ErrInvalidStructure, "task id is required")
		}
		if ids[t.ID] {
			return NewErrorf(ErrInvalidStructure, "duplicate task id: %s", t.ID)
		}
		ids[t.ID] = true
	}

	for _, t := range d.Tasks {
		for _, dep := range t.DependsOn {
			if !ids[dep] {
				return NewErrorf(ErrInvalidStructure,
					"task %s depends on unknown task %s", t.ID, dep)
			}
		}
	}

	return nil
}

// TaskByID returns the task with the given id.
func (d *DAGStructure) TaskByID(id string) (*Task, bool) {
	for i := range d.Tasks {
		if d.Tasks[i].ID == id {
			return &d.Tasks[i], true
		}
	}
	return nil, false
}

// String implements fmt.Stringer for log output.
func (t *Task) String() string {
	return fmt.Sprintf("%s(%s)", t.ID, t.Kind)
}
