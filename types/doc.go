/*
Package types defines the shared data model of the flowgrid engine.

# Core types

  - Task / TaskResult / TaskCondition — executable DAG nodes and their
    immutable per-attempt outcomes
  - DAGStructure — ordered, id-unique task set with dependency closure
    validation
  - Command — tagged union of control messages (continue, abort,
    inject_tasks, replan_dag, skip_layer, modify_args, checkpoint_response,
    approval_response) with structural validation
  - WorkflowState — the authoritative record of a running workflow, with
    invariants re-checked after every reducer update
  - Error / ErrorCode — structured errors surfaced verbatim to callers

# Collaborator contracts

  - SandboxExecutor — black-box code-execution runtime
  - CapabilityStore — lookup of stored, reusable code patterns
  - ToolClient — external tool invocation
*/
package types
