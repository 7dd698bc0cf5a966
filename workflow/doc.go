/*
Package workflow implements the flowgrid execution engine.

# Overview

The engine runs a validated DAG of tasks layer by layer: each layer is the
set of tasks whose dependencies are all settled, executed in parallel with a
bounded worker fan-out. Between layers the scheduler drains its command
queue, so callers can steer a running workflow (abort, inject tasks, replan,
skip, adjust arguments, answer approval requests) without racing the
executing tasks.

# Core types

  - Scheduler        — resumable layer-by-layer state machine (Step / Run /
    ResumeFromCheckpoint)
  - CommandQueue     — validated FIFO control channel with stats
  - AsyncQueue[T]    — generic blocking FIFO used underneath
  - TaskRouter       — versioned task classification and safe-to-fail policy
  - TaskExecutor     — per-kind execution (CodeExecutor, CapabilityExecutor,
    ToolInvoker)
  - Converter        — static-analysis structure to executable DAG mapping
  - Reducer[T]       — state merge strategies behind UpdateState
  - CheckpointStore  — durable snapshot persistence for crash-safe resume

# Execution model

A failed task with side effects halts its dependents; a failed pure
computation is downgraded to failed_safe and the workflow continues. When no
task is eligible and work remains, the scheduler distinguishes tasks blocked
by failed dependencies (aborted with partial results) from a genuine
dependency cycle (an error).
*/
package workflow
