package types

import "time"

// Message is an agent- or human-visible note attached to a workflow run.
type Message struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp,omitempty"`
}

// WorkflowState is the authoritative in-memory record of a running workflow.
// The scheduler owns it exclusively for the duration of a run; updates go
// through the state reducers, never by direct field mutation.
type WorkflowState struct {
	WorkflowID   string         `json:"workflow_id"`
	CurrentLayer int            `json:"current_layer"`
	Messages     []Message      `json:"messages"`
	Tasks        []TaskResult   `json:"tasks"`
	Decisions    []Decision     `json:"decisions"`
	Context      map[string]any `json:"context"`
}

// NewWorkflowState creates an empty state for the given workflow id.
func NewWorkflowState(workflowID string) *WorkflowState {
	return &WorkflowState{
		WorkflowID: workflowID,
		Context:    make(map[string]any),
	}
}

// CheckInvariants verifies the structural invariants that must hold after
// every state update.
func (s *WorkflowState) CheckInvariants() error {
	if s.WorkflowID == "" {
		return NewError(ErrInvalidState, "workflow id must not be empty")
	}
	if s.CurrentLayer < 0 {
		return NewErrorf(ErrInvalidState, "current layer must be >= 0, got %d", s.CurrentLayer)
	}
	if len(s.Tasks) < len(s.Decisions) {
		return NewErrorf(ErrInvalidState,
			"decisions (%d) cannot outnumber task results (%d)",
			len(s.Decisions), len(s.Tasks))
	}
	return nil
}

// ResultFor returns the recorded result for a task id, if any.
func (s *WorkflowState) ResultFor(taskID string) (*TaskResult, bool) {
	for i := range s.Tasks {
		if s.Tasks[i].TaskID == taskID {
			return &s.Tasks[i], true
		}
	}
	return nil, false
}

// OutcomeFor returns the recorded outcome for a decision node, if any.
func (s *WorkflowState) OutcomeFor(decisionID string) (string, bool) {
	for i := range s.Decisions {
		if s.Decisions[i].DecisionID == decisionID {
			return s.Decisions[i].Outcome, true
		}
	}
	return "", false
}

// Clone returns a deep-enough copy for all-or-nothing update semantics:
// slices are copied, context is shallow-merged on write anyway.
func (s *WorkflowState) Clone() *WorkflowState {
	dup := &WorkflowState{
		WorkflowID:   s.WorkflowID,
		CurrentLayer: s.CurrentLayer,
		Messages:     make([]Message, len(s.Messages)),
		Tasks:        make([]TaskResult, len(s.Tasks)),
		Decisions:    make([]Decision, len(s.Decisions)),
		Context:      make(map[string]any, len(s.Context)),
	}
	copy(dup.Messages, s.Messages)
	copy(dup.Tasks, s.Tasks)
	copy(dup.Decisions, s.Decisions)
	for k, v := range s.Context {
		dup.Context[k] = v
	}
	return dup
}
