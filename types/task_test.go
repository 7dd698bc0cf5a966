package types

import "testing"

func TestDAGStructure_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		dag     DAGStructure
		wantErr ErrorCode
	}{
		{
			name:    "empty",
			dag:     DAGStructure{},
			wantErr: ErrInvalidStructure,
		},
		{
			name: "valid linear",
			dag: DAGStructure{Tasks: []Task{
				{ID: "a", Kind: TaskKindMCPTool, Tool: "fs:read"},
				{ID: "b", Kind: TaskKindCodeExecution, DependsOn: []string{"a"}},
			}},
		},
		{
			name: "missing id",
			dag: DAGStructure{Tasks: []Task{
				{Kind: TaskKindMCPTool},
			}},
			wantErr: ErrInvalidStructure,
		},
		{
			name: "duplicate id",
			dag: DAGStructure{Tasks: []Task{
				{ID: "a", Kind: TaskKindMCPTool},
				{ID: "a", Kind: TaskKindMCPTool},
			}},
			wantErr: ErrInvalidStructure,
		},
		{
			name: "dangling dependency",
			dag: DAGStructure{Tasks: []Task{
				{ID: "a", Kind: TaskKindMCPTool, DependsOn: []string{"ghost"}},
			}},
			wantErr: ErrInvalidStructure,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := tt.dag.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if GetErrorCode(err) != tt.wantErr {
				t.Fatalf("expected %s, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestDAGStructure_TaskByID(t *testing.T) {
	t.Parallel()

	dag := DAGStructure{Tasks: []Task{
		{ID: "a", Kind: TaskKindMCPTool},
		{ID: "b", Kind: TaskKindCapability, CapabilityID: "cap-1"},
	}}

	task, ok := dag.TaskByID("b")
	if !ok || task.CapabilityID != "cap-1" {
		t.Fatalf("expected capability task b, got %+v ok=%v", task, ok)
	}
	if _, ok := dag.TaskByID("ghost"); ok {
		t.Fatalf("expected miss for unknown id")
	}
}

func TestWorkflowState_Invariants(t *testing.T) {
	t.Parallel()

	s := NewWorkflowState("wf-1")
	if err := s.CheckInvariants(); err != nil {
		t.Fatalf("fresh state must satisfy invariants: %v", err)
	}

	s.WorkflowID = ""
	if GetErrorCode(s.CheckInvariants()) != ErrInvalidState {
		t.Fatalf("empty workflow id must violate invariants")
	}

	s = NewWorkflowState("wf-1")
	s.CurrentLayer = -1
	if GetErrorCode(s.CheckInvariants()) != ErrInvalidState {
		t.Fatalf("negative layer must violate invariants")
	}

	s = NewWorkflowState("wf-1")
	s.Decisions = []Decision{{DecisionID: "d", Outcome: "yes"}}
	if GetErrorCode(s.CheckInvariants()) != ErrInvalidState {
		t.Fatalf("decisions > tasks must violate invariants")
	}
}

func TestWorkflowState_Lookups(t *testing.T) {
	t.Parallel()

	s := NewWorkflowState("wf-1")
	s.Tasks = []TaskResult{
		{TaskID: "a", Status: TaskStatusSuccess, Output: 42},
		{TaskID: "d", Status: TaskStatusSuccess, Output: "yes"},
	}
	s.Decisions = []Decision{{DecisionID: "d", Outcome: "yes"}}

	res, ok := s.ResultFor("a")
	if !ok || res.Output != 42 {
		t.Fatalf("expected result for a, got %+v", res)
	}
	outcome, ok := s.OutcomeFor("d")
	if !ok || outcome != "yes" {
		t.Fatalf("expected outcome yes, got %q", outcome)
	}
}
