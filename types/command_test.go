package types

import "testing"

func TestCommand_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		cmd   Command
		valid bool
	}{
		{"continue", Command{Type: CommandContinue}, true},
		{"skip layer", Command{Type: CommandSkipLayer}, true},
		{"abort with reason", Command{Type: CommandAbort, Reason: "operator stop"}, true},
		{"abort without reason", Command{Type: CommandAbort}, false},
		{"inject with tasks", Command{Type: CommandInjectTasks, Tasks: []Task{{ID: "t"}}}, true},
		{"inject without tasks", Command{Type: CommandInjectTasks}, false},
		{"replan with tasks", Command{Type: CommandReplanDAG, Tasks: []Task{{ID: "t"}}}, true},
		{"replan without tasks", Command{Type: CommandReplanDAG}, false},
		{"modify args", Command{Type: CommandModifyArgs, TaskID: "t", Arguments: map[string]any{"k": 1}}, true},
		{"modify args missing task", Command{Type: CommandModifyArgs, Arguments: map[string]any{}}, false},
		{"modify args missing arguments", Command{Type: CommandModifyArgs, TaskID: "t"}, false},
		{"checkpoint response", Command{Type: CommandCheckpointResponse, CheckpointID: "cp"}, true},
		{"checkpoint response missing id", Command{Type: CommandCheckpointResponse}, false},
		{"approval", Command{Type: CommandApprovalResponse, CheckpointID: "cp", Approved: Bool(true)}, true},
		{"approval missing approved", Command{Type: CommandApprovalResponse, CheckpointID: "cp"}, false},
		{"approval missing checkpoint", Command{Type: CommandApprovalResponse, Approved: Bool(false)}, false},
		{"unknown type", Command{Type: "teleport"}, false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := tt.cmd.Validate()
			if tt.valid && err != nil {
				t.Fatalf("expected valid, got %v", err)
			}
			if !tt.valid {
				if GetErrorCode(err) != ErrInvalidCommand {
					t.Fatalf("expected INVALID_COMMAND, got %v", err)
				}
			}
		})
	}
}

func TestParseCommand(t *testing.T) {
	t.Parallel()

	cmd, err := ParseCommand([]byte(`{"type":"abort","reason":"done testing"}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cmd.Type != CommandAbort || cmd.Reason != "done testing" {
		t.Fatalf("unexpected command: %+v", cmd)
	}

	if _, err := ParseCommand([]byte(`{`)); GetErrorCode(err) != ErrInvalidCommand {
		t.Fatalf("malformed payload must be INVALID_COMMAND, got %v", err)
	}
	if _, err := ParseCommand([]byte(`{"type":"abort"}`)); GetErrorCode(err) != ErrInvalidCommand {
		t.Fatalf("structurally invalid command must be rejected, got %v", err)
	}
}
