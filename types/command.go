package types

import "encoding/json"

// CommandType discriminates the control-message union.
type CommandType string

const (
	CommandContinue           CommandType = "continue"
	CommandAbort              CommandType = "abort"
	CommandInjectTasks        CommandType = "inject_tasks"
	CommandReplanDAG          CommandType = "replan_dag"
	CommandSkipLayer          CommandType = "skip_layer"
	CommandModifyArgs         CommandType = "modify_args"
	CommandCheckpointResponse CommandType = "checkpoint_response"
	CommandApprovalResponse   CommandType = "approval_response"
)

// Command is a control message injected into a running workflow between
// layers. Validity is structural and checked before enqueue; the zero fields
// of unused variants stay empty.
type Command struct {
	Type CommandType `json:"type"`

	// abort
	Reason string `json:"reason,omitempty"`

	// inject_tasks / replan_dag
	Tasks []Task `json:"tasks,omitempty"`

	// modify_args
	TaskID    string         `json:"task_id,omitempty"`
	Arguments map[string]any `json:"arguments,omitempty"`

	// checkpoint_response / approval_response
	CheckpointID string `json:"checkpoint_id,omitempty"`
	Approved     *bool  `json:"approved,omitempty"`
}

// Validate checks that the command carries the fields its variant requires.
func (c *Command) Validate() error {
	switch c.Type {
	case CommandContinue, CommandSkipLayer:
		return nil
	case CommandAbort:
		if c.Reason == "" {
			return NewError(ErrInvalidCommand, "abort command requires reason")
		}
	case CommandInjectTasks, CommandReplanDAG:
		if len(c.Tasks) == 0 {
			return NewErrorf(ErrInvalidCommand, "%s command requires tasks", c.Type)
		}
	case CommandModifyArgs:
		if c.TaskID == "" {
			return NewError(ErrInvalidCommand, "modify_args command requires task_id")
		}
		if c.Arguments == nil {
			return NewError(ErrInvalidCommand, "modify_args command requires arguments")
		}
	case CommandCheckpointResponse:
		if c.CheckpointID == "" {
			return NewError(ErrInvalidCommand, "checkpoint_response command requires checkpoint_id")
		}
	case CommandApprovalResponse:
		if c.CheckpointID == "" {
			return NewError(ErrInvalidCommand, "approval_response command requires checkpoint_id")
		}
		if c.Approved == nil {
			return NewError(ErrInvalidCommand, "approval_response command requires approved")
		}
	default:
		return NewErrorf(ErrInvalidCommand, "unknown command type: %s", c.Type)
	}
	return nil
}

// ParseCommand decodes a wire-format command and validates its shape.
func ParseCommand(data []byte) (*Command, error) {
	var cmd Command
	if err := json.Unmarshal(data, &cmd); err != nil {
		return nil, NewError(ErrInvalidCommand, "malformed command payload").WithCause(err)
	}
	if err := cmd.Validate(); err != nil {
		return nil, err
	}
	return &cmd, nil
}

// Bool returns a pointer to b, for building approval commands.
func Bool(b bool) *bool { return &b }
