package main

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"time"

	"go.uber.org/zap"

	"github.com/Casys-AI/flowgrid/types"
)

// ShellToolClient serves the built-in "shell" tool server. It supports one
// action, "run", executing a command line and returning its output. Tasks
// invoking it must be marked side-effecting unless the command is known
// pure.
type ShellToolClient struct {
	timeout time.Duration
	logger  *zap.Logger
}

// NewShellToolClient creates a shell client with a per-invocation timeout.
func NewShellToolClient(timeout time.Duration, logger *zap.Logger) *ShellToolClient {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ShellToolClient{
		timeout: timeout,
		logger:  logger.With(zap.String("component", "shell_tool")),
	}
}

// CallTool implements the tool client contract.
func (c *ShellToolClient) CallTool(ctx context.Context, action string, args map[string]any) (any, error) {
	if action != "run" {
		return nil, types.NewErrorf(types.ErrToolNotFound, "shell server has no action %q", action)
	}

	command, _ := args["command"].(string)
	if command == "" {
		return nil, types.NewError(types.ErrInvalidCommand, "shell:run requires a command argument")
	}

	runCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, "sh", "-c", command)
	if dir, ok := args["dir"].(string); ok && dir != "" {
		cmd.Dir = dir
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	c.logger.Debug("running shell command", zap.String("command", command))

	err := cmd.Run()
	result := map[string]any{
		"stdout":    stdout.String(),
		"stderr":    stderr.String(),
		"exit_code": cmd.ProcessState.ExitCode(),
	}
	if err != nil {
		if runCtx.Err() == context.DeadlineExceeded {
			return nil, types.NewErrorf(types.ErrExecutionTimeout,
				"shell command exceeded %s", c.timeout)
		}
		return nil, fmt.Errorf("shell command failed (exit %d): %s",
			cmd.ProcessState.ExitCode(), stderr.String())
	}
	return result, nil
}
