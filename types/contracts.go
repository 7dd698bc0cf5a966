package types

import "context"

// SandboxError describes a typed failure reported by the sandbox runtime.
type SandboxError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// SandboxResult is the outcome of one sandboxed execution.
type SandboxResult struct {
	Success   bool          `json:"success"`
	Result    any           `json:"result,omitempty"`
	Error     *SandboxError `json:"error,omitempty"`
	ElapsedMs int64         `json:"elapsed_ms"`
}

// SandboxExecutor is the consumed contract of the code-execution runtime.
// The engine treats it as a black box.
type SandboxExecutor interface {
	Execute(ctx context.Context, code string, execCtx map[string]any) (*SandboxResult, error)
}

// PermissionSet is a capability's stored permission profile.
type PermissionSet struct {
	Network    bool     `json:"network"`
	Filesystem bool     `json:"filesystem"`
	Subprocess bool     `json:"subprocess"`
	AllowHosts []string `json:"allow_hosts,omitempty"`
}

// RestrictedPermissions is the most restrictive profile, used when no stored
// profile can be resolved.
func RestrictedPermissions() PermissionSet {
	return PermissionSet{}
}

// Capability is a stored, reusable code pattern invocable like a task.
type Capability struct {
	ID            string        `json:"id"`
	CodeSnippet   string        `json:"code_snippet"`
	PermissionSet PermissionSet `json:"permission_set"`
}

// CapabilityStore is the consumed contract of the capability subsystem.
// FindByID returns (nil, nil) when the id is unknown.
type CapabilityStore interface {
	FindByID(ctx context.Context, id string) (*Capability, error)
}

// ToolClient executes one action against an external tool server.
type ToolClient interface {
	CallTool(ctx context.Context, action string, args map[string]any) (any, error)
}
