package types

import "fmt"

// ErrorCode represents a unified error code across the engine.
type ErrorCode string

// Structural error codes. These are fatal to the current operation and are
// surfaced verbatim to the caller.
const (
	ErrCycleDetected      ErrorCode = "CYCLE_DETECTED"
	ErrNoExecutableNodes  ErrorCode = "NO_EXECUTABLE_NODES"
	ErrInvalidStructure   ErrorCode = "INVALID_STRUCTURE"
	ErrDependencyNotFound ErrorCode = "DEPENDENCY_NOT_FOUND"
	ErrDependencyFailed   ErrorCode = "DEPENDENCY_FAILED"
	ErrCheckpointNotFound ErrorCode = "CHECKPOINT_NOT_FOUND"
	ErrWorkflowNotFound   ErrorCode = "WORKFLOW_NOT_FOUND"
	ErrInvalidCommand     ErrorCode = "INVALID_COMMAND"
	ErrInvalidState       ErrorCode = "INVALID_STATE"
)

// Routing and execution error codes.
const (
	ErrCapabilityNotFound    ErrorCode = "CAPABILITY_NOT_FOUND"
	ErrToolNotFound          ErrorCode = "TOOL_NOT_FOUND"
	ErrSandboxFailure        ErrorCode = "SANDBOX_FAILURE"
	ErrExecutorNotConfigured ErrorCode = "EXECUTOR_NOT_CONFIGURED"
	ErrExecutionTimeout      ErrorCode = "EXECUTION_TIMEOUT"
)

// Infrastructure error codes.
const (
	ErrQueueClosed  ErrorCode = "QUEUE_CLOSED"
	ErrStoreFailure ErrorCode = "STORE_FAILURE"
	ErrAborted      ErrorCode = "ABORTED"
)

// Error represents a structured error with code, message, and metadata.
type Error struct {
	Code      ErrorCode `json:"code"`
	Message   string    `json:"message"`
	Retryable bool      `json:"retryable"`
	TaskID    string    `json:"task_id,omitempty"`
	Cause     error     `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// NewError creates a new Error with the given code and message.
func NewError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// NewErrorf creates a new Error with a formatted message.
func NewErrorf(code ErrorCode, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// WithCause adds a cause to the error.
func (e *Error) WithCause(cause error) *Error {
	e.Cause = cause
	return e
}

// WithRetryable marks the error as retryable.
func (e *Error) WithRetryable(retryable bool) *Error {
	e.Retryable = retryable
	return e
}

// WithTaskID attaches the offending task id.
func (e *Error) WithTaskID(id string) *Error {
	e.TaskID = id
	return e
}

// IsRetryable checks if an error is retryable.
func IsRetryable(err error) bool {
	if e, ok := err.(*Error); ok {
		return e.Retryable
	}
	return false
}

// GetErrorCode extracts the error code from an error.
func GetErrorCode(err error) ErrorCode {
	if e, ok := err.(*Error); ok {
		return e.Code
	}
	return ""
}
