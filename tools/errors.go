package tools

import (
	"encoding/json"
	"fmt"
)

// Machine-readable failure codes carried in ToolError.
const (
	CodeInvalidArgs = "ERR_INVALID_ARGS"
	CodeEval        = "ERR_EVAL"
	CodeUnknownTool = "ERR_UNKNOWN_TOOL"
	CodeTimeout     = "ERR_TIMEOUT"
	CodeCancelled   = "ERR_CANCELLED"
	CodePanic       = "ERR_PANIC"
	CodeRemote      = "ERR_REMOTE"
	CodeToolFailed  = "ERR_TOOL"
)

// ToolError is a machine-readable error body surfaced back to the planner as JSON.
type ToolError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error returns a compact, single-line JSON string to keep tool results small.
func (e ToolError) Error() string {
	b, _ := json.Marshal(e)
	return string(b)
}

// DuplicateToolError is returned when a name is registered twice.
type DuplicateToolError struct {
	Name string
}

func (e *DuplicateToolError) Error() string {
	return fmt.Sprintf("tool already registered: %s", e.Name)
}

// UnknownToolError is returned when resolving a name nobody registered.
type UnknownToolError struct {
	Name string
}

func (e *UnknownToolError) Error() string {
	return fmt.Sprintf("unknown tool: %s", e.Name)
}
