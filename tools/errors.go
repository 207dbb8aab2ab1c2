package tools

import "fmt"

// DuplicateToolError is returned by Registry.Register when the tool name
// is already taken.
type DuplicateToolError struct {
	Name string
}

func (e DuplicateToolError) Error() string {
	return fmt.Sprintf("tool %q already registered", e.Name)
}

// UnknownToolError is returned by Registry.Resolve for names that were
// never registered. The invoker folds it into an unknown_tool result so
// a hallucinated tool name never crashes a run.
type UnknownToolError struct {
	Name string
}

func (e UnknownToolError) Error() string {
	return fmt.Sprintf("unknown tool %q", e.Name)
}

// InvalidArgumentsError marks arguments that do not satisfy a tool's
// schema or domain constraints (missing required parameter, wrong type,
// a zero divisor in a ratio). Handlers return it to signal that no work
// was attempted.
type InvalidArgumentsError struct {
	Tool   string
	Reason string
}

func (e InvalidArgumentsError) Error() string {
	return fmt.Sprintf("invalid arguments for tool %q: %s", e.Tool, e.Reason)
}

// ToolExecutionError wraps a collaborator fault inside a handler:
// network failure, non-2xx response, decode failure, timeout.
type ToolExecutionError struct {
	Tool string
	Err  error
}

func (e ToolExecutionError) Error() string {
	return fmt.Sprintf("tool %q execution failed: %v", e.Tool, e.Err)
}

func (e ToolExecutionError) Unwrap() error {
	return e.Err
}
