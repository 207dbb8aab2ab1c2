package components

import "encoding/json"

// ToolCall is a model-emitted request to execute a named tool. Arguments
// arrive as raw JSON and are untrusted until validated.
type ToolCall struct {
	ID        string `json:"id,omitempty"`
	Name      string `json:"name,omitempty"`
	Arguments string `json:"arguments,omitempty"`
}

// FailureKind tags the class of a tool failure surfaced to the model.
type FailureKind = string

const (
	FailureNone             FailureKind = ""
	FailureUnknownTool      FailureKind = "unknown_tool"
	FailureInvalidArguments FailureKind = "invalid_arguments"
	FailureToolExecution    FailureKind = "tool_execution_error"
)

// ToolResult is the invoker's outcome for one tool call: either a JSON
// success payload or a tagged failure. Results never abort a run; they
// are appended to the conversation as tool-role messages.
type ToolResult struct {
	ID      string      `json:"id,omitempty"`
	Name    string      `json:"name,omitempty"`
	Content string      `json:"content,omitempty"`
	Failure FailureKind `json:"failure,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// Failed reports whether the result carries a failure.
func (r ToolResult) Failed() bool {
	return r.Failure != FailureNone
}

// ModelContent renders the result the way it is fed back to the model:
// the success payload verbatim, or a small JSON error descriptor.
func (r ToolResult) ModelContent() string {
	if !r.Failed() {
		return r.Content
	}
	bs, _ := json.Marshal(map[string]string{
		"error":   r.Failure,
		"message": r.Error,
	})
	return string(bs)
}
