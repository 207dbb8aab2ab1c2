// Package llm abstracts the model provider: an ordered message history
// plus the declared tool set go in, exactly one assistant completion
// comes out. Provider specifics (prompt formats, wire encodings) stay
// inside the adapter packages under providers/.
package llm

import (
	"github.com/quantfold/finagent/components"
	"github.com/quantfold/finagent/tools"
)

// Request is one blocking chat exchange with a provider.
type Request struct {
	Model       string
	Temperature float32
	MaxTokens   int
	// Messages is the full ordered conversation history
	Messages []components.Message
	// Tools is the declared tool set the model may request
	Tools []tools.Spec
}

// CompletionKind tags the shape of an assistant completion.
type CompletionKind int

const (
	// KindAnswer is a final textual answer
	KindAnswer CompletionKind = iota
	// KindToolCalls is a request to execute one or more tools
	KindToolCalls
)

// Completion is the provider's assistant reply: an answer or a batch of
// tool-call requests.
type Completion struct {
	ID      string
	Model   string
	Content string
	// ToolCalls in the order the model emitted them
	ToolCalls []components.ToolCall
	Usage     Usage
}

// Kind reports whether the completion is a final answer or a tool-call
// request batch.
func (c *Completion) Kind() CompletionKind {
	if len(c.ToolCalls) > 0 {
		return KindToolCalls
	}
	return KindAnswer
}

// Usage is the provider-reported token accounting.
type Usage struct {
	InputTokens  int64 `json:"input_tokens,omitempty"`
	OutputTokens int64 `json:"output_tokens,omitempty"`
}

// Merge accumulates usage across the turns of a run.
func (u *Usage) Merge(v Usage) {
	u.InputTokens += v.InputTokens
	u.OutputTokens += v.OutputTokens
}
