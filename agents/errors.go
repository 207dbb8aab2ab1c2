package agents

import "fmt"

// ModelInvocationError wraps a provider failure. It is fatal to the run:
// the conversation history stays intact up to the failed call so the
// caller can retry.
type ModelInvocationError struct {
	Provider string
	Err      error
}

func (e ModelInvocationError) Error() string {
	return fmt.Sprintf("model invocation failed (provider %s): %v", e.Provider, e.Err)
}

func (e ModelInvocationError) Unwrap() error {
	return e.Err
}

// MaxTurnsExceededError reports a run that never produced a final answer
// within the configured turn budget.
type MaxTurnsExceededError struct {
	MaxTurns int
}

func (e MaxTurnsExceededError) Error() string {
	return fmt.Sprintf("run exceeded the maximum of %d model turns without a final answer", e.MaxTurns)
}
