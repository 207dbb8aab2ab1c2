package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/xeipuuv/gojsonschema"

	"github.com/quantfold/finagent/components"
)

// Invoker resolves model-emitted tool calls and executes them. Every
// fault (unknown name, bad arguments, handler error, panic, timeout)
// is folded into the ToolResult instead of escaping as an error: one
// failing tool must never terminate the whole run.
type Invoker struct {
	registry *Registry
	timeout  time.Duration
	logger   zerolog.Logger

	startHook func(ctx context.Context, call components.ToolCall)
	endHook   func(ctx context.Context, call components.ToolCall, result components.ToolResult)
}

// InvokerOption configures an Invoker.
type InvokerOption func(*Invoker)

// WithTimeout bounds each tool execution. A timeout surfaces as a
// tool_execution_error, not a run abort.
func WithTimeout(d time.Duration) InvokerOption {
	return func(inv *Invoker) {
		inv.timeout = d
	}
}

// WithLogger sets the invoker logger.
func WithLogger(logger zerolog.Logger) InvokerOption {
	return func(inv *Invoker) {
		inv.logger = logger
	}
}

// WithStartHook registers a callback fired before each execution.
func WithStartHook(fn func(ctx context.Context, call components.ToolCall)) InvokerOption {
	return func(inv *Invoker) {
		inv.startHook = fn
	}
}

// WithEndHook registers a callback fired after each execution.
func WithEndHook(fn func(ctx context.Context, call components.ToolCall, result components.ToolResult)) InvokerOption {
	return func(inv *Invoker) {
		inv.endHook = fn
	}
}

// NewInvoker returns an Invoker reading from the given registry.
func NewInvoker(registry *Registry, opts ...InvokerOption) *Invoker {
	inv := &Invoker{
		registry: registry,
		timeout:  30 * time.Second,
		logger:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(inv)
	}
	return inv
}

// Invoke executes one tool call and returns its result. It never
// returns an error and never panics past this boundary.
func (inv *Invoker) Invoke(ctx context.Context, call components.ToolCall) components.ToolResult {
	if fn := inv.startHook; fn != nil {
		fn(ctx, call)
	}
	result := inv.invoke(ctx, call)
	if result.Failed() {
		inv.logger.Warn().
			Str("tool", call.Name).
			Str("call_id", call.ID).
			Str("failure", result.Failure).
			Str("error", result.Error).
			Msg("tool call failed")
	} else {
		inv.logger.Debug().
			Str("tool", call.Name).
			Str("call_id", call.ID).
			Msg("tool call succeeded")
	}
	if fn := inv.endHook; fn != nil {
		fn(ctx, call, result)
	}
	return result
}

func (inv *Invoker) invoke(ctx context.Context, call components.ToolCall) (result components.ToolResult) {
	result = components.ToolResult{ID: call.ID, Name: call.Name}

	entry, err := inv.registry.Resolve(call.Name)
	if err != nil {
		result.Failure = components.FailureUnknownTool
		result.Error = err.Error()
		return result
	}

	args := strings.TrimSpace(call.Arguments)
	if args == "" {
		args = "{}"
	}
	if reason, ok := validateArguments(entry.Spec, args); !ok {
		result.Failure = components.FailureInvalidArguments
		result.Error = reason
		return result
	}

	if inv.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, inv.timeout)
		defer cancel()
	}

	// a panicking handler is a collaborator fault, not a run abort
	defer func() {
		if rec := recover(); rec != nil {
			result.Content = ""
			result.Failure = components.FailureToolExecution
			result.Error = fmt.Sprintf("tool %q panicked: %v", call.Name, rec)
		}
	}()

	payload, err := entry.Handler(ctx, json.RawMessage(args))
	if err != nil {
		var invalidErr InvalidArgumentsError
		if errors.As(err, &invalidErr) {
			result.Failure = components.FailureInvalidArguments
		} else {
			result.Failure = components.FailureToolExecution
		}
		result.Error = err.Error()
		return result
	}

	bs, err := json.Marshal(payload)
	if err != nil {
		result.Failure = components.FailureToolExecution
		result.Error = fmt.Sprintf("tool %q returned unserializable payload: %v", call.Name, err)
		return result
	}
	result.Content = string(bs)
	return result
}

// InvokeAll executes a batch of independent tool calls concurrently.
// Results are written into a pre-sized slice indexed by request
// position, so the returned order always equals the request order no
// matter which execution finishes first.
func (inv *Invoker) InvokeAll(ctx context.Context, calls []components.ToolCall) []components.ToolResult {
	results := make([]components.ToolResult, len(calls))
	if len(calls) == 0 {
		return results
	}
	var wg sync.WaitGroup
	wg.Add(len(calls))
	for i, call := range calls {
		go func(i int, call components.ToolCall) {
			defer wg.Done()
			results[i] = inv.Invoke(ctx, call)
		}(i, call)
	}
	wg.Wait()
	return results
}

// validateArguments checks raw arguments against the spec's JSON Schema
// before any handler code runs.
func validateArguments(spec Spec, args string) (string, bool) {
	schemaLoader := gojsonschema.NewGoLoader(spec.JSONSchema())
	docLoader := gojsonschema.NewStringLoader(args)
	res, err := gojsonschema.Validate(schemaLoader, docLoader)
	if err != nil {
		return fmt.Sprintf("malformed arguments: %v", err), false
	}
	if res.Valid() {
		return "", true
	}
	reasons := make([]string, 0, len(res.Errors()))
	for _, desc := range res.Errors() {
		reasons = append(reasons, desc.String())
	}
	return strings.Join(reasons, "; "), false
}
