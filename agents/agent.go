// Package agents drives the tool-augmented chat loop: it sends the
// conversation to the model, executes the tool calls the model requests
// and feeds the results back until the model produces a final answer.
package agents

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/quantfold/finagent/components"
	"github.com/quantfold/finagent/components/llm"
	"github.com/quantfold/finagent/components/systemprompt"
	"github.com/quantfold/finagent/components/systemprompt/simple"
	"github.com/quantfold/finagent/schema"
	"github.com/quantfold/finagent/tools"
)

// RunState is the phase an orchestration run is in.
type RunState = string

const (
	// StateAwaitingModel: the next step is a model call
	StateAwaitingModel RunState = "awaiting_model"
	// StateExecutingTools: the model requested tools and they are running
	StateExecutingTools RunState = "executing_tools"
	// StateDone: the run produced a final answer
	StateDone RunState = "done"
)

// ToolPolicy controls how many model passes may follow tool execution.
type ToolPolicy int

const (
	// PolicyLoop keeps alternating model calls and tool execution until
	// the model answers without requesting tools.
	PolicyLoop ToolPolicy = iota
	// PolicySinglePass allows exactly one model pass after the first
	// round of tool execution. Tool calls emitted on that pass are
	// ignored and its text becomes the final answer.
	PolicySinglePass
)

const defaultMaxTurns = 10

// Config represents general agent configuration
type Config struct {
	// provider Client for interacting with the language model
	provider llm.Provider
	// registry holds the tools declared to the model
	registry *tools.Registry
	// invoker executes the tool calls the model emits
	invoker *tools.Invoker
	//	systemPromptGenerator Component for generating system prompts.
	systemPromptGenerator systemprompt.Generator
	// model llm model
	model string
	// temperature Temperature for response generation, typically ranging from 0 to 1.
	temperature float32
	// maxTokens Maximum number of tokens allowed in the response
	maxTokens int
	// maxTurns caps the number of model calls per run
	maxTurns int
	// policy decides loop-until-done vs a single post-tool pass
	policy ToolPolicy
	// tokenCounter estimates outgoing prompt sizes for logging
	tokenCounter components.TokenCounter
	logger       zerolog.Logger
	// name is Agent name presentation
	name string
}

// RunResult is the outcome of one completed run.
type RunResult struct {
	// RunID identifies the run in logs
	RunID string
	// Answer is the model's final text
	Answer string
	// State is the terminal state, always StateDone for a returned result
	State RunState
	// Turns is the number of model calls the run took
	Turns int
	// Usage is the accumulated token accounting across all model calls
	Usage llm.Usage
}

// Agent owns one conversation loop against a provider and a tool set.
// It is safe to share across runs but each Conversation belongs to a
// single run at a time.
type Agent struct {
	Config
	startHook func(ctx context.Context, a *Agent, runID string, input string)
	endHook   func(ctx context.Context, a *Agent, runID string, result *RunResult)
	errorHook func(ctx context.Context, a *Agent, runID string, err error)
}

// New initializes an Agent. The provider and registry are required;
// everything else has defaults.
func New(options ...Option) *Agent {
	ret := new(Agent)
	ret.logger = zerolog.Nop()
	for _, opt := range options {
		opt(&ret.Config)
	}
	if ret.systemPromptGenerator == nil {
		ret.systemPromptGenerator = simple.New("You are a helpful assistant.")
	}
	if ret.invoker == nil && ret.registry != nil {
		ret.invoker = tools.NewInvoker(ret.registry)
	}
	if ret.maxTurns <= 0 {
		ret.maxTurns = defaultMaxTurns
	}
	if ret.tokenCounter == nil {
		ret.tokenCounter = new(components.DefaultTokenCounter)
	}
	if ret.name == "" {
		ret.name = "Agent"
	}
	return ret
}

func (a *Agent) Name() string {
	return a.name
}

// SetStartHook registers a callback fired when a run starts.
func (a *Agent) SetStartHook(fn func(ctx context.Context, a *Agent, runID string, input string)) {
	a.startHook = fn
}

// SetEndHook registers a callback fired when a run completes.
func (a *Agent) SetEndHook(fn func(ctx context.Context, a *Agent, runID string, result *RunResult)) {
	a.endHook = fn
}

// SetErrorHook registers a callback fired when a run fails.
func (a *Agent) SetErrorHook(fn func(ctx context.Context, a *Agent, runID string, err error)) {
	a.errorHook = fn
}

// SetModel overrides the configured model.
func (a *Agent) SetModel(model string) {
	a.model = model
}

// SetTemperature overrides the configured temperature.
func (a *Agent) SetTemperature(temperature float32) {
	a.temperature = temperature
}

// SetMaxTokens overrides the configured response token cap.
func (a *Agent) SetMaxTokens(maxTokens int) {
	a.maxTokens = maxTokens
}

// Run answers one user question on a fresh conversation.
func (a *Agent) Run(ctx context.Context, input string) (*RunResult, error) {
	return a.RunWithConversation(ctx, components.NewConversation(), input)
}

// RunWithHistory answers one user question on a conversation seeded with
// prior turns.
func (a *Agent) RunWithHistory(ctx context.Context, seed []components.Message, input string) (*RunResult, error) {
	return a.RunWithConversation(ctx, components.NewConversationWithHistory(seed), input)
}

// RunWithConversation answers one user question, continuing the given
// conversation. The system instruction is injected only if the
// conversation has never been primed, so multi-turn sessions keep
// exactly one system message at position 0.
func (a *Agent) RunWithConversation(ctx context.Context, conversation *components.Conversation, input string) (*RunResult, error) {
	runID := uuid.New().String()
	logger := a.logger.With().
		Str("agent", a.name).
		Str("run_id", runID).
		Logger()
	if fn := a.startHook; fn != nil {
		fn(ctx, a, runID, input)
	}
	result, err := a.run(ctx, logger, runID, conversation, input)
	if err != nil {
		logger.Error().Err(err).Msg("run failed")
		if fn := a.errorHook; fn != nil {
			fn(ctx, a, runID, err)
		}
		return nil, err
	}
	logger.Info().
		Int("turns", result.Turns).
		Int64("input_tokens", result.Usage.InputTokens).
		Int64("output_tokens", result.Usage.OutputTokens).
		Msg("run done")
	if fn := a.endHook; fn != nil {
		fn(ctx, a, runID, result)
	}
	return result, nil
}

func (a *Agent) run(ctx context.Context, logger zerolog.Logger, runID string, conversation *components.Conversation, input string) (*RunResult, error) {
	conversation.Prime(a.systemPromptGenerator.Generate())
	conversation.NewTurn()
	conversation.AppendNew(components.UserRole, schema.String(input))

	result := &RunResult{RunID: runID, State: StateAwaitingModel}
	var toolPasses int
	for turn := 0; turn < a.maxTurns; turn++ {
		completion, err := a.chat(ctx, logger, conversation)
		if err != nil {
			// nothing has been appended for this turn, the history is
			// intact up to the failed call
			return nil, ModelInvocationError{Provider: a.provider.Name(), Err: err}
		}
		result.Turns = turn + 1
		result.Usage.Merge(completion.Usage)
		conversation.Append(components.NewAssistantMessage(schema.String(completion.Content), completion.ToolCalls))

		if completion.Kind() == llm.KindAnswer {
			result.State = StateDone
			result.Answer = completion.Content
			return result, nil
		}
		if a.policy == PolicySinglePass && toolPasses > 0 {
			logger.Warn().
				Int("ignored_tool_calls", len(completion.ToolCalls)).
				Msg("tool budget spent, treating response text as the final answer")
			result.State = StateDone
			result.Answer = completion.Content
			return result, nil
		}

		result.State = StateExecutingTools
		logger.Debug().Int("tool_calls", len(completion.ToolCalls)).Msg("executing tool batch")
		toolResults := a.invoker.InvokeAll(ctx, completion.ToolCalls)
		// results go in in request order, one tool message per call
		for _, toolResult := range toolResults {
			conversation.Append(components.NewToolMessage(toolResult))
		}
		toolPasses++
		result.State = StateAwaitingModel
	}
	return nil, MaxTurnsExceededError{MaxTurns: a.maxTurns}
}

// chat performs one blocking model call over the full history.
func (a *Agent) chat(ctx context.Context, logger zerolog.Logger, conversation *components.Conversation) (*llm.Completion, error) {
	req := &llm.Request{
		Model:       a.model,
		Temperature: a.temperature,
		MaxTokens:   a.maxTokens,
		Messages:    conversation.History(),
	}
	if a.registry != nil {
		req.Tools = a.registry.Specs()
	}
	logger.Debug().
		Int("messages", len(req.Messages)).
		Int("prompt_tokens_estimate", components.CountMessages(a.tokenCounter, req.Messages)).
		Msg("calling model")
	return a.provider.Chat(ctx, req)
}
