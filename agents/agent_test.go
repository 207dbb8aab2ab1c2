package agents

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/quantfold/finagent/components"
	"github.com/quantfold/finagent/components/llm"
	"github.com/quantfold/finagent/schema"
	"github.com/quantfold/finagent/tools"
)

// scriptedProvider plays back a fixed sequence of completions, one per
// model call.
type scriptedProvider struct {
	turns    []func(req *llm.Request) (*llm.Completion, error)
	calls    int
	requests []*llm.Request
}

func (p *scriptedProvider) Name() string { return "scripted" }

func (p *scriptedProvider) Chat(ctx context.Context, req *llm.Request) (*llm.Completion, error) {
	if p.calls >= len(p.turns) {
		return nil, fmt.Errorf("unexpected model call %d", p.calls+1)
	}
	fn := p.turns[p.calls]
	p.calls++
	p.requests = append(p.requests, req)
	return fn(req)
}

func answer(text string) func(req *llm.Request) (*llm.Completion, error) {
	return func(req *llm.Request) (*llm.Completion, error) {
		return &llm.Completion{Content: text, Usage: llm.Usage{InputTokens: 10, OutputTokens: 5}}, nil
	}
}

func requestTools(calls ...components.ToolCall) func(req *llm.Request) (*llm.Completion, error) {
	return func(req *llm.Request) (*llm.Completion, error) {
		return &llm.Completion{ToolCalls: calls, Usage: llm.Usage{InputTokens: 10, OutputTokens: 5}}, nil
	}
}

func ratioSpec() tools.Spec {
	return tools.Spec{
		Name: "ratio",
		Params: []tools.Param{
			{Name: "numerator", Type: tools.TypeNumber, Required: true},
			{Name: "denominator", Type: tools.TypeNumber, Required: true},
		},
	}
}

func newTestRegistry(t *testing.T) *tools.Registry {
	t.Helper()
	registry := tools.NewRegistry()
	err := registry.Register(ratioSpec(), func(ctx context.Context, args json.RawMessage) (any, error) {
		var input struct {
			Numerator   float64 `json:"numerator"`
			Denominator float64 `json:"denominator"`
		}
		if err := json.Unmarshal(args, &input); err != nil {
			return nil, err
		}
		return map[string]float64{"result": input.Numerator / input.Denominator}, nil
	})
	if err != nil {
		t.Fatalf("register ratio: %v", err)
	}
	err = registry.Register(tools.Spec{Name: "broken"}, func(ctx context.Context, args json.RawMessage) (any, error) {
		return nil, errors.New("connection refused")
	})
	if err != nil {
		t.Fatalf("register broken: %v", err)
	}
	return registry
}

func newTestAgent(t *testing.T, provider *scriptedProvider, opts ...Option) *Agent {
	t.Helper()
	opts = append([]Option{
		WithProvider(provider),
		WithRegistry(newTestRegistry(t)),
		WithModel("test-model"),
	}, opts...)
	return New(opts...)
}

func roles(history []components.Message) []string {
	out := make([]string, len(history))
	for i, msg := range history {
		out[i] = msg.Role()
	}
	return out
}

func TestRunPlainAnswer(t *testing.T) {
	provider := &scriptedProvider{turns: []func(req *llm.Request) (*llm.Completion, error){
		answer("Berkshire is a holding company."),
	}}
	agent := newTestAgent(t, provider)
	conversation := components.NewConversation()

	result, err := agent.RunWithConversation(context.Background(), conversation, "What does Berkshire do?")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if result.State != StateDone {
		t.Errorf("state = %q", result.State)
	}
	if result.Turns != 1 {
		t.Errorf("turns = %d, want 1", result.Turns)
	}
	if result.Answer != "Berkshire is a holding company." {
		t.Errorf("answer = %q", result.Answer)
	}
	got := roles(conversation.History())
	want := []string{components.SystemRole, components.UserRole, components.AssistantRole}
	if fmt.Sprint(got) != fmt.Sprint(want) {
		t.Errorf("history roles = %v, want %v", got, want)
	}
}

func TestRunToolBatchWithOneFailure(t *testing.T) {
	calls := []components.ToolCall{
		{ID: "call_1", Name: "ratio", Arguments: `{"numerator":100,"denominator":50}`},
		{ID: "call_2", Name: "broken", Arguments: `{}`},
	}
	provider := &scriptedProvider{turns: []func(req *llm.Request) (*llm.Completion, error){
		requestTools(calls...),
		answer("The ratio is 2 and the second source was unavailable."),
	}}
	agent := newTestAgent(t, provider)
	conversation := components.NewConversation()

	result, err := agent.RunWithConversation(context.Background(), conversation, "Compute the ratio of 100 to 50.")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if result.Turns != 2 {
		t.Errorf("turns = %d, want 2", result.Turns)
	}

	history := conversation.History()
	got := roles(history)
	want := []string{
		components.SystemRole, components.UserRole, components.AssistantRole,
		components.ToolRole, components.ToolRole, components.AssistantRole,
	}
	if fmt.Sprint(got) != fmt.Sprint(want) {
		t.Fatalf("history roles = %v, want %v", got, want)
	}
	// tool messages follow the request order regardless of completion order
	if history[3].ToolCallID() != "call_1" || history[4].ToolCallID() != "call_2" {
		t.Errorf("tool message order = %s, %s", history[3].ToolCallID(), history[4].ToolCallID())
	}
	if !strings.Contains(history[3].StringifiedContent(), "2") {
		t.Errorf("ratio result = %q", history[3].StringifiedContent())
	}
	if !strings.Contains(history[4].StringifiedContent(), components.FailureToolExecution) {
		t.Errorf("failure payload = %q", history[4].StringifiedContent())
	}
}

func TestRunUnknownToolContinues(t *testing.T) {
	provider := &scriptedProvider{turns: []func(req *llm.Request) (*llm.Completion, error){
		requestTools(components.ToolCall{ID: "call_1", Name: "nonexistent", Arguments: `{}`}),
		answer("I could not use that tool."),
	}}
	agent := newTestAgent(t, provider)
	conversation := components.NewConversation()

	result, err := agent.RunWithConversation(context.Background(), conversation, "Use the magic tool.")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	history := conversation.History()
	if !strings.Contains(history[3].StringifiedContent(), components.FailureUnknownTool) {
		t.Errorf("failure payload = %q", history[3].StringifiedContent())
	}
	if result.Answer == "" {
		t.Error("run did not reach a final answer")
	}
}

func TestSystemMessageInjectedOnce(t *testing.T) {
	provider := &scriptedProvider{turns: []func(req *llm.Request) (*llm.Completion, error){
		answer("first"),
		answer("second"),
	}}
	agent := newTestAgent(t, provider)
	conversation := components.NewConversation()

	if _, err := agent.RunWithConversation(context.Background(), conversation, "one"); err != nil {
		t.Fatalf("first run: %v", err)
	}
	if _, err := agent.RunWithConversation(context.Background(), conversation, "two"); err != nil {
		t.Fatalf("second run: %v", err)
	}

	history := conversation.History()
	var systemCount int
	for i, msg := range history {
		if msg.Role() == components.SystemRole {
			systemCount++
			if i != 0 {
				t.Errorf("system message at position %d", i)
			}
		}
	}
	if systemCount != 1 {
		t.Errorf("system messages = %d, want 1", systemCount)
	}
}

func TestPolicyLoopKeepsGoing(t *testing.T) {
	call := components.ToolCall{ID: "call_1", Name: "ratio", Arguments: `{"numerator":1,"denominator":2}`}
	provider := &scriptedProvider{turns: []func(req *llm.Request) (*llm.Completion, error){
		requestTools(call),
		requestTools(components.ToolCall{ID: "call_2", Name: "ratio", Arguments: `{"numerator":3,"denominator":4}`}),
		answer("done after two rounds"),
	}}
	agent := newTestAgent(t, provider)

	result, err := agent.Run(context.Background(), "chain two calculations")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if result.Turns != 3 {
		t.Errorf("turns = %d, want 3", result.Turns)
	}
	if result.Answer != "done after two rounds" {
		t.Errorf("answer = %q", result.Answer)
	}
}

func TestPolicySinglePassStopsAfterOneRound(t *testing.T) {
	call := components.ToolCall{ID: "call_1", Name: "ratio", Arguments: `{"numerator":1,"denominator":2}`}
	provider := &scriptedProvider{turns: []func(req *llm.Request) (*llm.Completion, error){
		requestTools(call),
		func(req *llm.Request) (*llm.Completion, error) {
			// the model asks for more tools, which the policy ignores
			return &llm.Completion{
				Content:   "partial answer",
				ToolCalls: []components.ToolCall{{ID: "call_2", Name: "ratio", Arguments: `{"numerator":3,"denominator":4}`}},
			}, nil
		},
	}}
	agent := newTestAgent(t, provider, WithToolPolicy(PolicySinglePass))
	conversation := components.NewConversation()

	result, err := agent.RunWithConversation(context.Background(), conversation, "one round only")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if provider.calls != 2 {
		t.Errorf("model calls = %d, want 2", provider.calls)
	}
	if result.Answer != "partial answer" {
		t.Errorf("answer = %q", result.Answer)
	}
	// no tool messages follow the second assistant message
	if last := conversation.LastMessage(); last.Role() != components.AssistantRole {
		t.Errorf("last message role = %q", last.Role())
	}
}

func TestMaxTurnsExceeded(t *testing.T) {
	call := components.ToolCall{ID: "call_1", Name: "ratio", Arguments: `{"numerator":1,"denominator":2}`}
	provider := &scriptedProvider{turns: []func(req *llm.Request) (*llm.Completion, error){
		requestTools(call), requestTools(call), requestTools(call),
	}}
	agent := newTestAgent(t, provider, WithMaxTurns(3))

	_, err := agent.Run(context.Background(), "never finishes")
	var maxErr MaxTurnsExceededError
	if !errors.As(err, &maxErr) {
		t.Fatalf("error = %v, want MaxTurnsExceededError", err)
	}
	if maxErr.MaxTurns != 3 {
		t.Errorf("maxTurns = %d", maxErr.MaxTurns)
	}
}

func TestModelFailureLeavesHistoryIntact(t *testing.T) {
	call := components.ToolCall{ID: "call_1", Name: "ratio", Arguments: `{"numerator":100,"denominator":50}`}
	provider := &scriptedProvider{turns: []func(req *llm.Request) (*llm.Completion, error){
		requestTools(call),
		func(req *llm.Request) (*llm.Completion, error) {
			return nil, errors.New("upstream 500")
		},
	}}
	agent := newTestAgent(t, provider)
	conversation := components.NewConversation()

	_, err := agent.RunWithConversation(context.Background(), conversation, "question")
	var modelErr ModelInvocationError
	if !errors.As(err, &modelErr) {
		t.Fatalf("error = %v, want ModelInvocationError", err)
	}
	if modelErr.Provider != "scripted" {
		t.Errorf("provider = %q", modelErr.Provider)
	}
	// everything up to the failed call is still there
	got := roles(conversation.History())
	want := []string{
		components.SystemRole, components.UserRole, components.AssistantRole, components.ToolRole,
	}
	if fmt.Sprint(got) != fmt.Sprint(want) {
		t.Errorf("history roles = %v, want %v", got, want)
	}
}

func TestRunWithHistorySeedsConversation(t *testing.T) {
	provider := &scriptedProvider{turns: []func(req *llm.Request) (*llm.Completion, error){
		answer("continuing"),
	}}
	agent := newTestAgent(t, provider)
	seed := []components.Message{
		*components.NewMessage(components.UserRole, schema.String("earlier question")),
		*components.NewMessage(components.AssistantRole, schema.String("earlier answer")),
	}

	if _, err := agent.RunWithHistory(context.Background(), seed, "follow-up"); err != nil {
		t.Fatalf("run: %v", err)
	}
	sent := provider.requests[0].Messages
	got := roles(sent)
	want := []string{
		components.SystemRole, components.UserRole, components.AssistantRole, components.UserRole,
	}
	if fmt.Sprint(got) != fmt.Sprint(want) {
		t.Fatalf("sent roles = %v, want %v", got, want)
	}
	if sent[1].StringifiedContent() != "earlier question" {
		t.Errorf("seed content = %q", sent[1].StringifiedContent())
	}
}

func TestToolSpecsDeclaredOnEveryCall(t *testing.T) {
	provider := &scriptedProvider{turns: []func(req *llm.Request) (*llm.Completion, error){
		answer("ok"),
	}}
	agent := newTestAgent(t, provider)

	if _, err := agent.Run(context.Background(), "anything"); err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(provider.requests) != 1 {
		t.Fatalf("requests = %d", len(provider.requests))
	}
	specs := provider.requests[0].Tools
	if len(specs) != 2 {
		t.Fatalf("declared tools = %d, want 2", len(specs))
	}
	if specs[0].Name != "ratio" || specs[1].Name != "broken" {
		t.Errorf("tool order = %s, %s", specs[0].Name, specs[1].Name)
	}
}
