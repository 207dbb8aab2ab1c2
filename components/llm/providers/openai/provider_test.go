package openai

import (
	"testing"

	openai "github.com/sashabaranov/go-openai"

	"github.com/quantfold/finagent/components"
	"github.com/quantfold/finagent/components/llm"
	"github.com/quantfold/finagent/schema"
	"github.com/quantfold/finagent/tools"
)

func TestToMessages(t *testing.T) {
	history := []components.Message{
		*components.NewMessage(components.SystemRole, schema.String("be terse")),
		*components.NewMessage(components.UserRole, schema.String("question")),
		*components.NewAssistantMessage(schema.String(""), []components.ToolCall{
			{ID: "call_1", Name: "ratio", Arguments: `{"numerator":1}`},
		}),
		*components.NewToolMessage(components.ToolResult{ID: "call_1", Name: "ratio", Content: `{"result":2}`}),
	}
	msgs := toMessages(history)
	if len(msgs) != 4 {
		t.Fatalf("messages = %d", len(msgs))
	}
	if msgs[0].Role != components.SystemRole || msgs[0].Content != "be terse" {
		t.Errorf("system = %+v", msgs[0])
	}
	if len(msgs[2].ToolCalls) != 1 || msgs[2].ToolCalls[0].Function.Name != "ratio" {
		t.Errorf("assistant tool calls = %+v", msgs[2].ToolCalls)
	}
	if msgs[3].ToolCallID != "call_1" {
		t.Errorf("tool message correlation = %q", msgs[3].ToolCallID)
	}
}

func TestToTools(t *testing.T) {
	specs := []tools.Spec{{
		Name:        "ratio",
		Description: "divides",
		Params: []tools.Param{
			{Name: "numerator", Type: tools.TypeNumber, Required: true},
		},
	}}
	list := toTools(specs)
	if len(list) != 1 {
		t.Fatalf("tools = %d", len(list))
	}
	fn := list[0].Function
	if fn.Name != "ratio" || fn.Description != "divides" {
		t.Errorf("function = %+v", fn)
	}
	params, ok := fn.Parameters.(map[string]any)
	if !ok {
		t.Fatalf("parameters type %T", fn.Parameters)
	}
	if params["type"] != "object" {
		t.Errorf("schema type = %v", params["type"])
	}
	if toTools(nil) != nil {
		t.Error("empty spec list should convert to nil")
	}
}

func TestFromResponseAnswer(t *testing.T) {
	resp := &openai.ChatCompletionResponse{
		ID:    "cmpl_1",
		Model: "gpt-4o-mini",
		Choices: []openai.ChatCompletionChoice{{
			Message: openai.ChatCompletionMessage{Content: "final answer"},
		}},
		Usage: openai.Usage{PromptTokens: 7, CompletionTokens: 3},
	}
	completion := fromResponse(resp)
	if completion.Kind() != llm.KindAnswer {
		t.Errorf("kind = %v", completion.Kind())
	}
	if completion.Content != "final answer" {
		t.Errorf("content = %q", completion.Content)
	}
	if completion.Usage.InputTokens != 7 || completion.Usage.OutputTokens != 3 {
		t.Errorf("usage = %+v", completion.Usage)
	}
}

func TestFromResponseToolCalls(t *testing.T) {
	resp := &openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{{
			Message: openai.ChatCompletionMessage{
				ToolCalls: []openai.ToolCall{
					{ID: "call_1", Function: openai.FunctionCall{Name: "ratio", Arguments: "{}"}},
					{Function: openai.FunctionCall{Name: "second", Arguments: "{}"}},
				},
			},
		}},
	}
	completion := fromResponse(resp)
	if completion.Kind() != llm.KindToolCalls {
		t.Errorf("kind = %v", completion.Kind())
	}
	if completion.ToolCalls[0].ID != "call_1" {
		t.Errorf("first call ID = %q", completion.ToolCalls[0].ID)
	}
	// missing upstream IDs get synthesized for correlation
	if completion.ToolCalls[1].ID == "" {
		t.Error("second call ID not synthesized")
	}
}
