package gemini

import (
	"testing"

	"github.com/google/generative-ai-go/genai"

	"github.com/quantfold/finagent/components"
	"github.com/quantfold/finagent/components/llm"
	"github.com/quantfold/finagent/schema"
	"github.com/quantfold/finagent/tools"
)

func TestToContentsMergesToolBatch(t *testing.T) {
	history := []components.Message{
		*components.NewMessage(components.SystemRole, schema.String("be terse")),
		*components.NewMessage(components.UserRole, schema.String("question")),
		*components.NewAssistantMessage(schema.String(""), []components.ToolCall{
			{ID: "c1", Name: "ratio", Arguments: `{"numerator":1}`},
			{ID: "c2", Name: "get_prices", Arguments: `{"ticker":"AAPL"}`},
		}),
		*components.NewToolMessage(components.ToolResult{ID: "c1", Name: "ratio", Content: `{"result":2}`}),
		*components.NewToolMessage(components.ToolResult{ID: "c2", Name: "get_prices", Content: `{"prices":[]}`}),
	}
	system, contents := toContents(history)
	if system != "be terse" {
		t.Errorf("system = %q", system)
	}
	// user, model, one merged function content
	if len(contents) != 3 {
		t.Fatalf("contents = %d", len(contents))
	}
	if contents[1].Role != "model" || len(contents[1].Parts) != 2 {
		t.Errorf("model content = %+v", contents[1])
	}
	if contents[2].Role != "function" {
		t.Fatalf("third role = %q", contents[2].Role)
	}
	if len(contents[2].Parts) != 2 {
		t.Fatalf("function parts = %d, want both batch results merged", len(contents[2].Parts))
	}
	first, ok := contents[2].Parts[0].(genai.FunctionResponse)
	if !ok {
		t.Fatalf("part type %T", contents[2].Parts[0])
	}
	if first.Name != "ratio" || first.Response["result"] != float64(2) {
		t.Errorf("function response = %+v", first)
	}
}

func TestToResponseMap(t *testing.T) {
	if got := toResponseMap(`{"a":1}`); got["a"] != float64(1) {
		t.Errorf("object payload = %v", got)
	}
	if got := toResponseMap(`[1,2]`); got["result"] == nil {
		t.Errorf("array payload = %v", got)
	}
	if got := toResponseMap("plain text"); got["result"] != "plain text" {
		t.Errorf("text payload = %v", got)
	}
}

func TestToSchema(t *testing.T) {
	spec := tools.Spec{
		Name: "search",
		Params: []tools.Param{
			{Name: "queries", Type: tools.TypeArray, Items: tools.TypeString, Required: true},
			{Name: "category", Type: tools.TypeString, Enum: []string{"general", "news"}},
		},
	}
	doc := toSchema(spec)
	if doc.Type != genai.TypeObject {
		t.Errorf("type = %v", doc.Type)
	}
	queries := doc.Properties["queries"]
	if queries.Type != genai.TypeArray || queries.Items.Type != genai.TypeString {
		t.Errorf("queries = %+v", queries)
	}
	if len(doc.Required) != 1 || doc.Required[0] != "queries" {
		t.Errorf("required = %v", doc.Required)
	}
	if len(doc.Properties["category"].Enum) != 2 {
		t.Errorf("enum = %v", doc.Properties["category"].Enum)
	}
}

func TestFromResponseFunctionCall(t *testing.T) {
	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{
				Role: "model",
				Parts: []genai.Part{
					genai.FunctionCall{Name: "ratio", Args: map[string]any{"numerator": 1.0}},
				},
			},
		}},
	}
	completion, err := fromResponse(resp)
	if err != nil {
		t.Fatalf("fromResponse: %v", err)
	}
	if completion.Kind() != llm.KindToolCalls {
		t.Errorf("kind = %v", completion.Kind())
	}
	call := completion.ToolCalls[0]
	if call.Name != "ratio" {
		t.Errorf("name = %q", call.Name)
	}
	// Gemini emits no call IDs, one is synthesized
	if call.ID == "" {
		t.Error("call ID not synthesized")
	}
}
