// Package gemini adapts the Gemini API to the llm.Provider contract.
// Gemini correlates function responses by name rather than call ID, so
// emitted calls get synthesized IDs and results are folded back as
// FunctionResponse parts keyed by tool name.
package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/quantfold/finagent/components"
	"github.com/quantfold/finagent/components/llm"
	"github.com/quantfold/finagent/tools"
)

// Provider talks to the Gemini generative language API.
type Provider struct {
	client *genai.Client
}

var _ llm.Provider = (*Provider)(nil)

// New returns a Gemini provider from an explicit config.
func New(ctx context.Context, cfg llm.Config) (*Provider, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("gemini: api key is required")
	}
	opts := make([]option.ClientOption, 0, 3)
	opts = append(opts, option.WithAPIKey(cfg.APIKey))
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithEndpoint(cfg.BaseURL))
	}
	if cfg.HTTPClient != nil {
		opts = append(opts, option.WithHTTPClient(cfg.HTTPClient))
	}
	client, err := genai.NewClient(ctx, opts...)
	if err != nil {
		return nil, err
	}
	return &Provider{client: client}, nil
}

func (p *Provider) Name() string {
	return "gemini"
}

// Close releases the underlying API client.
func (p *Provider) Close() error {
	return p.client.Close()
}

// Chat sends the full history and tool set, blocking for one assistant
// completion.
func (p *Provider) Chat(ctx context.Context, req *llm.Request) (*llm.Completion, error) {
	model := p.client.GenerativeModel(req.Model)
	if req.Temperature > 0 {
		model.SetTemperature(req.Temperature)
	}
	if req.MaxTokens > 0 {
		model.SetMaxOutputTokens(int32(req.MaxTokens))
	}
	if tls := toTools(req.Tools); tls != nil {
		model.Tools = tls
	}

	system, contents := toContents(req.Messages)
	if system != "" {
		model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(system)}}
	}
	if len(contents) == 0 {
		return nil, errors.New("gemini: request carries no messages")
	}

	session := model.StartChat()
	session.History = contents[:len(contents)-1]
	resp, err := session.SendMessage(ctx, contents[len(contents)-1].Parts...)
	if err != nil {
		return nil, err
	}
	return fromResponse(resp)
}

// toContents converts the history, splitting off the system instruction
// and merging consecutive tool results into one function-role content.
func toContents(messages []components.Message) (string, []*genai.Content) {
	var system string
	contents := make([]*genai.Content, 0, len(messages))
	for _, msg := range messages {
		switch msg.Role() {
		case components.SystemRole:
			system = msg.StringifiedContent()
		case components.UserRole:
			contents = append(contents, &genai.Content{
				Role:  "user",
				Parts: []genai.Part{genai.Text(msg.StringifiedContent())},
			})
		case components.AssistantRole:
			parts := make([]genai.Part, 0, len(msg.ToolCalls())+1)
			if text := msg.StringifiedContent(); text != "" {
				parts = append(parts, genai.Text(text))
			}
			for _, call := range msg.ToolCalls() {
				args := make(map[string]any)
				_ = json.Unmarshal([]byte(call.Arguments), &args)
				parts = append(parts, genai.FunctionCall{Name: call.Name, Args: args})
			}
			contents = append(contents, &genai.Content{Role: "model", Parts: parts})
		case components.ToolRole:
			part := genai.FunctionResponse{
				Name:     msg.ToolName(),
				Response: toResponseMap(msg.StringifiedContent()),
			}
			// consecutive results of one batch travel as parts of a
			// single function-role content
			if n := len(contents); n > 0 && contents[n-1].Role == "function" {
				contents[n-1].Parts = append(contents[n-1].Parts, part)
				continue
			}
			contents = append(contents, &genai.Content{Role: "function", Parts: []genai.Part{part}})
		}
	}
	return system, contents
}

// toResponseMap shapes a raw JSON payload into the map form the API
// requires; non-object payloads are wrapped under a result key.
func toResponseMap(payload string) map[string]any {
	response := make(map[string]any)
	if err := json.Unmarshal([]byte(payload), &response); err == nil {
		return response
	}
	var value any
	if err := json.Unmarshal([]byte(payload), &value); err == nil {
		return map[string]any{"result": value}
	}
	return map[string]any{"result": payload}
}

func toTools(specs []tools.Spec) []*genai.Tool {
	if len(specs) == 0 {
		return nil
	}
	declarations := make([]*genai.FunctionDeclaration, 0, len(specs))
	for _, spec := range specs {
		declarations = append(declarations, &genai.FunctionDeclaration{
			Name:        spec.Name,
			Description: spec.Description,
			Parameters:  toSchema(spec),
		})
	}
	return []*genai.Tool{{FunctionDeclarations: declarations}}
}

// toSchema converts the declared param list into the API's schema shape.
func toSchema(spec tools.Spec) *genai.Schema {
	doc := &genai.Schema{
		Type:       genai.TypeObject,
		Properties: make(map[string]*genai.Schema, len(spec.Params)),
	}
	for _, p := range spec.Params {
		prop := &genai.Schema{
			Type:        toType(p.Type),
			Description: p.Description,
			Enum:        p.Enum,
		}
		if p.Type == tools.TypeArray && p.Items != "" {
			prop.Items = &genai.Schema{Type: toType(p.Items)}
		}
		doc.Properties[p.Name] = prop
		if p.Required {
			doc.Required = append(doc.Required, p.Name)
		}
	}
	return doc
}

func toType(t tools.ParamType) genai.Type {
	switch t {
	case tools.TypeString:
		return genai.TypeString
	case tools.TypeNumber:
		return genai.TypeNumber
	case tools.TypeInteger:
		return genai.TypeInteger
	case tools.TypeBoolean:
		return genai.TypeBoolean
	case tools.TypeArray:
		return genai.TypeArray
	case tools.TypeObject:
		return genai.TypeObject
	}
	return genai.TypeUnspecified
}

func fromResponse(resp *genai.GenerateContentResponse) (*llm.Completion, error) {
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, errors.New("gemini: response carries no candidates")
	}
	completion := new(llm.Completion)
	if usage := resp.UsageMetadata; usage != nil {
		completion.Usage = llm.Usage{
			InputTokens:  int64(usage.PromptTokenCount),
			OutputTokens: int64(usage.CandidatesTokenCount),
		}
	}
	for _, part := range resp.Candidates[0].Content.Parts {
		switch v := part.(type) {
		case genai.Text:
			completion.Content += string(v)
		case genai.FunctionCall:
			args, err := json.Marshal(v.Args)
			if err != nil {
				return nil, fmt.Errorf("gemini: cannot encode function call args: %w", err)
			}
			completion.ToolCalls = append(completion.ToolCalls, components.ToolCall{
				ID:        components.NewCallID(),
				Name:      v.Name,
				Arguments: string(args),
			})
		}
	}
	return completion, nil
}
