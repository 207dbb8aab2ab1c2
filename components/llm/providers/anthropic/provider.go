// Package anthropic adapts the Anthropic messages API to the
// llm.Provider contract. The system instruction travels in the request's
// System field, tool calls and results as tool_use / tool_result content
// blocks correlated by call ID.
package anthropic

import (
	"context"
	"errors"

	anthropic "github.com/liushuangls/go-anthropic/v2"

	"github.com/quantfold/finagent/components"
	"github.com/quantfold/finagent/components/llm"
	"github.com/quantfold/finagent/tools"
)

// Provider talks to the Anthropic messages API.
type Provider struct {
	client *anthropic.Client
}

var _ llm.Provider = (*Provider)(nil)

// New returns an Anthropic provider from an explicit config.
func New(cfg llm.Config) (*Provider, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("anthropic: api key is required")
	}
	opts := make([]anthropic.ClientOption, 0, 2)
	if cfg.BaseURL != "" {
		opts = append(opts, anthropic.WithBaseURL(cfg.BaseURL))
	}
	if cfg.HTTPClient != nil {
		opts = append(opts, anthropic.WithHTTPClient(cfg.HTTPClient))
	}
	return &Provider{client: anthropic.NewClient(cfg.APIKey, opts...)}, nil
}

func (p *Provider) Name() string {
	return "anthropic"
}

// Chat sends the full history and tool set, blocking for one assistant
// completion.
func (p *Provider) Chat(ctx context.Context, req *llm.Request) (*llm.Completion, error) {
	system, messages := toMessages(req.Messages)
	chatReq := anthropic.MessagesRequest{
		Model:     anthropic.Model(req.Model),
		System:    system,
		Messages:  messages,
		MaxTokens: req.MaxTokens,
		Tools:     toTools(req.Tools),
	}
	if req.Temperature > 0 {
		temperature := req.Temperature
		chatReq.Temperature = &temperature
	}
	resp, err := p.client.CreateMessages(ctx, chatReq)
	if err != nil {
		return nil, err
	}
	return fromResponse(&resp), nil
}

// toMessages splits off the system instruction and converts the rest.
// Tool results become tool_result blocks on user-role messages, which is
// how the messages API expects them back.
func toMessages(messages []components.Message) (string, []anthropic.Message) {
	var system string
	list := make([]anthropic.Message, 0, len(messages))
	for _, msg := range messages {
		switch msg.Role() {
		case components.SystemRole:
			system = msg.StringifiedContent()
		case components.UserRole:
			list = append(list, anthropic.NewUserTextMessage(msg.StringifiedContent()))
		case components.AssistantRole:
			content := make([]anthropic.MessageContent, 0, len(msg.ToolCalls())+1)
			if text := msg.StringifiedContent(); text != "" {
				content = append(content, anthropic.NewTextMessageContent(text))
			}
			for _, call := range msg.ToolCalls() {
				content = append(content, anthropic.NewToolUseMessageContent(call.ID, call.Name, []byte(call.Arguments)))
			}
			list = append(list, anthropic.Message{
				Role:    anthropic.RoleAssistant,
				Content: content,
			})
		case components.ToolRole:
			list = append(list, anthropic.Message{
				Role: anthropic.RoleUser,
				Content: []anthropic.MessageContent{
					anthropic.NewToolResultMessageContent(msg.ToolCallID(), msg.StringifiedContent(), false),
				},
			})
		}
	}
	return system, list
}

func toTools(specs []tools.Spec) []anthropic.ToolDefinition {
	if len(specs) == 0 {
		return nil
	}
	list := make([]anthropic.ToolDefinition, 0, len(specs))
	for _, spec := range specs {
		list = append(list, anthropic.ToolDefinition{
			Name:        spec.Name,
			Description: spec.Description,
			InputSchema: spec.JSONSchema(),
		})
	}
	return list
}

func fromResponse(resp *anthropic.MessagesResponse) *llm.Completion {
	completion := &llm.Completion{
		ID:    resp.ID,
		Model: string(resp.Model),
		Usage: llm.Usage{
			InputTokens:  int64(resp.Usage.InputTokens),
			OutputTokens: int64(resp.Usage.OutputTokens),
		},
	}
	for _, content := range resp.Content {
		switch content.Type {
		case anthropic.MessagesContentTypeText:
			if content.Text != nil {
				completion.Content += *content.Text
			}
		case anthropic.MessagesContentTypeToolUse:
			if use := content.MessageContentToolUse; use != nil {
				completion.ToolCalls = append(completion.ToolCalls, components.ToolCall{
					ID:        use.ID,
					Name:      use.Name,
					Arguments: string(use.Input),
				})
			}
		}
	}
	return completion
}
