// Package openai adapts the OpenAI chat completions API to the llm.Provider
// contract, mapping tool specs to function tools and tool results to
// tool-role messages keyed by call ID.
package openai

import (
	"context"
	"errors"

	openai "github.com/sashabaranov/go-openai"

	"github.com/quantfold/finagent/components"
	"github.com/quantfold/finagent/components/llm"
	"github.com/quantfold/finagent/tools"
)

// Provider talks to the OpenAI chat completions API.
type Provider struct {
	client *openai.Client
}

var _ llm.Provider = (*Provider)(nil)

// New returns an OpenAI provider from an explicit config.
func New(cfg llm.Config) (*Provider, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("openai: api key is required")
	}
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	if cfg.HTTPClient != nil {
		clientCfg.HTTPClient = cfg.HTTPClient
	}
	return &Provider{client: openai.NewClientWithConfig(clientCfg)}, nil
}

// NewWithClient wraps an existing client, useful in tests.
func NewWithClient(client *openai.Client) *Provider {
	return &Provider{client: client}
}

func (p *Provider) Name() string {
	return "openai"
}

// Chat sends the full history and tool set, blocking for one assistant
// completion.
func (p *Provider) Chat(ctx context.Context, req *llm.Request) (*llm.Completion, error) {
	chatReq := openai.ChatCompletionRequest{
		Model:               req.Model,
		Temperature:         req.Temperature,
		MaxCompletionTokens: req.MaxTokens,
		Messages:            toMessages(req.Messages),
		Tools:               toTools(req.Tools),
	}
	resp, err := p.client.CreateChatCompletion(ctx, chatReq)
	if err != nil {
		return nil, err
	}
	if len(resp.Choices) == 0 {
		return nil, errors.New("openai: response carries no choices")
	}
	return fromResponse(&resp), nil
}

func toMessages(messages []components.Message) []openai.ChatCompletionMessage {
	list := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, msg := range messages {
		v := openai.ChatCompletionMessage{
			Role:    msg.Role(),
			Content: msg.StringifiedContent(),
		}
		switch msg.Role() {
		case components.AssistantRole:
			for _, call := range msg.ToolCalls() {
				v.ToolCalls = append(v.ToolCalls, openai.ToolCall{
					ID:   call.ID,
					Type: openai.ToolTypeFunction,
					Function: openai.FunctionCall{
						Name:      call.Name,
						Arguments: call.Arguments,
					},
				})
			}
		case components.ToolRole:
			v.ToolCallID = msg.ToolCallID()
		}
		list = append(list, v)
	}
	return list
}

func toTools(specs []tools.Spec) []openai.Tool {
	if len(specs) == 0 {
		return nil
	}
	list := make([]openai.Tool, 0, len(specs))
	for _, spec := range specs {
		list = append(list, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        spec.Name,
				Description: spec.Description,
				Parameters:  spec.JSONSchema(),
			},
		})
	}
	return list
}

func fromResponse(resp *openai.ChatCompletionResponse) *llm.Completion {
	choice := resp.Choices[0]
	completion := &llm.Completion{
		ID:      resp.ID,
		Model:   resp.Model,
		Content: choice.Message.Content,
		Usage: llm.Usage{
			InputTokens:  int64(resp.Usage.PromptTokens),
			OutputTokens: int64(resp.Usage.CompletionTokens),
		},
	}
	for _, call := range choice.Message.ToolCalls {
		id := call.ID
		if id == "" {
			id = components.NewCallID()
		}
		completion.ToolCalls = append(completion.ToolCalls, components.ToolCall{
			ID:        id,
			Name:      call.Function.Name,
			Arguments: call.Function.Arguments,
		})
	}
	return completion
}
