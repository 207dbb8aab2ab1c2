package components

import (
	"fmt"
	"strings"

	"github.com/pkoukk/tiktoken-go"
)

// TokenCounter defines the interface for counting tokens in a string.
// The orchestrator uses it to log an estimate of the outgoing prompt
// size before each model call.
type TokenCounter interface {
	// Count returns the number of tokens in the given text according to
	// the implementation's tokenization strategy.
	Count(text string) int
}

// DefaultTokenCounter provides a simple word-based token counting
// implementation. It splits text on whitespace, which is cheap but may
// not reflect the subword tokenization used by language models.
type DefaultTokenCounter struct{}

// Count returns the number of words in the text, using whitespace as a delimiter.
func (dtc *DefaultTokenCounter) Count(text string) int {
	return len(strings.Fields(text))
}

// TikTokenCounter provides accurate token counting using the tiktoken
// library, which implements the tokenization schemes used by OpenAI models.
type TikTokenCounter struct {
	tke *tiktoken.Tiktoken
}

// NewTikTokenCounter creates a new TikTokenCounter using the specified
// encoding. Common encodings include "cl100k_base" (GPT-4, ChatGPT) and
// "o200k_base" (GPT-4o).
func NewTikTokenCounter(encoding string) (*TikTokenCounter, error) {
	tke, err := tiktoken.GetEncoding(encoding)
	if err != nil {
		return nil, fmt.Errorf("failed to get encoding: %w", err)
	}
	return &TikTokenCounter{tke: tke}, nil
}

// Count returns the number of tokens in the text.
func (ttc *TikTokenCounter) Count(text string) int {
	return len(ttc.tke.Encode(text, nil, nil))
}

// CountMessages estimates the token count of a whole message history.
func CountMessages(counter TokenCounter, messages []Message) int {
	if counter == nil {
		return 0
	}
	var total int
	for _, msg := range messages {
		total += counter.Count(msg.StringifiedContent())
		for _, call := range msg.ToolCalls() {
			total += counter.Count(call.Arguments)
		}
	}
	return total
}
