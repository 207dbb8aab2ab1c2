package llm

import (
	"context"
	"net/http"
)

// Provider is the language model collaborator. Chat sends the full
// ordered history plus tool specs and blocks for exactly one assistant
// completion. Implementations live under providers/.
type Provider interface {
	// Name identifies the provider in logs and errors.
	Name() string
	Chat(ctx context.Context, req *Request) (*Completion, error)
}

// Config carries explicit credentials for a provider adapter. Nothing
// in this module reads environment variables; wiring code resolves
// credentials and passes them in here.
type Config struct {
	APIKey     string `yaml:"api_key" json:"api_key"`
	BaseURL    string `yaml:"base_url,omitempty" json:"base_url,omitempty"`
	HTTPClient *http.Client
}
