package fundamentals

import (
	"net/http"

	"github.com/quantfold/finagent/tools"
)

// Config is shared by both fundamentals tools.
type Config struct {
	tools.Config
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func (c *Config) fillDefaults() {
	if c.baseURL == "" {
		c.baseURL = DefaultBaseURL
	}
	if c.httpClient == nil {
		c.httpClient = http.DefaultClient
	}
}

type Option func(*Config)

func WithBaseURL(baseURL string) Option {
	return func(c *Config) {
		c.baseURL = baseURL
	}
}

func WithAPIKey(apiKey string) Option {
	return func(c *Config) {
		c.apiKey = apiKey
	}
}

func WithHttpClient(clt *http.Client) Option {
	return func(c *Config) {
		c.httpClient = clt
	}
}
