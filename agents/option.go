package agents

import (
	"github.com/rs/zerolog"

	"github.com/quantfold/finagent/components"
	"github.com/quantfold/finagent/components/llm"
	"github.com/quantfold/finagent/components/systemprompt"
	"github.com/quantfold/finagent/tools"
)

type Option func(c *Config)

func WithProvider(provider llm.Provider) Option {
	return func(c *Config) {
		c.provider = provider
	}
}

func WithRegistry(registry *tools.Registry) Option {
	return func(c *Config) {
		c.registry = registry
	}
}

func WithInvoker(invoker *tools.Invoker) Option {
	return func(c *Config) {
		c.invoker = invoker
	}
}

func WithSystemPromptGenerator(g systemprompt.Generator) Option {
	return func(c *Config) {
		c.systemPromptGenerator = g
	}
}

func WithModel(model string) Option {
	return func(c *Config) {
		c.model = model
	}
}

func WithTemperature(temperature float32) Option {
	return func(c *Config) {
		c.temperature = temperature
	}
}

func WithMaxTokens(maxTokens int) Option {
	return func(c *Config) {
		c.maxTokens = maxTokens
	}
}

func WithMaxTurns(maxTurns int) Option {
	return func(c *Config) {
		c.maxTurns = maxTurns
	}
}

func WithToolPolicy(policy ToolPolicy) Option {
	return func(c *Config) {
		c.policy = policy
	}
}

func WithTokenCounter(counter components.TokenCounter) Option {
	return func(c *Config) {
		c.tokenCounter = counter
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(c *Config) {
		c.logger = logger
	}
}

func WithName(name string) Option {
	return func(c *Config) {
		c.name = name
	}
}
