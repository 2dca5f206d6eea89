// Package provider talks to text-generation APIs.
package provider

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// Provider is an abstraction for different LLM API providers.
// Each implementation handles provider-specific HTTP details, authentication,
// request/response formatting, and error handling.
type Provider interface {
	// Generate sends prompt as a single user message and returns the text
	// of the reply.
	Generate(ctx context.Context, prompt string) (string, error)
}

const (
	Anthropic  = "anthropic"
	OpenRouter = "openrouter"
	OpenAI     = "openai"
)

// Options configures a provider. BaseURL is optional and replaces the
// provider's public endpoint host.
type Options struct {
	APIKey    string
	Model     string
	MaxTokens int
	BaseURL   string
	Timeout   time.Duration
}

func (o Options) httpClient() *http.Client {
	timeout := o.Timeout
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &http.Client{Timeout: timeout}
}

func (o Options) maxTokens() int {
	if o.MaxTokens <= 0 {
		return 4096
	}
	return o.MaxTokens
}

// New returns the Provider for the given name.
// Supported providers: "anthropic", "openrouter", "openai".
func New(name string, opts Options) (Provider, error) {
	if opts.APIKey == "" {
		return nil, fmt.Errorf("%s: missing API key", name)
	}
	switch name {
	case Anthropic:
		return NewAnthropicProvider(opts), nil
	case OpenRouter:
		return NewOpenRouterProvider(opts), nil
	case OpenAI:
		return NewOpenAIProvider(opts), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %q", name)
	}
}

// systemPrompt frames every request; the user prompt carries the task.
const systemPrompt = "You are an expert Python programmer. Follow the output format in the instructions exactly."
