package provider

const openrouterURL = "https://openrouter.ai/api/v1"

// OpenRouterProvider implements the Provider interface for OpenRouter's API.
// OpenRouter provides a unified interface to multiple LLM providers including Anthropic.
type OpenRouterProvider struct {
	chatClient
}

// NewOpenRouterProvider creates a new OpenRouter provider instance.
func NewOpenRouterProvider(opts Options) *OpenRouterProvider {
	c := newChatClient(OpenRouter, openrouterURL, opts)
	c.headers = map[string]string{"X-Title": "funcforge"}
	return &OpenRouterProvider{c}
}
