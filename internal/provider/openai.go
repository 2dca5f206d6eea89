package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const openaiURL = "https://api.openai.com/v1"

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model     string        `json:"model"`
	Messages  []chatMessage `json:"messages"`
	MaxTokens int           `json:"max_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// chatClient speaks the OpenAI-compatible chat completions API.
type chatClient struct {
	name      string
	apiKey    string
	model     string
	maxTokens int
	url       string
	headers   map[string]string
	client    *http.Client
}

func newChatClient(name, defaultURL string, opts Options) chatClient {
	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = defaultURL
	}
	return chatClient{
		name:      name,
		apiKey:    opts.APIKey,
		model:     opts.Model,
		maxTokens: opts.maxTokens(),
		url:       strings.TrimSuffix(baseURL, "/") + "/chat/completions",
		client:    opts.httpClient(),
	}
}

func (c chatClient) Generate(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: prompt},
		},
		MaxTokens: c.maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%s request: %w", c.name, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	var response chatResponse
	if err := json.Unmarshal(raw, &response); err != nil {
		if resp.StatusCode != http.StatusOK {
			return "", fmt.Errorf("%s API error %d: %s", c.name, resp.StatusCode, raw)
		}
		return "", fmt.Errorf("decode: %w", err)
	}
	if response.Error != nil {
		return "", fmt.Errorf("%s: %s", c.name, response.Error.Message)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%s API error %d: %s", c.name, resp.StatusCode, raw)
	}
	if len(response.Choices) == 0 {
		return "", fmt.Errorf("empty response")
	}
	return response.Choices[0].Message.Content, nil
}

// OpenAIProvider implements the Provider interface for the OpenAI API.
type OpenAIProvider struct {
	chatClient
}

// NewOpenAIProvider creates a new OpenAI provider instance.
func NewOpenAIProvider(opts Options) *OpenAIProvider {
	return &OpenAIProvider{newChatClient(OpenAI, openaiURL, opts)}
}
