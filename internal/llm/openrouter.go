package llm

import (
	"context"
	"errors"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
)

const openRouterBaseURL = "https://openrouter.ai/api/v1"

// openRouterCaller makes a single non-streaming chat completion against
// OpenRouter's free tier. The schema rides in the system prompt as a
// best-effort constraint; the model is not forced to comply, so the
// generator validates and may re-prompt once.
type openRouterCaller struct {
	client *openai.Client
	model  string
}

func openRouterClientConfig(apiKey string) openai.ClientConfig {
	c := openai.DefaultConfig(apiKey)
	c.BaseURL = openRouterBaseURL
	c.HTTPClient = hostedHTTPClient()
	return c
}

func newOpenRouterCaller(cfg Config) (*openRouterCaller, error) {
	if cfg.OpenRouterAPIKey == "" {
		return nil, errors.New("OPENROUTER_API_KEY not configured")
	}
	return &openRouterCaller{
		client: openai.NewClientWithConfig(openRouterClientConfig(cfg.OpenRouterAPIKey)),
		model:  cfg.OpenRouterModel,
	}, nil
}

func (o *openRouterCaller) generate(ctx context.Context, prompt string, schema Schema, onFragment func(string)) (string, error) {
	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: "Respond only with valid JSON matching this schema: " + string(schema.Definition),
			},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: 0,
	})
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) {
			return "", &UpstreamError{Backend: BackendOpenRouter, Status: apiErr.HTTPStatusCode, Body: apiErr.Message}
		}
		return "", fmt.Errorf("openrouter chat request: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openrouter returned no choices")
	}
	content := resp.Choices[0].Message.Content
	onFragment(content)
	return content, nil
}
