package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const anthropicSystemPrompt = "You are a legal analyst extracting structured data from court opinions. Record your answer with the provided tool."

// anthropicCaller binds the schema server-side through a forced tool call;
// the tool input is the structured result, so schema conformance failures
// surface as provider errors rather than local validation errors.
type anthropicCaller struct {
	messages anthropicMessager
	model    anthropic.Model
}

type anthropicMessager interface {
	New(ctx context.Context, params anthropic.MessageNewParams, opts ...option.RequestOption) (*anthropic.Message, error)
}

type anthropicClientCreator func(apiKey string) anthropicMessager

func defaultAnthropicCreator(apiKey string) anthropicMessager {
	c := anthropic.NewClient(
		option.WithAPIKey(apiKey),
		option.WithHTTPClient(hostedHTTPClient()),
	)
	return &c.Messages
}

var newAnthropicClient anthropicClientCreator = defaultAnthropicCreator

func newAnthropicCaller(cfg Config) (*anthropicCaller, error) {
	if cfg.AnthropicAPIKey == "" {
		return nil, errors.New("ANTHROPIC_API_KEY not configured")
	}
	return &anthropicCaller{
		messages: newAnthropicClient(cfg.AnthropicAPIKey),
		model:    anthropic.ModelClaudeSonnet4_20250514,
	}, nil
}

type schemaDoc struct {
	Properties map[string]any `json:"properties"`
	Required   []string       `json:"required"`
}

func (a *anthropicCaller) generate(ctx context.Context, prompt string, schema Schema, onFragment func(string)) (string, error) {
	var doc schemaDoc
	if err := json.Unmarshal(schema.Definition, &doc); err != nil {
		return "", fmt.Errorf("parse %s schema: %w", schema.Name, err)
	}

	tool := anthropic.ToolParam{
		Name:        schema.Name,
		Description: anthropic.String("Record the structured analysis result."),
		InputSchema: anthropic.ToolInputSchemaParam{
			Properties: doc.Properties,
			Required:   doc.Required,
		},
	}

	resp, err := a.messages.New(ctx, anthropic.MessageNewParams{
		Model:       a.model,
		MaxTokens:   4096,
		System:      []anthropic.TextBlockParam{{Text: anthropicSystemPrompt}},
		Messages:    []anthropic.MessageParam{anthropic.NewUserMessage(anthropic.NewTextBlock(prompt))},
		Temperature: anthropic.Float(0),
		Tools:       []anthropic.ToolUnionParam{{OfTool: &tool}},
		ToolChoice:  anthropic.ToolChoiceUnionParam{OfTool: &anthropic.ToolChoiceToolParam{Name: schema.Name}},
	})
	if err != nil {
		return "", fmt.Errorf("anthropic structured parse: %w", err)
	}

	for _, b := range resp.Content {
		if b.Type == "tool_use" {
			raw := string(b.Input)
			onFragment(raw)
			return raw, nil
		}
	}
	return "", fmt.Errorf("anthropic response carried no %s tool call", schema.Name)
}
