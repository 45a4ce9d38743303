package llm

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// ollamaCaller talks to a local Ollama server. The server enforces the JSON
// schema through the chat endpoint's format constraint, and responses stream
// as newline-delimited JSON chunks.
type ollamaCaller struct {
	baseURL string
	model   string
	client  *http.Client
}

func newOllamaCaller(cfg Config) *ollamaCaller {
	return &ollamaCaller{
		baseURL: strings.TrimSuffix(cfg.OllamaBaseURL, "/"),
		model:   cfg.OllamaModel,
		client:  &http.Client{Timeout: requestTimeout},
	}
}

// probe checks reachability before any chat request so an idle server fails
// fast with an actionable error instead of a wasted streaming call.
func (o *ollamaCaller) probe(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, o.baseURL+"/api/tags", nil)
	if err != nil {
		return err
	}
	resp, err := o.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w (probe %s: %v)", ErrProviderUnavailable, o.baseURL, err)
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	return nil
}

type ollamaChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ollamaChatRequest struct {
	Model    string              `json:"model"`
	Messages []ollamaChatMessage `json:"messages"`
	Stream   bool                `json:"stream"`
	Format   json.RawMessage     `json:"format,omitempty"`
	Options  map[string]any      `json:"options,omitempty"`
}

type ollamaChatChunk struct {
	Message ollamaChatMessage `json:"message"`
	Done    bool              `json:"done"`
}

func (o *ollamaCaller) generate(ctx context.Context, prompt string, schema Schema, onFragment func(string)) (string, error) {
	if err := o.probe(ctx); err != nil {
		return "", err
	}

	body, err := json.Marshal(ollamaChatRequest{
		Model:    o.model,
		Messages: []ollamaChatMessage{{Role: "user", Content: prompt}},
		Stream:   true,
		Format:   schema.Definition,
		Options:  map[string]any{"temperature": 0},
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("ollama chat request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		blob, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", &UpstreamError{Backend: BackendOllama, Status: resp.StatusCode, Body: strings.TrimSpace(string(blob))}
	}

	var full strings.Builder
	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var chunk ollamaChatChunk
		if err := json.Unmarshal(line, &chunk); err != nil {
			return "", fmt.Errorf("ollama stream chunk: %w", err)
		}
		if chunk.Message.Content != "" {
			full.WriteString(chunk.Message.Content)
			onFragment(chunk.Message.Content)
		}
		if chunk.Done {
			break
		}
	}
	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("ollama stream read: %w", err)
	}
	return full.String(), nil
}
