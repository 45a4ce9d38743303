// Package llm generates schema-constrained structured output from one of
// three interchangeable inference backends: a local Ollama server (streaming,
// schema enforced server-side), OpenRouter's free tier (schema described in
// the system prompt, best effort), and the Anthropic API (schema bound via a
// forced tool call). Callers get back the same thing from all three: one or
// more text fragments whose concatenation is guaranteed schema-valid, or an
// error before any fragment reaches rendering.
package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"
)

type Backend string

const (
	BackendOllama     Backend = "ollama"
	BackendOpenRouter Backend = "openrouter"
	BackendAnthropic  Backend = "anthropic"
)

const (
	defaultOllamaBaseURL   = "http://localhost:11434"
	defaultOllamaModel     = "gemma3:12b"
	defaultOpenRouterModel = "google/gemma-3-12b-it:free"

	probeTimeout   = 2 * time.Second
	requestTimeout = 120 * time.Second
)

// hostedHTTPClient bounds every hosted-backend request. A hung upstream
// fails the current item instead of blocking the sequential batch.
func hostedHTTPClient() *http.Client {
	return &http.Client{Timeout: requestTimeout}
}

// Config selects the backend and carries per-backend settings. It is built
// once and threaded into New; nothing here is read from the environment
// after construction.
type Config struct {
	Backend          Backend
	OllamaBaseURL    string
	OllamaModel      string
	OpenRouterAPIKey string
	OpenRouterModel  string
	AnthropicAPIKey  string
}

// ConfigFromEnv reads the process configuration. An unset or unknown
// LLM_PROVIDER selects the local backend.
func ConfigFromEnv() Config {
	cfg := Config{
		Backend:          Backend(strings.ToLower(strings.TrimSpace(os.Getenv("LLM_PROVIDER")))),
		OllamaBaseURL:    strings.TrimSpace(os.Getenv("OLLAMA_BASE_URL")),
		OllamaModel:      strings.TrimSpace(os.Getenv("OLLAMA_MODEL")),
		OpenRouterAPIKey: strings.TrimSpace(os.Getenv("OPENROUTER_API_KEY")),
		OpenRouterModel:  strings.TrimSpace(os.Getenv("OPENROUTER_MODEL")),
		AnthropicAPIKey:  strings.TrimSpace(os.Getenv("ANTHROPIC_API_KEY")),
	}
	switch cfg.Backend {
	case BackendOpenRouter, BackendAnthropic:
	case "openai":
		// earlier deployments selected the paid tier with LLM_PROVIDER=openai
		cfg.Backend = BackendAnthropic
	default:
		cfg.Backend = BackendOllama
	}
	if cfg.OllamaBaseURL == "" {
		cfg.OllamaBaseURL = defaultOllamaBaseURL
	}
	if cfg.OllamaModel == "" {
		cfg.OllamaModel = defaultOllamaModel
	}
	if cfg.OpenRouterModel == "" {
		cfg.OpenRouterModel = defaultOpenRouterModel
	}
	return cfg
}

type caller interface {
	generate(ctx context.Context, prompt string, schema Schema, onFragment func(string)) (string, error)
}

// SaveFn persists the validated raw JSON. Generate calls it before returning,
// so a crash during presentation never loses the artifact.
type SaveFn func(blob []byte) error

// Completion is the normalized result of one generation: the decoded value,
// its canonical JSON, and the fragment sequence observed during the call.
type Completion struct {
	Value Output
	Raw   []byte

	fragments []string
	pos       int
}

// Next replays the fragment sequence one chunk at a time. It is finite and
// not restartable; ok is false once the sequence is exhausted.
func (c *Completion) Next() (fragment string, ok bool) {
	if c.pos >= len(c.fragments) {
		return "", false
	}
	f := c.fragments[c.pos]
	c.pos++
	return f, true
}

type Generator struct {
	cfg    Config
	caller caller
}

func New(cfg Config) (*Generator, error) {
	var c caller
	var err error
	switch cfg.Backend {
	case BackendOllama:
		c = newOllamaCaller(cfg)
	case BackendOpenRouter:
		c, err = newOpenRouterCaller(cfg)
	case BackendAnthropic:
		c, err = newAnthropicCaller(cfg)
	default:
		err = fmt.Errorf("unknown backend %q", cfg.Backend)
	}
	if err != nil {
		return nil, err
	}
	return &Generator{cfg: cfg, caller: c}, nil
}

func (g *Generator) Backend() Backend { return g.cfg.Backend }

// Generate runs one schema-constrained completion. onFragment, when non-nil,
// observes raw fragments as they arrive from the backend; the returned
// Completion is only produced after the full response validated against
// schema, and save (when non-nil) has already run.
//
// The free-tier backend does not enforce the schema server-side, so a
// validation failure there gets a single re-prompt with feedback before the
// error is surfaced. The other backends fail immediately.
func (g *Generator) Generate(ctx context.Context, prompt string, schema Schema, save SaveFn, onFragment func(string)) (*Completion, error) {
	attempts := 1
	if g.cfg.Backend == BackendOpenRouter {
		attempts = 2
	}

	var lastErr error
	fullPrompt := prompt
	for attempt := 1; attempt <= attempts; attempt++ {
		var fragments []string
		collect := func(f string) {
			fragments = append(fragments, f)
			if onFragment != nil {
				onFragment(f)
			}
		}

		raw, err := g.caller.generate(ctx, fullPrompt, schema, collect)
		if err != nil {
			return nil, err
		}

		out := schema.New()
		clean := stripCodeFences(raw)
		if err := json.Unmarshal([]byte(clean), out); err != nil {
			lastErr = &SchemaValidationError{Schema: schema.Name, Err: err}
			fullPrompt = prompt + "\n\nYour previous response was not valid JSON. Respond with only valid JSON matching the schema."
			continue
		}
		if err := validateOutput(out); err != nil {
			lastErr = &SchemaValidationError{Schema: schema.Name, Err: err}
			fullPrompt = fmt.Sprintf("%s\n\nYour previous response failed validation: %s. Fix these issues and respond with only valid JSON matching the schema.", prompt, err)
			continue
		}

		canonical, err := json.MarshalIndent(out, "", "  ")
		if err != nil {
			return nil, err
		}
		if save != nil {
			if err := save(canonical); err != nil {
				return nil, fmt.Errorf("persist %s result: %w", schema.Name, err)
			}
		}
		return &Completion{Value: out, Raw: canonical, fragments: fragments}, nil
	}
	return nil, lastErr
}

func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		parts := strings.SplitN(s, "\n", 2)
		if len(parts) == 2 {
			s = parts[1]
		}
		s = strings.TrimPrefix(s, "json")
		s = strings.TrimSpace(strings.TrimSuffix(s, "```"))
	}
	return s
}
