// Package brain sends conversation history to a chat-completion provider
// and returns the assistant's raw reply. No streaming: the glasses display
// only ever shows finished, paginated text.
package brain

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/geauxailabs/glassprompt/internal/convo"
)

// systemPrompt keeps replies short enough to read on a glasses display.
const systemPrompt = "You are a concise AI assistant on smart glasses. " +
	"Give short clear answers, 2-4 sentences max. No markdown, no bullet points, plain sentences only."

// emptyReply is substituted when a provider returns a well-formed but empty
// completion body.
const emptyReply = "No response."

// completionTimeout bounds a single provider call. A timeout surfaces as a
// ProviderError like any other transport failure.
const completionTimeout = 60 * time.Second

// ProviderError reports a failed completion call. It is the only failure
// class ever shown to the end user.
type ProviderError struct {
	Provider string
	Status   int
	Message  string
}

func (e *ProviderError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("%s error %d", e.Provider, e.Status)
	}
	return fmt.Sprintf("%s error: %s", e.Provider, e.Message)
}

// Adapter produces one assistant completion for the given history.
type Adapter interface {
	Complete(ctx context.Context, history []convo.Message) (string, error)
	Name() string
}

// Config controls adapter construction.
type Config struct {
	Provider     string
	Model        string
	OpenAIKey    string
	AnthropicKey string
	OllamaHost   string
}

func NewAdapter(cfg Config) (Adapter, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case "", "ollama":
		host := strings.TrimSpace(cfg.OllamaHost)
		if host == "" {
			return nil, errors.New("ollama host is required for ollama provider")
		}
		return NewOllamaAdapter(host, cfg.Model), nil
	case "openai":
		if strings.TrimSpace(cfg.OpenAIKey) == "" {
			return nil, errors.New("OPENAI_API_KEY is required for openai provider")
		}
		return NewOpenAIAdapter(cfg.OpenAIKey, cfg.Model), nil
	case "anthropic":
		if strings.TrimSpace(cfg.AnthropicKey) == "" {
			return nil, errors.New("ANTHROPIC_API_KEY is required for anthropic provider")
		}
		return NewAnthropicAdapter(cfg.AnthropicKey, cfg.Model), nil
	case "mock":
		return NewMockAdapter(), nil
	default:
		return nil, fmt.Errorf("unsupported provider %q", cfg.Provider)
	}
}

func newHTTPClient() *http.Client {
	return &http.Client{Timeout: completionTimeout}
}
