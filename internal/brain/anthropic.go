package brain

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/geauxailabs/glassprompt/internal/convo"
)

const (
	anthropicDefaultBaseURL = "https://api.anthropic.com"
	anthropicVersion        = "2023-06-01"
)

// AnthropicAdapter calls the Anthropic messages endpoint. Anthropic takes
// the system instruction as a top-level field, not a history entry.
type AnthropicAdapter struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
}

func NewAnthropicAdapter(apiKey, model string) *AnthropicAdapter {
	return &AnthropicAdapter{
		apiKey:  apiKey,
		model:   model,
		baseURL: anthropicDefaultBaseURL,
		client:  newHTTPClient(),
	}
}

func (a *AnthropicAdapter) Name() string { return "anthropic" }

type anthropicRequest struct {
	Model     string        `json:"model"`
	System    string        `json:"system"`
	Messages  []chatMessage `json:"messages"`
	MaxTokens int           `json:"max_tokens"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

func (a *AnthropicAdapter) Complete(ctx context.Context, history []convo.Message) (string, error) {
	msgs := make([]chatMessage, 0, len(history))
	for _, m := range history {
		msgs = append(msgs, chatMessage{Role: string(m.Role), Content: m.Content})
	}

	payload, err := json.Marshal(anthropicRequest{
		Model:     a.model,
		System:    systemPrompt,
		Messages:  msgs,
		MaxTokens: 300,
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/v1/messages", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", a.apiKey)
	req.Header.Set("anthropic-version", anthropicVersion)

	res, err := a.client.Do(req)
	if err != nil {
		return "", &ProviderError{Provider: a.Name(), Message: err.Error()}
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return "", &ProviderError{Provider: a.Name(), Status: res.StatusCode, Message: readErrorBody(res.Body)}
	}

	var out anthropicResponse
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return "", &ProviderError{Provider: a.Name(), Message: fmt.Sprintf("decode response: %v", err)}
	}
	for _, block := range out.Content {
		if block.Type != "text" {
			continue
		}
		if text := strings.TrimSpace(block.Text); text != "" {
			return text, nil
		}
	}
	return emptyReply, nil
}
