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

// OllamaAdapter calls a local Ollama server's chat endpoint.
type OllamaAdapter struct {
	host   string
	model  string
	client *http.Client
}

func NewOllamaAdapter(host, model string) *OllamaAdapter {
	return &OllamaAdapter{
		host:   strings.TrimRight(strings.TrimSpace(host), "/"),
		model:  model,
		client: newHTTPClient(),
	}
}

func (a *OllamaAdapter) Name() string { return "ollama" }

type ollamaRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
}

type ollamaResponse struct {
	Message chatMessage `json:"message"`
}

func (a *OllamaAdapter) Complete(ctx context.Context, history []convo.Message) (string, error) {
	payload, err := json.Marshal(ollamaRequest{
		Model:    a.model,
		Messages: withSystemPrompt(history),
		Stream:   false,
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.host+"/api/chat", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := a.client.Do(req)
	if err != nil {
		return "", &ProviderError{Provider: a.Name(), Message: err.Error()}
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return "", &ProviderError{Provider: a.Name(), Status: res.StatusCode, Message: readErrorBody(res.Body)}
	}

	var out ollamaResponse
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return "", &ProviderError{Provider: a.Name(), Message: fmt.Sprintf("decode response: %v", err)}
	}
	text := strings.TrimSpace(out.Message.Content)
	if text == "" {
		return emptyReply, nil
	}
	return text, nil
}
