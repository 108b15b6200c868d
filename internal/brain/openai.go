package brain

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/geauxailabs/glassprompt/internal/convo"
)

const openAIDefaultBaseURL = "https://api.openai.com"

// OpenAIAdapter calls the OpenAI chat completions endpoint.
type OpenAIAdapter struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
}

func NewOpenAIAdapter(apiKey, model string) *OpenAIAdapter {
	return &OpenAIAdapter{
		apiKey:  apiKey,
		model:   model,
		baseURL: openAIDefaultBaseURL,
		client:  newHTTPClient(),
	}
}

func (a *OpenAIAdapter) Name() string { return "openai" }

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIRequest struct {
	Model     string        `json:"model"`
	Messages  []chatMessage `json:"messages"`
	MaxTokens int           `json:"max_tokens"`
}

type openAIResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

func (a *OpenAIAdapter) Complete(ctx context.Context, history []convo.Message) (string, error) {
	payload, err := json.Marshal(openAIRequest{
		Model:     a.model,
		Messages:  withSystemPrompt(history),
		MaxTokens: 300,
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/v1/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+a.apiKey)

	res, err := a.client.Do(req)
	if err != nil {
		return "", &ProviderError{Provider: a.Name(), Message: err.Error()}
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return "", &ProviderError{Provider: a.Name(), Status: res.StatusCode, Message: readErrorBody(res.Body)}
	}

	var out openAIResponse
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return "", &ProviderError{Provider: a.Name(), Message: fmt.Sprintf("decode response: %v", err)}
	}
	if len(out.Choices) == 0 {
		return emptyReply, nil
	}
	text := strings.TrimSpace(out.Choices[0].Message.Content)
	if text == "" {
		return emptyReply, nil
	}
	return text, nil
}

func withSystemPrompt(history []convo.Message) []chatMessage {
	msgs := make([]chatMessage, 0, len(history)+1)
	msgs = append(msgs, chatMessage{Role: "system", Content: systemPrompt})
	for _, m := range history {
		msgs = append(msgs, chatMessage{Role: string(m.Role), Content: m.Content})
	}
	return msgs
}

func readErrorBody(body io.Reader) string {
	b, _ := io.ReadAll(io.LimitReader(body, 4<<10))
	return strings.TrimSpace(string(b))
}
