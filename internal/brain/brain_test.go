package brain

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/geauxailabs/glassprompt/internal/convo"
)

func TestOpenAICompleteInjectsSystemPrompt(t *testing.T) {
	var got openAIRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/chat/completions", r.URL.Path)
		require.Equal(t, "Bearer key-123", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]string{"role": "assistant", "content": "The capital of France is Paris."}},
			},
		})
	}))
	defer srv.Close()

	a := NewOpenAIAdapter("key-123", "gpt-4o-mini")
	a.baseURL = srv.URL

	text, err := a.Complete(context.Background(), []convo.Message{
		{Role: convo.RoleUser, Content: "What is the capital of France?"},
	})
	require.NoError(t, err)
	assert.Equal(t, "The capital of France is Paris.", text)

	require.Len(t, got.Messages, 2)
	assert.Equal(t, "system", got.Messages[0].Role)
	assert.Equal(t, systemPrompt, got.Messages[0].Content)
	assert.Equal(t, "user", got.Messages[1].Role)
	assert.Equal(t, 300, got.MaxTokens)
}

func TestOpenAICompleteNonSuccessIsProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "upstream exploded", http.StatusInternalServerError)
	}))
	defer srv.Close()

	a := NewOpenAIAdapter("key-123", "gpt-4o-mini")
	a.baseURL = srv.URL

	_, err := a.Complete(context.Background(), nil)
	var perr *ProviderError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "openai", perr.Provider)
	assert.Equal(t, http.StatusInternalServerError, perr.Status)
	assert.Contains(t, perr.Message, "upstream exploded")
}

func TestOpenAICompleteEmptyChoicesFallsBack(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"choices": []any{}})
	}))
	defer srv.Close()

	a := NewOpenAIAdapter("key-123", "gpt-4o-mini")
	a.baseURL = srv.URL

	text, err := a.Complete(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, emptyReply, text)
}

func TestAnthropicCompleteUsesSystemFieldAndTextBlock(t *testing.T) {
	var got anthropicRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/messages", r.URL.Path)
		require.Equal(t, "key-abc", r.Header.Get("x-api-key"))
		require.Equal(t, anthropicVersion, r.Header.Get("anthropic-version"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_ = json.NewEncoder(w).Encode(map[string]any{
			"content": []map[string]string{
				{"type": "thinking", "text": "hmm"},
				{"type": "text", "text": "Paris."},
			},
		})
	}))
	defer srv.Close()

	a := NewAnthropicAdapter("key-abc", "claude-sonnet")
	a.baseURL = srv.URL

	text, err := a.Complete(context.Background(), []convo.Message{
		{Role: convo.RoleUser, Content: "Capital of France?"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Paris.", text)

	// System prompt travels as a top-level field, never inside messages.
	assert.Equal(t, systemPrompt, got.System)
	require.Len(t, got.Messages, 1)
	assert.Equal(t, "user", got.Messages[0].Role)
}

func TestOllamaCompleteDisablesStreaming(t *testing.T) {
	var got ollamaRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/chat", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_ = json.NewEncoder(w).Encode(map[string]any{
			"message": map[string]string{"role": "assistant", "content": "  Paris.  "},
		})
	}))
	defer srv.Close()

	a := NewOllamaAdapter(srv.URL+"/", "llama3.2")

	text, err := a.Complete(context.Background(), []convo.Message{
		{Role: convo.RoleUser, Content: "Capital of France?"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Paris.", text)
	assert.False(t, got.Stream)
	assert.Equal(t, "llama3.2", got.Model)
}

func TestNewAdapterValidation(t *testing.T) {
	_, err := NewAdapter(Config{Provider: "openai"})
	require.Error(t, err)

	_, err = NewAdapter(Config{Provider: "anthropic"})
	require.Error(t, err)

	_, err = NewAdapter(Config{Provider: "bard"})
	require.Error(t, err)

	a, err := NewAdapter(Config{Provider: "mock"})
	require.NoError(t, err)
	assert.Equal(t, "mock", a.Name())

	a, err = NewAdapter(Config{Provider: "ollama", OllamaHost: "http://localhost:11434"})
	require.NoError(t, err)
	assert.Equal(t, "ollama", a.Name())
}

func TestMockAdapterEchoesAndRecords(t *testing.T) {
	a := NewMockAdapter()
	text, err := a.Complete(context.Background(), []convo.Message{
		{Role: convo.RoleUser, Content: "hello there"},
	})
	require.NoError(t, err)
	assert.Equal(t, "I heard you: hello there", text)
	require.Len(t, a.Calls(), 1)

	a.Err = errors.New("boom")
	_, err = a.Complete(context.Background(), nil)
	require.Error(t, err)
}
