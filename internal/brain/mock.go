package brain

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/geauxailabs/glassprompt/internal/convo"
)

// MockAdapter provides deterministic local replies when no real provider is
// configured, and doubles as the test double for turn-level tests.
type MockAdapter struct {
	mu    sync.Mutex
	Reply string
	Err   error
	calls [][]convo.Message
}

func NewMockAdapter() *MockAdapter { return &MockAdapter{} }

func (a *MockAdapter) Name() string { return "mock" }

func (a *MockAdapter) Complete(ctx context.Context, history []convo.Message) (string, error) {
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	default:
	}

	a.mu.Lock()
	a.calls = append(a.calls, append([]convo.Message(nil), history...))
	reply, err := a.Reply, a.Err
	a.mu.Unlock()

	if err != nil {
		return "", err
	}
	if reply != "" {
		return reply, nil
	}

	last := ""
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Role == convo.RoleUser {
			last = strings.TrimSpace(history[i].Content)
			break
		}
	}
	if last == "" {
		return "I am listening.", nil
	}
	return fmt.Sprintf("I heard you: %s", last), nil
}

// Calls returns a copy of every history the adapter was invoked with.
func (a *MockAdapter) Calls() [][]convo.Message {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([][]convo.Message(nil), a.calls...)
}
