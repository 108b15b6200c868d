package assistant

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/geauxailabs/glassprompt/internal/brain"
	"github.com/geauxailabs/glassprompt/internal/convo"
	"github.com/geauxailabs/glassprompt/internal/device"
	"github.com/geauxailabs/glassprompt/internal/observability"
)

// blockingAdapter holds every Complete call until released, so tests can
// observe the in-flight state deterministically.
type blockingAdapter struct {
	entered chan struct{}
	release chan struct{}
	reply   string
}

func newBlockingAdapter(reply string) *blockingAdapter {
	return &blockingAdapter{
		entered: make(chan struct{}, 8),
		release: make(chan struct{}),
		reply:   reply,
	}
}

func (a *blockingAdapter) Name() string { return "mock" }

func (a *blockingAdapter) Complete(ctx context.Context, _ []convo.Message) (string, error) {
	a.entered <- struct{}{}
	select {
	case <-a.release:
		return a.reply, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

type processorFixture struct {
	store   *convo.Store
	handle  *recordingHandle
	adapter brain.Adapter
	proc    *PromptProcessor
}

func newProcessorFixture(t *testing.T, adapter brain.Adapter, connected bool) *processorFixture {
	t.Helper()
	store := convo.NewStore()
	registry := device.NewRegistry()
	handle := &recordingHandle{}
	if connected {
		registry.Register("u1", handle)
	}
	metrics := observability.NewMetricsWith("test", prometheus.NewRegistry())
	display := NewDisplayDriver(store, registry, metrics, DisplayConfig{CharsPerLine: 30, LinesPerPage: 5, PageDelay: time.Hour})
	proc := NewPromptProcessor(store, registry, adapter, display, metrics)
	return &processorFixture{store: store, handle: handle, adapter: adapter, proc: proc}
}

func TestVoiceTurnRecordsHistoryAndPaginates(t *testing.T) {
	mock := brain.NewMockAdapter()
	mock.Reply = "The capital of France is Paris."
	f := newProcessorFixture(t, mock, true)

	f.proc.HandleTranscription(context.Background(), "u1", "What is the capital of France?", true)

	snap := f.store.Snapshot("u1")
	if len(snap.History) != 2 {
		t.Fatalf("expected 2 history entries, got %d", len(snap.History))
	}
	if snap.History[0].Role != convo.RoleUser || snap.History[1].Role != convo.RoleAssistant {
		t.Fatalf("unexpected roles: %+v", snap.History)
	}
	if snap.History[1].Content != "The capital of France is Paris." {
		t.Fatalf("unexpected assistant content: %q", snap.History[1].Content)
	}
	if len(snap.Pages) != 1 || snap.Pages[0] != "The capital of France is\nParis." {
		t.Fatalf("unexpected pages: %q", snap.Pages)
	}
	if snap.PageIndex != 0 {
		t.Fatalf("expected page index 0, got %d", snap.PageIndex)
	}
	if snap.Processing {
		t.Fatal("latch must be released after the turn")
	}

	texts := f.handle.rendered()
	if len(texts) != 2 {
		t.Fatalf("expected thinking + answer renders, got %v", texts)
	}
	if !strings.HasPrefix(texts[0], "Thinking...") || !strings.Contains(texts[0], "capital of France") {
		t.Fatalf("unexpected thinking render: %q", texts[0])
	}
}

func TestConcurrentTurnIsDroppedNotQueued(t *testing.T) {
	adapter := newBlockingAdapter("first answer")
	f := newProcessorFixture(t, adapter, true)

	done := make(chan struct{})
	go func() {
		f.proc.HandleTranscription(context.Background(), "u1", "first question", true)
		close(done)
	}()
	<-adapter.entered

	// Second input arrives while the latch is held.
	f.proc.HandleTranscription(context.Background(), "u1", "second question", true)

	if got := len(f.store.Snapshot("u1").History); got != 1 {
		t.Fatalf("second turn must not touch history, got %d entries", got)
	}

	close(adapter.release)
	<-done

	snap := f.store.Snapshot("u1")
	if len(snap.History) != 2 {
		t.Fatalf("expected first turn only, got %d entries", len(snap.History))
	}
	if snap.History[0].Content != "first question" {
		t.Fatalf("unexpected surviving prompt: %q", snap.History[0].Content)
	}
}

func TestProviderFailureRollsBackAndRendersError(t *testing.T) {
	mock := brain.NewMockAdapter()
	mock.Err = &brain.ProviderError{Provider: "openai", Status: 500, Message: "upstream exploded"}
	f := newProcessorFixture(t, mock, true)

	f.proc.HandleTranscription(context.Background(), "u1", "What is the capital of France?", true)

	snap := f.store.Snapshot("u1")
	if len(snap.History) != 0 {
		t.Fatalf("failed turn must roll back the user message, got %+v", snap.History)
	}
	if snap.Processing {
		t.Fatal("latch must be released after a failed turn")
	}

	texts := f.handle.rendered()
	last := texts[len(texts)-1]
	if !strings.HasPrefix(last, "Error:") {
		t.Fatalf("expected error render, got %q", last)
	}
	if len([]rune(last)) > len("Error:\n")+errorDetailMax {
		t.Fatalf("error render too long: %q", last)
	}
}

func TestTranscriptionFiltering(t *testing.T) {
	mock := brain.NewMockAdapter()
	f := newProcessorFixture(t, mock, true)

	f.proc.HandleTranscription(context.Background(), "u1", "interim words", false)
	f.proc.HandleTranscription(context.Background(), "u1", "hi", true)

	f.store.ToggleMic("u1")
	f.proc.HandleTranscription(context.Background(), "u1", "a real question", true)

	if got := len(f.store.Snapshot("u1").History); got != 0 {
		t.Fatalf("filtered inputs must not reach history, got %d entries", got)
	}
	if got := len(mock.Calls()); got != 0 {
		t.Fatalf("filtered inputs must not reach the provider, got %d calls", got)
	}
}

func TestSubmitTypedBridgesRefreshAndRunsTurn(t *testing.T) {
	adapter := newBlockingAdapter("typed answer")
	f := newProcessorFixture(t, adapter, true)

	f.proc.SubmitTyped(context.Background(), "u1", "typed question")
	<-adapter.entered

	snap := f.store.Snapshot("u1")
	if !snap.PendingRefresh {
		t.Fatal("typed prompt must raise the pending-refresh flag")
	}
	if !snap.Processing {
		t.Fatal("turn should be in flight")
	}

	close(adapter.release)
	waitForProcessor(t, func() bool {
		s := f.store.Snapshot("u1")
		return !s.Processing && len(s.History) == 2
	})

	snap = f.store.Snapshot("u1")
	if snap.PendingRefresh {
		t.Fatal("pending-refresh must clear when the turn ends")
	}
	if snap.LastResponse != "typed answer" {
		t.Fatalf("unexpected last response: %q", snap.LastResponse)
	}
}

func TestSubmitTypedWithoutDeviceIsDropped(t *testing.T) {
	mock := brain.NewMockAdapter()
	f := newProcessorFixture(t, mock, false)

	f.proc.SubmitTyped(context.Background(), "u1", "typed question")
	f.proc.SubmitTyped(context.Background(), "u1", "   ")

	time.Sleep(20 * time.Millisecond)
	snap := f.store.Snapshot("u1")
	if len(snap.History) != 0 || snap.PendingRefresh {
		t.Fatalf("dropped prompt must leave no trace, got %+v", snap)
	}
}

func TestClassifyButton(t *testing.T) {
	cases := []struct {
		pressClass string
		sideHint   string
		want       NavAction
	}{
		{"long", "", NavClear},
		{"long_press", "right", NavClear},
		{"short", "left", NavPrevious},
		{"short", "back", NavPrevious},
		{"tap", "prev", NavPrevious},
		{"tap", "PREVIOUS", NavPrevious},
		{"short", "right", NavNext},
		{"short", "", NavNext},
		{"", "mystery_side", NavNext},
	}
	for _, tc := range cases {
		if got := classifyButton(tc.pressClass, tc.sideHint); got != tc.want {
			t.Fatalf("classifyButton(%q, %q) = %q, want %q", tc.pressClass, tc.sideHint, got, tc.want)
		}
	}
}

func waitForProcessor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not reached in time")
}
