package assistant

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/geauxailabs/glassprompt/internal/brain"
	"github.com/geauxailabs/glassprompt/internal/convo"
	"github.com/geauxailabs/glassprompt/internal/device"
	"github.com/geauxailabs/glassprompt/internal/observability"
)

const (
	// Shorter final transcriptions are treated as noise, not prompts.
	minTranscriptLen = 3

	thinkingEchoMax = 60
	errorDetailMax  = 80

	fallbackReply = "No response."
)

// PromptProcessor runs one prompt turn end to end. Exactly one turn per user
// may be in flight; anything arriving while the latch is held is dropped, not
// queued.
type PromptProcessor struct {
	store    *convo.Store
	registry *device.Registry
	adapter  brain.Adapter
	display  *DisplayDriver
	metrics  *observability.Metrics
}

func NewPromptProcessor(store *convo.Store, registry *device.Registry, adapter brain.Adapter, display *DisplayDriver, metrics *observability.Metrics) *PromptProcessor {
	return &PromptProcessor{
		store:    store,
		registry: registry,
		adapter:  adapter,
		display:  display,
		metrics:  metrics,
	}
}

// HandleTranscription accepts speech-to-text output from the device. Only
// final transcriptions of a useful length start a turn, and only while the
// mic is live.
func (p *PromptProcessor) HandleTranscription(ctx context.Context, userID, text string, isFinal bool) {
	if !isFinal {
		return
	}
	text = strings.TrimSpace(text)
	if len([]rune(text)) < minTranscriptLen {
		p.drop(userID, "too_short")
		return
	}
	if p.store.Snapshot(userID).MicMuted {
		p.drop(userID, "muted")
		return
	}
	p.runTurn(ctx, userID, text, "voice")
}

// SubmitTyped accepts a typed prompt from the web surface. It returns
// immediately; the turn runs in the background. The pending-refresh flag is
// raised first so the next web poll keeps its fast interval even if the turn
// has not visibly started yet.
func (p *PromptProcessor) SubmitTyped(ctx context.Context, userID, text string) {
	text = strings.TrimSpace(text)
	if text == "" {
		p.drop(userID, "empty")
		return
	}
	if !p.registry.IsConnected(userID) {
		p.drop(userID, "no_device")
		return
	}
	p.store.MarkPendingRefresh(userID)
	// The caller's request context ends at the redirect; the turn outlives it.
	go p.runTurn(context.WithoutCancel(ctx), userID, text, "typed")
}

// HandleButtonPress classifies a physical control event and applies it to
// the display. Firmware button fields are unreliable; unknown values fall
// through to forward navigation rather than being rejected.
func (p *PromptProcessor) HandleButtonPress(_ context.Context, userID, pressClass, sideHint string) {
	p.display.Navigate(userID, classifyButton(pressClass, sideHint))
}

func classifyButton(pressClass, sideHint string) NavAction {
	switch strings.ToLower(strings.TrimSpace(pressClass)) {
	case "long", "long_press":
		return NavClear
	}
	switch strings.ToLower(strings.TrimSpace(sideHint)) {
	case "left", "back", "prev", "previous":
		return NavPrevious
	}
	return NavNext
}

func (p *PromptProcessor) runTurn(ctx context.Context, userID, prompt, source string) {
	if !p.store.TryBeginTurn(userID) {
		p.drop(userID, "busy")
		return
	}

	turnID := uuid.NewString()
	start := time.Now()
	log.Info().Str("turn_id", turnID).Str("user_id", userID).Str("source", source).Msg("turn started")

	p.display.showText(userID, "Thinking...\n\""+Truncate(prompt, thinkingEchoMax)+"\"")

	p.store.AppendUser(userID, prompt)
	history := p.store.Snapshot(userID).History

	reply, err := p.adapter.Complete(ctx, history)
	if err != nil {
		p.failTurn(userID, turnID, err)
		return
	}

	sanitized := StripMarkdown(reply)
	if sanitized == "" {
		sanitized = fallbackReply
	}
	p.store.AppendAssistant(userID, sanitized)

	// Release the latch before walking the display: the answer is already in
	// history and the slideshow may take many seconds.
	p.store.EndTurn(userID)

	p.metrics.Turns.WithLabelValues("ok").Inc()
	p.metrics.ObserveTurnLatency(time.Since(start))
	log.Info().Str("turn_id", turnID).Str("user_id", userID).Dur("elapsed", time.Since(start)).Msg("turn completed")

	p.display.ShowResponse(userID, sanitized)
}

func (p *PromptProcessor) failTurn(userID, turnID string, err error) {
	provider, status := p.adapter.Name(), 0
	var perr *brain.ProviderError
	if errors.As(err, &perr) {
		provider, status = perr.Provider, perr.Status
	}
	p.metrics.ProviderErrors.WithLabelValues(provider, statusLabel(status)).Inc()
	p.metrics.Turns.WithLabelValues("error").Inc()
	log.Warn().Str("turn_id", turnID).Str("user_id", userID).Err(err).Msg("turn failed")

	p.display.showText(userID, "Error:\n"+Truncate(err.Error(), errorDetailMax))
	p.store.RollbackUser(userID)
	p.store.EndTurn(userID)
}

func statusLabel(status int) string {
	if status == 0 {
		return "network"
	}
	return strconv.Itoa(status)
}

func (p *PromptProcessor) drop(userID, reason string) {
	p.metrics.DroppedInputs.WithLabelValues(reason).Inc()
	log.Debug().Str("user_id", userID).Str("reason", reason).Msg("input dropped")
}
