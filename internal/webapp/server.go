// Package webapp serves the phone-facing companion page: a polling HTML view
// of the conversation plus the mutation endpoints (typed prompt, mic toggle,
// history clear) and the device websocket mount.
package webapp

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/geauxailabs/glassprompt/internal/assistant"
	"github.com/geauxailabs/glassprompt/internal/convo"
	"github.com/geauxailabs/glassprompt/internal/device"
	"github.com/geauxailabs/glassprompt/internal/observability"
	"github.com/geauxailabs/glassprompt/internal/refresh"
)

const (
	micMutedSplash = "Mic muted.\nButton navigation still works."
	micLiveSplash  = "Mic live.\nSpeak to send prompts."
)

// Server wires the web surface together. All conversation endpoints operate
// on the single configured owner.
type Server struct {
	ownerID   string
	store     *convo.Store
	registry  *device.Registry
	processor *assistant.PromptProcessor
	policy    refresh.Policy
	transport *device.Transport
	router    chi.Router
}

func NewServer(
	ownerID string,
	store *convo.Store,
	registry *device.Registry,
	processor *assistant.PromptProcessor,
	policy refresh.Policy,
	transport *device.Transport,
) *Server {
	s := &Server{
		ownerID:   ownerID,
		store:     store,
		registry:  registry,
		processor: processor,
		policy:    policy,
		transport: transport,
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/", s.handleWebview)
	r.Get("/webview", s.handleWebview)
	r.Post("/prompt", s.handlePrompt)
	r.Post("/mic", s.handleMicToggle)
	r.Post("/clear", s.handleClear)

	r.Get("/v1/device/ws", transport.ServeWS)

	r.Get("/healthz", s.handleHealthz)
	r.Get("/readyz", s.handleHealthz)
	r.Method(http.MethodGet, "/metrics", observability.MetricsHandler())

	s.router = r
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

type bubble struct {
	Role    string
	Content string
}

type pageData struct {
	RefreshSeconds int
	Connected      bool
	Processing     bool
	MicMuted       bool
	History        []bubble
	PageIndexHuman int
	PageCount      int
}

// handleWebview renders one poll of the conversation page. Evaluating the
// refresh policy here is what consumes the one-shot pending-refresh signal.
func (s *Server) handleWebview(w http.ResponseWriter, r *http.Request) {
	interval := s.policy.ForUser(s.store, s.ownerID)
	snap := s.store.Snapshot(s.ownerID)

	data := pageData{
		RefreshSeconds: int(interval / time.Second),
		Connected:      s.registry.IsConnected(s.ownerID),
		Processing:     snap.Processing,
		MicMuted:       snap.MicMuted,
		PageIndexHuman: snap.PageIndex + 1,
		PageCount:      len(snap.Pages),
	}
	for _, msg := range snap.History {
		data.History = append(data.History, bubble{Role: string(msg.Role), Content: msg.Content})
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	if err := webviewTmpl.Execute(w, data); err != nil {
		log.Error().Err(err).Msg("webview render failed")
	}
}

// handlePrompt accepts a typed prompt and returns immediately; the turn runs
// in the background.
func (s *Server) handlePrompt(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}
	s.processor.SubmitTyped(r.Context(), s.ownerID, r.PostFormValue("prompt"))
	http.Redirect(w, r, "/webview", http.StatusSeeOther)
}

func (s *Server) handleMicToggle(w http.ResponseWriter, r *http.Request) {
	muted := s.store.ToggleMic(s.ownerID)
	log.Info().Str("user_id", s.ownerID).Bool("mic_muted", muted).Msg("mic toggled")
	if h, ok := s.registry.Lookup(s.ownerID); ok {
		splash := micLiveSplash
		if muted {
			splash = micMutedSplash
		}
		_ = h.ShowText(splash)
	}
	http.Redirect(w, r, "/webview", http.StatusSeeOther)
}

func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	s.store.Clear(s.ownerID)
	log.Info().Str("user_id", s.ownerID).Msg("history cleared from web")
	if h, ok := s.registry.Lookup(s.ownerID); ok {
		_ = h.ShowText("History cleared.\nReady for new prompts.")
	}
	http.Redirect(w, r, "/webview", http.StatusSeeOther)
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}
