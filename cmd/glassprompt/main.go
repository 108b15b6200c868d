package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/geauxailabs/glassprompt/internal/assistant"
	"github.com/geauxailabs/glassprompt/internal/brain"
	"github.com/geauxailabs/glassprompt/internal/config"
	"github.com/geauxailabs/glassprompt/internal/convo"
	"github.com/geauxailabs/glassprompt/internal/device"
	"github.com/geauxailabs/glassprompt/internal/observability"
	"github.com/geauxailabs/glassprompt/internal/refresh"
	"github.com/geauxailabs/glassprompt/internal/webapp"
)

func main() {
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config error")
	}

	metrics := observability.NewMetrics(cfg.MetricsNamespace)

	adapter, err := brain.NewAdapter(brain.Config{
		Provider:     cfg.AIProvider,
		Model:        cfg.AIModel,
		OpenAIKey:    cfg.OpenAIAPIKey,
		AnthropicKey: cfg.AnthropicAPIKey,
		OllamaHost:   cfg.OllamaHost,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("provider adapter init failed")
	}

	store := convo.NewStore()
	registry := device.NewRegistry()

	display := assistant.NewDisplayDriver(store, registry, metrics, assistant.DisplayConfig{
		CharsPerLine: cfg.DisplayCharsPerLine,
		LinesPerPage: cfg.DisplayLinesPerPage,
		PageDelay:    cfg.PageDelay,
	})
	processor := assistant.NewPromptProcessor(store, registry, adapter, display, metrics)
	transport := device.NewTransport(registry, processor, metrics, cfg.AllowAnyOrigin)
	policy := refresh.NewPolicy(cfg.RefreshFast, cfg.RefreshSlow)

	server := webapp.NewServer(cfg.OwnerID, store, registry, processor, policy, transport)
	httpServer := &http.Server{
		Addr:    cfg.BindAddr,
		Handler: server,
	}

	go func() {
		log.Info().
			Str("addr", cfg.BindAddr).
			Str("provider", adapter.Name()).
			Str("model", cfg.AIModel).
			Str("owner_id", cfg.OwnerID).
			Msg("server listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("listen error")
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	log.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("graceful shutdown failed")
		_ = httpServer.Close()
	}

	log.Info().Msg("shutdown complete")
}
