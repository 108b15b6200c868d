package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config contains all runtime settings for the glasses relay service.
type Config struct {
	BindAddr         string
	ShutdownTimeout  time.Duration
	MetricsNamespace string

	AllowAnyOrigin bool

	// OwnerID is the single user identity whose conversation the web page
	// mirrors. The service refuses to start without it.
	OwnerID string

	AIProvider      string
	AIModel         string
	OpenAIAPIKey    string
	AnthropicAPIKey string
	OllamaHost      string

	PageDelay           time.Duration
	DisplayCharsPerLine int
	DisplayLinesPerPage int

	RefreshFast time.Duration
	RefreshSlow time.Duration
}

// Load reads environment variables and applies safe defaults.
func Load() (Config, error) {
	cfg := Config{
		BindAddr:            envOrDefault("APP_BIND_ADDR", ":3000"),
		MetricsNamespace:    envOrDefault("APP_METRICS_NAMESPACE", "glassprompt"),
		AllowAnyOrigin:      false,
		OwnerID:             envTrimmed("OWNER_ID"),
		AIProvider:          envOrDefault("AI_PROVIDER", "ollama"),
		AIModel:             envOrDefault("AI_MODEL", "llama3.2"),
		OpenAIAPIKey:        envTrimmed("OPENAI_API_KEY"),
		AnthropicAPIKey:     envTrimmed("ANTHROPIC_API_KEY"),
		OllamaHost:          envOrDefault("OLLAMA_HOST", "http://localhost:11434"),
		PageDelay:           5 * time.Second,
		DisplayCharsPerLine: 38,
		DisplayLinesPerPage: 5,
		RefreshFast:         4 * time.Second,
		RefreshSlow:         time.Hour,
		ShutdownTimeout:     15 * time.Second,
	}

	var err error
	cfg.ShutdownTimeout, err = durationFromEnv("APP_SHUTDOWN_TIMEOUT", cfg.ShutdownTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.PageDelay, err = durationFromEnv("PAGE_DELAY", cfg.PageDelay)
	if err != nil {
		return Config{}, err
	}
	cfg.RefreshFast, err = durationFromEnv("WEB_REFRESH_FAST", cfg.RefreshFast)
	if err != nil {
		return Config{}, err
	}
	cfg.RefreshSlow, err = durationFromEnv("WEB_REFRESH_SLOW", cfg.RefreshSlow)
	if err != nil {
		return Config{}, err
	}
	cfg.DisplayCharsPerLine, err = intFromEnv("DISPLAY_CHARS_PER_LINE", cfg.DisplayCharsPerLine)
	if err != nil {
		return Config{}, err
	}
	cfg.DisplayLinesPerPage, err = intFromEnv("DISPLAY_LINES_PER_PAGE", cfg.DisplayLinesPerPage)
	if err != nil {
		return Config{}, err
	}
	cfg.AllowAnyOrigin, err = boolFromEnv("APP_ALLOW_ANY_ORIGIN", cfg.AllowAnyOrigin)
	if err != nil {
		return Config{}, err
	}

	if cfg.OwnerID == "" {
		return Config{}, fmt.Errorf("OWNER_ID must be set")
	}
	switch strings.ToLower(strings.TrimSpace(cfg.AIProvider)) {
	case "ollama", "openai", "anthropic", "mock":
	default:
		return Config{}, fmt.Errorf("invalid AI_PROVIDER: %q (expected ollama|openai|anthropic|mock)", cfg.AIProvider)
	}
	if cfg.PageDelay < 100*time.Millisecond {
		return Config{}, fmt.Errorf("PAGE_DELAY must be at least 100ms")
	}
	if cfg.DisplayCharsPerLine <= 0 {
		return Config{}, fmt.Errorf("DISPLAY_CHARS_PER_LINE must be positive")
	}
	if cfg.DisplayLinesPerPage <= 0 {
		return Config{}, fmt.Errorf("DISPLAY_LINES_PER_PAGE must be positive")
	}
	if cfg.RefreshFast <= 0 || cfg.RefreshSlow <= 0 {
		return Config{}, fmt.Errorf("refresh intervals must be positive")
	}
	if cfg.RefreshFast > cfg.RefreshSlow {
		return Config{}, fmt.Errorf("WEB_REFRESH_FAST must not exceed WEB_REFRESH_SLOW")
	}

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func envTrimmed(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func durationFromEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := envTrimmed(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return d, nil
}

func intFromEnv(key string, fallback int) (int, error) {
	v := envTrimmed(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return n, nil
}

func boolFromEnv(key string, fallback bool) (bool, error) {
	v := strings.ToLower(envTrimmed(key))
	if v == "" {
		return fallback, nil
	}
	switch v {
	case "1", "true", "t", "yes", "y", "on":
		return true, nil
	case "0", "false", "f", "no", "n", "off":
		return false, nil
	default:
		return false, fmt.Errorf("%s parse error: expected bool", key)
	}
}
