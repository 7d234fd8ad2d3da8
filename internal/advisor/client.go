package advisor

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Client is the boundary to the external text-generation service. The
// returned text is opaque and is never parsed.
type Client interface {
	Complete(ctx context.Context, req Request) (string, error)
	Provider() string
}

type Config struct {
	Provider      string
	BaseURL       string
	Model         string
	APIKey        string
	Timeout       time.Duration
	MaxInputChars int
}

const (
	DefaultTimeout       = 60 * time.Second
	DefaultMaxInputChars = 6000
)

// NewClient creates a client for the configured provider. Provider "none"
// (or empty) returns a nil client, which the Advisor reports as disabled.
// Supported providers: "openai", "ollama", "none".
func NewClient(cfg Config) (Client, error) {
	if cfg.MaxInputChars == 0 {
		cfg.MaxInputChars = DefaultMaxInputChars
	}
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case "", "none":
		return nil, nil
	case "openai":
		if cfg.APIKey == "" && cfg.BaseURL == "" {
			return nil, fmt.Errorf("openai provider needs an API key")
		}
		return NewOpenAIClient(cfg), nil
	case "ollama":
		return NewOllamaClient(cfg), nil
	default:
		return nil, fmt.Errorf("unknown advisor provider: %q", cfg.Provider)
	}
}
