// Package llm talks to the chat-completion providers behind the hosted
// summarize, chat and translate functions.
package llm

import (
	"context"
	"errors"
	"fmt"

	"github.com/BerylCAtieno/loanmitra/internal/config"
	"github.com/BerylCAtieno/loanmitra/internal/utils"
)

// ErrNotConfigured is returned when no provider credentials are set.
var ErrNotConfigured = errors.New("LLM API key not configured")

type Request struct {
	System    string
	User      string
	MaxTokens int
}

// Completer returns the assistant text for a single system+user exchange.
type Completer interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// New builds the completer for cfg.LLMProvider. A missing key yields a
// completer that fails every call with ErrNotConfigured, so the server can
// still start.
func New(ctx context.Context, cfg *config.Config, logger *utils.Logger) (Completer, error) {
	if cfg.LLMAPIKey == "" {
		logger.Warn("LLM_API_KEY not set; AI functions will answer not_configured", "provider", cfg.LLMProvider)
		return unconfigured{}, nil
	}

	switch cfg.LLMProvider {
	case "openrouter":
		return NewOpenRouter(cfg.LLMAPIKey, cfg.LLMModel, cfg.LLMBaseURL, logger), nil
	case "openai", "claude", "gemini":
		return NewEino(ctx, cfg.LLMProvider, cfg.LLMAPIKey, cfg.LLMModel, cfg.LLMBaseURL)
	default:
		return nil, fmt.Errorf("unknown LLM provider %q", cfg.LLMProvider)
	}
}

type unconfigured struct{}

func (unconfigured) Complete(context.Context, Request) (string, error) {
	return "", ErrNotConfigured
}
