package ai

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/biioon/reforco-escolar/internal/config"
)

// NewClient creates a completion Client based on the configured provider.
// It acts as a factory, selecting either the OpenAI-compatible or Gemini
// implementation.
func NewClient(ctx context.Context, cfg config.AIConfig, log *slog.Logger) (Client, error) {
	log.Info("initializing completion client", "provider", cfg.Provider, "model", cfg.Model)

	switch cfg.Provider {
	case "openai":
		client, err := newOpenAIClient(cfg, log)
		if err != nil {
			return nil, fmt.Errorf("failed to create openai client: %w", err)
		}
		return client, nil
	case "gemini":
		client, err := newGeminiClient(ctx, cfg, log)
		if err != nil {
			return nil, fmt.Errorf("failed to create gemini client: %w", err)
		}
		return client, nil
	default:
		return nil, fmt.Errorf("unknown completion provider: %s", cfg.Provider)
	}
}
