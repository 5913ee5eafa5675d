package planner

import (
	"context"
	"fmt"

	"gofer/internal/config"
)

// New creates the planner backend selected by the configuration.
func New(ctx context.Context, cfg *config.Config) (Planner, error) {
	switch cfg.API.Provider {
	case "gemini", "":
		return NewGeminiPlanner(ctx, cfg)
	case "ollama":
		return NewOllamaPlanner(cfg)
	default:
		return nil, fmt.Errorf("unknown provider: %q (want gemini or ollama)", cfg.API.Provider)
	}
}
