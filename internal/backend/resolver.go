package backend

import (
	"context"
	"fmt"
	"log/slog"

	"notewise/internal/config"
	"notewise/internal/generation"
	"notewise/internal/platform/gemini"
	"notewise/internal/platform/hfapi"
	"notewise/internal/platform/localai"
)

// Resolve maps the AI configuration to a concrete provider. It runs at
// startup, before any task is submitted, so a remote backend selected
// without its credential fails fast here rather than inside a worker.
// An unset backend resolves to the local provider.
func Resolve(ctx context.Context, logger *slog.Logger, cfg config.AIConfig) (generation.Provider, Provider, error) {
	name := Provider(cfg.Backend)
	if cfg.Backend == "" {
		name = ProviderLocal
	}

	switch name {
	case ProviderLocal:
		logger.Info("AI backend resolved", "provider", ProviderLocal)
		return localai.New(), ProviderLocal, nil

	case ProviderGemini:
		if cfg.GeminiAPIKey == "" {
			return nil, "", fmt.Errorf("%w: backend %q selected but gemini_api_key is not set",
				generation.ErrConfiguration, ProviderGemini)
		}
		p, err := gemini.New(ctx, logger, gemini.Config{
			APIKey:    cfg.GeminiAPIKey,
			ModelName: cfg.GeminiModelID,
		})
		if err != nil {
			return nil, "", fmt.Errorf("resolving gemini backend: %w", err)
		}
		logger.Info("AI backend resolved", "provider", ProviderGemini, "model", cfg.GeminiModelID)
		return p, ProviderGemini, nil

	case ProviderHFAPI:
		if cfg.HFAPIKey == "" {
			return nil, "", fmt.Errorf("%w: backend %q selected but hf_api_key is not set",
				generation.ErrConfiguration, ProviderHFAPI)
		}
		p, err := hfapi.New(hfapi.Config{
			APIKey:               cfg.HFAPIKey,
			SummarizationModelID: cfg.SummarizationModelID,
			GenerationModelID:    cfg.GenerationModelID,
			QAModelID:            cfg.QAModelID,
		})
		if err != nil {
			return nil, "", fmt.Errorf("resolving hfapi backend: %w", err)
		}
		logger.Info("AI backend resolved",
			"provider", ProviderHFAPI,
			"summarization_model", cfg.SummarizationModelID,
			"generation_model", cfg.GenerationModelID)
		return p, ProviderHFAPI, nil

	default:
		return nil, "", fmt.Errorf("%w: unknown AI backend %q", generation.ErrConfiguration, cfg.Backend)
	}
}
