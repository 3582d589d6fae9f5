package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/yvrah78/onyx-chauffeur-ai/internal/core"
	"github.com/yvrah78/onyx-chauffeur-ai/pkg/log"
)

const (
	openAIBaseURL     = "https://api.openai.com"
	openRouterBaseURL = "https://openrouter.ai/api"
)

// NewProvider creates the completion backend selected by configuration.
// Everything except Anthropic speaks the OpenAI chat API with a bearer token.
func NewProvider(ctx context.Context, cfg core.ProviderConfig) (core.Completer, error) {
	log.FromCtx(ctx).Info().
		Str("provider", cfg.GetProvider()).
		Str("model", cfg.GetModel()).
		Msg("starting llm provider")

	model, timeout := cfg.GetModel(), cfg.GetTimeout()
	switch cfg.GetProvider() {
	case "openai":
		return newBearer(openAIBaseURL, cfg.GetOpenAIAPIKey(), model, timeout, nil), nil
	case "anthropic":
		return NewAnthropic(cfg.GetAnthropicAPIKey(), model, timeout), nil
	case "openrouter":
		return newBearer(openRouterBaseURL, cfg.GetOpenRouterAPIKey(), model, timeout, map[string]string{
			"HTTP-Referer": core.AppRepositoryURL,
			"X-Title":      core.AppName,
		}), nil
	case "ollama":
		// Ollama serves the OpenAI API under /v1 of its own base URL.
		return newBearer(cfg.GetOllamaBaseURL(), cfg.GetOllamaAPIKey(), model, timeout, nil), nil
	case "custom":
		if cfg.GetCustomOpenAIBaseURL() == "" {
			return nil, fmt.Errorf("custom llm provider requires CUSTOM_OPENAI_BASE_URL")
		}
		return newBearer(cfg.GetCustomOpenAIBaseURL(), cfg.GetCustomOpenAIAPIKey(), model, timeout, nil), nil
	default:
		return nil, fmt.Errorf("unknown llm provider: %s", cfg.GetProvider())
	}
}

func newBearer(baseURL, apiKey, model string, timeout time.Duration, extra map[string]string) *OpenAICompatible {
	return NewOpenAICompatible(OpenAICompatibleConfig{
		BaseURL:      baseURL,
		APIKey:       apiKey,
		Model:        model,
		AuthHeader:   "Authorization",
		AuthPrefix:   "Bearer ",
		ExtraHeaders: extra,
		Timeout:      timeout,
	})
}
