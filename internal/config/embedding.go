package config

import (
	"context"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/yvrah78/onyx-chauffeur-ai/pkg/log"
)

// EmbeddingConfig leaves the key optional: without it semantic memory is disabled.
type EmbeddingConfig struct {
	APIKey    string        `env:"XAI_API_KEY"`
	BaseURL   string        `env:"EMBEDDING_BASE_URL" envDefault:"https://api.x.ai"`
	Model     string        `env:"EMBEDDING_MODEL" envDefault:"v1"`
	MaxTokens int           `env:"EMBEDDING_MAX_TOKENS" envDefault:"8000"`
	Timeout   time.Duration `env:"EMBEDDING_TIMEOUT" envDefault:"30s"`
}

func NewEmbeddingConfig(ctx context.Context) *EmbeddingConfig {
	cfg := &EmbeddingConfig{}
	if err := env.Parse(cfg); err != nil {
		log.FromCtx(ctx).Fatal().Err(err).Msg("failed to parse embedding config")
	}
	return cfg
}

func (c EmbeddingConfig) GetEmbeddingAPIKey() string { return c.APIKey }
func (c EmbeddingConfig) GetEmbeddingBaseURL() string { return c.BaseURL }
func (c EmbeddingConfig) GetEmbeddingModel() string { return c.Model }
func (c EmbeddingConfig) GetEmbeddingMaxTokens() int { return c.MaxTokens }
func (c EmbeddingConfig) GetEmbeddingTimeout() time.Duration { return c.Timeout }
