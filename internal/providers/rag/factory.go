package rag

import (
	"context"

	"github.com/yvrah78/onyx-chauffeur-ai/internal/core"
	"github.com/yvrah78/onyx-chauffeur-ai/internal/providers/llm"
	"github.com/yvrah78/onyx-chauffeur-ai/pkg/log"
)

// NewGatewayFromConfig builds a gateway over the configured embeddings API.
// An empty API key yields a gateway that always reports unavailable.
func NewGatewayFromConfig(ctx context.Context, cfg core.EmbeddingConfig) *Gateway {
	if cfg.GetEmbeddingAPIKey() == "" {
		return NewGateway(nil, cfg.GetEmbeddingMaxTokens())
	}

	log.FromCtx(ctx).Info().
		Str("base_url", cfg.GetEmbeddingBaseURL()).
		Str("model", cfg.GetEmbeddingModel()).
		Msg("starting embedding gateway")

	client := llm.NewEmbeddings(
		cfg.GetEmbeddingBaseURL(),
		cfg.GetEmbeddingAPIKey(),
		cfg.GetEmbeddingModel(),
		cfg.GetEmbeddingTimeout(),
	)
	return NewGateway(client, cfg.GetEmbeddingMaxTokens())
}
