package rag

import (
	"context"
	"sync"

	"github.com/yvrah78/onyx-chauffeur-ai/pkg/log"
)

// EmbeddingClient is the remote API behind the gateway.
type EmbeddingClient interface {
	CreateEmbedding(ctx context.Context, input string) ([]float32, error)
}

// Gateway turns text into vectors. It never fails the caller: with no
// client configured, or on any remote error, Embed reports unavailable.
// Nothing is retried.
type Gateway struct {
	client    EmbeddingClient
	maxTokens int

	disabledOnce sync.Once
}

// NewGateway accepts a nil client, meaning embeddings are not configured.
func NewGateway(client EmbeddingClient, maxTokens int) *Gateway {
	return &Gateway{client: client, maxTokens: maxTokens}
}

func (g *Gateway) Available() bool {
	return g.client != nil
}

func (g *Gateway) Embed(ctx context.Context, text string) ([]float32, bool) {
	logger := log.FromCtx(ctx)

	if g.client == nil {
		g.disabledOnce.Do(func() {
			logger.Info().Msg("semantic memory disabled: no embedding API key configured")
		})
		return nil, false
	}

	if err := ctx.Err(); err != nil {
		return nil, false
	}

	input, cut := TruncateTokens(text, g.maxTokens)
	if cut {
		logger.Debug().Int("max_tokens", g.maxTokens).Msg("embedding input truncated")
	}

	vec, err := g.client.CreateEmbedding(ctx, input)
	if err != nil {
		logger.Warn().Err(err).Msg("embedding request failed")
		return nil, false
	}
	if len(vec) == 0 {
		logger.Warn().Msg("embedding response had no vector")
		return nil, false
	}
	return vec, true
}
