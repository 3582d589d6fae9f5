package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Embeddings calls an OpenAI-compatible /v1/embeddings endpoint (xAI, OpenAI, Ollama).
type Embeddings struct {
	baseProvider
}

func NewEmbeddings(baseURL, apiKey, model string, timeout time.Duration) *Embeddings {
	return &Embeddings{
		baseProvider: newBaseProvider(baseURL, apiKey, model, timeout),
	}
}

func (e *Embeddings) CreateEmbedding(ctx context.Context, input string) ([]float32, error) {
	payload := map[string]any{
		"model": e.model,
		"input": input,
	}
	headers := map[string]string{
		"Authorization": "Bearer " + e.apiKey,
	}

	resp, err := e.doRequest(ctx, http.MethodPost, "/v1/embeddings", payload, headers)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := readOK(resp)
	if err != nil {
		return nil, err
	}

	var result struct {
		Data []struct {
			Embedding []float32 `json:"embedding"`
		} `json:"data"`
	}
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	if len(result.Data) == 0 {
		return nil, fmt.Errorf("empty embeddings: %s", string(data))
	}
	return result.Data[0].Embedding, nil
}
