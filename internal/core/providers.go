package core

import "context"

type CompletionOptions struct {
	Temperature float64
	MaxTokens   int
	JSONMode    bool
}

// Completer is a chat completion backend.
type Completer interface {
	Complete(ctx context.Context, messages []Message, opts CompletionOptions) (string, error)
}

// Embedder turns text into a vector. ok is false when no vector could be produced;
// callers skip the operation in that case.
type Embedder interface {
	Embed(ctx context.Context, text string) (vector []float32, ok bool)
}
