package rag

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockEmbeddingClient struct {
	calls  int
	inputs []string
	fn     func(input string) ([]float32, error)
}

func (m *mockEmbeddingClient) CreateEmbedding(_ context.Context, input string) ([]float32, error) {
	m.calls++
	m.inputs = append(m.inputs, input)
	return m.fn(input)
}

func TestGateway_Embed(t *testing.T) {
	tests := []struct {
		name    string
		fn      func(string) ([]float32, error)
		wantOK  bool
		wantVec []float32
	}{
		{
			name:    "success",
			fn:      func(string) ([]float32, error) { return []float32{0.1, 0.2}, nil },
			wantOK:  true,
			wantVec: []float32{0.1, 0.2},
		},
		{
			name:   "remote_error_is_unavailable",
			fn:     func(string) ([]float32, error) { return nil, errors.New("503") },
			wantOK: false,
		},
		{
			name:   "empty_vector_is_unavailable",
			fn:     func(string) ([]float32, error) { return nil, nil },
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &mockEmbeddingClient{fn: tt.fn}
			g := NewGateway(client, 100)

			vec, ok := g.Embed(context.Background(), "hello")
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantVec, vec)
			assert.Equal(t, 1, client.calls, "gateway must not retry")
		})
	}
}

func TestGateway_NoClientIsUnavailable(t *testing.T) {
	g := NewGateway(nil, 100)
	assert.False(t, g.Available())

	for i := 0; i < 3; i++ {
		vec, ok := g.Embed(context.Background(), "hello")
		assert.False(t, ok)
		assert.Nil(t, vec)
	}
}

func TestGateway_CancelledContextSkipsCall(t *testing.T) {
	client := &mockEmbeddingClient{fn: func(string) ([]float32, error) { return []float32{1}, nil }}
	g := NewGateway(client, 100)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, ok := g.Embed(ctx, "hello")
	assert.False(t, ok)
	assert.Zero(t, client.calls)
}

func TestGateway_TruncatesLongInput(t *testing.T) {
	client := &mockEmbeddingClient{fn: func(string) ([]float32, error) { return []float32{1}, nil }}
	g := NewGateway(client, 8)

	long := strings.Repeat("chauffeur service ", 200)
	_, ok := g.Embed(context.Background(), long)
	require.True(t, ok)
	require.Len(t, client.inputs, 1)
	assert.Less(t, len(client.inputs[0]), len(long))
	assert.True(t, strings.HasPrefix(long, client.inputs[0]))
}

func TestTruncateTokens(t *testing.T) {
	out, cut := TruncateTokens("short", 100)
	assert.False(t, cut)
	assert.Equal(t, "short", out)

	out, cut = TruncateTokens("anything", 0)
	assert.False(t, cut)
	assert.Equal(t, "anything", out)

	assert.Zero(t, CountTokens(""))
	assert.Positive(t, CountTokens("Pickup at the hotel lobby"))
}
