package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	mcpproto "github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yvrah78/onyx-chauffeur-ai/internal/core"
	"github.com/yvrah78/onyx-chauffeur-ai/internal/service/agent"
)

type stubMemory struct {
	core.Memory
	lastLimit int
}

func (m *stubMemory) FetchClientContext(_ context.Context, id, query string, limit int) []string {
	m.lastLimit = limit
	return []string{id + ":" + query}
}

func (m *stubMemory) ClientHistory(_ context.Context, id string, _ int) core.ClientHistory {
	return core.ClientHistory{Conversations: []string{"hello from " + id}, Trips: []string{}, Preferences: []string{}}
}

func (m *stubMemory) Stats(context.Context) core.MemoryStats {
	return core.MemoryStats{ClientDocs: 3, DriverDocs: 1, Initialized: true}
}

type stubNotebook struct {
	notes []string
	err   error
}

func (n *stubNotebook) AddDriverNote(_ context.Context, id, note, noteType string) error {
	n.notes = append(n.notes, id+"|"+noteType+"|"+note)
	return n.err
}

func (n *stubNotebook) AddClientPreference(_ context.Context, id, pref string) error {
	n.notes = append(n.notes, id+"|"+pref)
	return n.err
}

type stubConcierge struct{ err error }

func (c stubConcierge) HandleMessage(_ context.Context, phone, text string) (agent.Reply, error) {
	return agent.Reply{Text: "re: " + text, Client: core.Client{ID: "c-" + phone}}, c.err
}

func call(args map[string]any) mcpproto.CallToolRequest {
	req := mcpproto.CallToolRequest{}
	req.Params.Arguments = args
	return req
}

func textOf(t *testing.T, res *mcpproto.CallToolResult) string {
	t.Helper()
	require.NotNil(t, res)
	require.NotEmpty(t, res.Content)
	switch c := res.Content[0].(type) {
	case mcpproto.TextContent:
		return c.Text
	case *mcpproto.TextContent:
		return c.Text
	}
	t.Fatalf("unexpected content %T", res.Content[0])
	return ""
}

func TestSearchClient(t *testing.T) {
	mem := &stubMemory{}
	s := NewServer(mem, &stubNotebook{}, stubConcierge{})
	ctx := context.Background()

	res, err := s.searchClient(ctx, call(map[string]any{"client_id": "c1", "query": "water"}))
	require.NoError(t, err)
	assert.False(t, res.IsError)
	assert.JSONEq(t, `["c1:water"]`, textOf(t, res))
	assert.Equal(t, defaultLimit, mem.lastLimit)

	_, err = s.searchClient(ctx, call(map[string]any{"client_id": "c1", "query": "water", "limit": float64(2)}))
	require.NoError(t, err)
	assert.Equal(t, 2, mem.lastLimit)

	res, err = s.searchClient(ctx, call(map[string]any{"client_id": "c1"}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
}

func TestHistoryAndStats(t *testing.T) {
	s := NewServer(&stubMemory{}, &stubNotebook{}, stubConcierge{})
	ctx := context.Background()

	res, err := s.clientHistory(ctx, call(map[string]any{"client_id": "c1"}))
	require.NoError(t, err)
	var h core.ClientHistory
	require.NoError(t, json.Unmarshal([]byte(textOf(t, res)), &h))
	assert.Equal(t, []string{"hello from c1"}, h.Conversations)

	res, err = s.stats(ctx, call(nil))
	require.NoError(t, err)
	assert.JSONEq(t, `{"clientDocs":3,"driverDocs":1,"initialized":true}`, textOf(t, res))
}

func TestNotes(t *testing.T) {
	nb := &stubNotebook{}
	s := NewServer(&stubMemory{}, nb, stubConcierge{})
	ctx := context.Background()

	res, err := s.addDriverNote(ctx, call(map[string]any{"driver_id": "d1", "note": "early", "note_type": "performance"}))
	require.NoError(t, err)
	assert.False(t, res.IsError)

	res, err = s.addClientPreference(ctx, call(map[string]any{"client_id": "c1", "preference": "jazz"}))
	require.NoError(t, err)
	assert.False(t, res.IsError)
	assert.Equal(t, []string{"d1|performance|early", "c1|jazz"}, nb.notes)

	nb.err = core.ErrInvalidNoteType
	res, err = s.addDriverNote(ctx, call(map[string]any{"driver_id": "d1", "note": "x", "note_type": "gossip"}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
}

func TestGenerateReply(t *testing.T) {
	ctx := context.Background()

	s := NewServer(&stubMemory{}, &stubNotebook{}, stubConcierge{})
	res, err := s.generateReply(ctx, call(map[string]any{"phone": "1", "message": "hi"}))
	require.NoError(t, err)
	assert.JSONEq(t, `{"response":"re: hi","clientId":"c-1"}`, textOf(t, res))

	s = NewServer(&stubMemory{}, &stubNotebook{}, stubConcierge{err: errors.New("down")})
	res, err = s.generateReply(ctx, call(map[string]any{"phone": "1", "message": "hi"}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Equal(t, agent.FallbackReply, textOf(t, res))
}
