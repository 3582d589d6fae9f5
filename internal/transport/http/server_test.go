package http

import (
	"context"
	"encoding/json"
	"errors"
	"hash/fnv"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yvrah78/onyx-chauffeur-ai/internal/core"
	"github.com/yvrah78/onyx-chauffeur-ai/internal/service/agent"
	"github.com/yvrah78/onyx-chauffeur-ai/internal/service/dispatch"
	"github.com/yvrah78/onyx-chauffeur-ai/internal/service/memory"
	"github.com/yvrah78/onyx-chauffeur-ai/internal/storage/sqlite"
)

type fakeConcierge struct {
	handle func(phone, text string) (agent.Reply, error)
}

func (f fakeConcierge) HandleMessage(_ context.Context, phone, text string) (agent.Reply, error) {
	return f.handle(phone, text)
}

type bagEmbedder struct{}

func (bagEmbedder) Embed(_ context.Context, text string) ([]float32, bool) {
	vec := make([]float32, 32)
	for _, w := range strings.Fields(strings.ToLower(text)) {
		h := fnv.New32a()
		h.Write([]byte(w))
		vec[h.Sum32()%32]++
	}
	return vec, true
}

type apiFixture struct {
	srv      *Server
	dispatch *dispatch.Service
	memory   *memory.Service
	chat     *fakeConcierge
}

func newAPI(t *testing.T) *apiFixture {
	t.Helper()
	ctx := context.Background()
	dir := t.TempDir()

	db, err := sqlite.NewDB(ctx, filepath.Join(dir, "onyx.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	clientIx, err := sqlite.OpenIndex(ctx, filepath.Join(dir, "clients.db"), core.EntityClient)
	require.NoError(t, err)
	t.Cleanup(func() { clientIx.Close() })
	driverIx, err := sqlite.OpenIndex(ctx, filepath.Join(dir, "drivers.db"), core.EntityDriver)
	require.NoError(t, err)
	t.Cleanup(func() { driverIx.Close() })

	mem := memory.NewService(
		memory.NewStore[memory.ClientKind](clientIx, bagEmbedder{}, 4),
		memory.NewStore[memory.DriverKind](driverIx, bagEmbedder{}, 4),
		time.UTC,
	)
	repos := dispatch.Repositories{
		Clients:  sqlite.NewClientsRepo(db),
		Drivers:  sqlite.NewDriversRepo(db),
		Trips:    sqlite.NewTripsRepo(db),
		Profiles: sqlite.NewProfilesRepo(db),
	}
	disp := dispatch.NewService(repos, mem)
	chat := &fakeConcierge{handle: func(string, string) (agent.Reply, error) {
		return agent.Reply{Text: "On it.", Client: core.Client{ID: "c-1"}}, nil
	}}

	srv := New(ctx, ":0", Deps{
		Concierge:    chat,
		Dispatch:     disp,
		Clients:      repos.Clients,
		Drivers:      repos.Drivers,
		Trips:        repos.Trips,
		Messages:     sqlite.NewMessagesRepo(db),
		Profiles:     repos.Profiles,
		Memory:       mem,
		HistoryLimit: 20,
	})
	return &apiFixture{srv: srv, dispatch: disp, memory: mem, chat: chat}
}

func (f *apiFixture) do(t *testing.T, method, path, body string) (int, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	f.srv.ServeHTTP(rec, req)

	var out map[string]any
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	}
	return rec.Code, out
}

func TestChat(t *testing.T) {
	f := newAPI(t)

	code, body := f.do(t, http.MethodPost, "/api/chat", `{"clientPhone": "+1-555-0000", "message": "need a car"}`)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "On it.", body["response"])
	assert.Equal(t, "c-1", body["clientId"])

	code, body = f.do(t, http.MethodPost, "/api/chat", `{"clientPhone": "+1-555-0000"}`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "clientPhone and message are required", body["error"])

	f.chat.handle = func(string, string) (agent.Reply, error) { return agent.Reply{}, errors.New("llm down") }
	code, body = f.do(t, http.MethodPost, "/api/chat", `{"clientPhone": "+1-555-0000", "message": "hi"}`)
	assert.Equal(t, http.StatusInternalServerError, code)
	assert.Equal(t, "Failed to process chat message", body["error"])
}

func TestClientsAndTrips(t *testing.T) {
	f := newAPI(t)

	code, body := f.do(t, http.MethodPost, "/api/clients", `{"name": "Ada", "phone": "+1-555-0100"}`)
	require.Equal(t, http.StatusOK, code)
	clientID := body["client"].(map[string]any)["id"].(string)

	code, body = f.do(t, http.MethodGet, "/api/clients/"+clientID, "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, core.NewClientSummary, body["ragProfile"].(map[string]any)["summary"])

	code, _ = f.do(t, http.MethodGet, "/api/clients/missing", "")
	assert.Equal(t, http.StatusNotFound, code)

	code, body = f.do(t, http.MethodPost, "/api/drivers", `{"name": "Marcus", "phone": "+1-555-0200"}`)
	require.Equal(t, http.StatusOK, code)
	driverID := body["driver"].(map[string]any)["id"].(string)

	code, body = f.do(t, http.MethodPost, "/api/trips", `{"clientId": "`+clientID+`", "pickupLocation": "The Plaza",
		"dropoffLocation": "JFK", "pickupTime": "2026-03-14T09:00:00Z", "price": 120}`)
	require.Equal(t, http.StatusOK, code)
	tripID := body["trip"].(map[string]any)["id"].(string)

	code, _ = f.do(t, http.MethodPost, "/api/trips/"+tripID+"/assign", `{"driverId": "`+driverID+`"}`)
	require.Equal(t, http.StatusOK, code)

	code, body = f.do(t, http.MethodGet, "/api/trips?assigned=unassigned", "")
	require.Equal(t, http.StatusOK, code)
	assert.Empty(t, body["trips"])

	code, body = f.do(t, http.MethodGet, "/api/trips?driverId="+driverID, "")
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, body["trips"], 1)

	code, _ = f.do(t, http.MethodPatch, "/api/trips/"+tripID, `{"status": "completed"}`)
	require.Equal(t, http.StatusOK, code)

	code, body = f.do(t, http.MethodGet, "/api/rag/client/"+clientID, "")
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, body["trips"], 1, "re-ingested trip leaves one item")

	code, body = f.do(t, http.MethodGet, "/api/rag/driver/"+driverID, "")
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, body["trips"], 1)

	code, body = f.do(t, http.MethodGet, "/api/rag/stats", "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, body["initialized"])
	assert.EqualValues(t, 1, body["clientDocs"])
	assert.EqualValues(t, 1, body["driverDocs"])

	code, _ = f.do(t, http.MethodPatch, "/api/trips/missing", `{"status": "completed"}`)
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = f.do(t, http.MethodPost, "/api/trips", `{"clientId": "`+clientID+`"}`)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestRagNotesAndSearch(t *testing.T) {
	f := newAPI(t)
	ctx := context.Background()

	c, err := f.dispatch.CreateClient(ctx, core.Client{Name: "Ada", Phone: "+1-555-0100"})
	require.NoError(t, err)
	d, err := f.dispatch.CreateDriver(ctx, core.Driver{Name: "Marcus", Phone: "+1-555-0200"})
	require.NoError(t, err)

	code, _ := f.do(t, http.MethodPost, "/api/rag/client/"+c.ID+"/preference", `{"preference": "sparkling water"}`)
	require.Equal(t, http.StatusOK, code)

	code, body := f.do(t, http.MethodPost, "/api/rag/client/"+c.ID+"/search", `{"query": "sparkling water"}`)
	require.Equal(t, http.StatusOK, code)
	require.Len(t, body["results"], 1)
	assert.Contains(t, body["results"].([]any)[0], "sparkling water")

	code, _ = f.do(t, http.MethodPost, "/api/rag/client/"+c.ID+"/search", `{}`)
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = f.do(t, http.MethodPost, "/api/rag/client/missing/preference", `{"preference": "x"}`)
	assert.Equal(t, http.StatusNotFound, code)

	tests := []struct {
		name string
		body string
		want int
	}{
		{name: "valid", body: `{"note": "always early", "noteType": "performance"}`, want: http.StatusOK},
		{name: "missing type", body: `{"note": "always early"}`, want: http.StatusBadRequest},
		{name: "bad type", body: `{"note": "x", "noteType": "gossip"}`, want: http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, _ := f.do(t, http.MethodPost, "/api/rag/driver/"+d.ID+"/note", tt.body)
			assert.Equal(t, tt.want, code)
		})
	}

	code, body = f.do(t, http.MethodPost, "/api/rag/driver/"+d.ID+"/search", `{"query": "early", "limit": 3}`)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, body["results"], 1)

	code, _ = f.do(t, http.MethodDelete, "/api/rag/client/"+c.ID, "")
	require.Equal(t, http.StatusOK, code)
	assert.Empty(t, f.memory.ClientHistory(ctx, c.ID, 10).Preferences)
}

func TestMessages(t *testing.T) {
	f := newAPI(t)

	code, _ := f.do(t, http.MethodPost, "/api/messages", `{"senderId": "c-1", "receiverId": "bot", "content": "hello"}`)
	require.Equal(t, http.StatusOK, code)

	code, body := f.do(t, http.MethodGet, "/api/messages/c-1", "")
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, body["messages"], 1)

	code, _ = f.do(t, http.MethodPost, "/api/messages", `{"content": "orphan"}`)
	assert.Equal(t, http.StatusBadRequest, code)
}
