package agent

import (
	"context"
	"hash/fnv"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/yvrah78/onyx-chauffeur-ai/internal/core"
	"github.com/yvrah78/onyx-chauffeur-ai/internal/service/memory"
	"github.com/yvrah78/onyx-chauffeur-ai/internal/storage/sqlite"
)

// fakeCompleter answers reply and extraction calls separately. Calls are
// told apart by JSON mode.
type fakeCompleter struct {
	mu      sync.Mutex
	reply   func(msgs []core.Message) (string, error)
	extract func(msgs []core.Message) (string, error)
	calls   []fakeCall
}

type fakeCall struct {
	msgs []core.Message
	opts core.CompletionOptions
}

func (f *fakeCompleter) Complete(_ context.Context, msgs []core.Message, opts core.CompletionOptions) (string, error) {
	f.mu.Lock()
	f.calls = append(f.calls, fakeCall{msgs: msgs, opts: opts})
	f.mu.Unlock()

	if opts.JSONMode {
		if f.extract == nil {
			return `{"newPreferences": [], "newNotes": [], "updatedSummary": null}`, nil
		}
		return f.extract(msgs)
	}
	if f.reply == nil {
		return "Certainly, I can arrange that.", nil
	}
	return f.reply(msgs)
}

func (f *fakeCompleter) replyCall(t *testing.T) fakeCall {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.calls {
		if !c.opts.JSONMode {
			return c
		}
	}
	t.Fatal("no reply completion was made")
	return fakeCall{}
}

// wordEmbedder hashes words into a small bag-of-words vector.
type wordEmbedder struct{ unavailable bool }

func (e wordEmbedder) Embed(_ context.Context, text string) ([]float32, bool) {
	if e.unavailable {
		return nil, false
	}
	vec := make([]float32, 64)
	for _, w := range strings.Fields(strings.ToLower(text)) {
		h := fnv.New32a()
		h.Write([]byte(strings.Trim(w, ".,:;!?")))
		vec[h.Sum32()%64]++
	}
	return vec, true
}

type fixture struct {
	agent    *Agent
	ai       *fakeCompleter
	memory   *memory.Service
	clients  *sqlite.ClientsRepo
	profiles *sqlite.ProfilesRepo
	messages *sqlite.MessagesRepo
	now      time.Time
}

func newFixture(t *testing.T) *fixture {
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

	emb := wordEmbedder{}
	mem := memory.NewService(
		memory.NewStore[memory.ClientKind](clientIx, emb, 4),
		memory.NewStore[memory.DriverKind](driverIx, emb, 4),
		time.UTC,
	)

	f := &fixture{
		ai:       &fakeCompleter{},
		memory:   mem,
		clients:  sqlite.NewClientsRepo(db),
		profiles: sqlite.NewProfilesRepo(db),
		messages: sqlite.NewMessagesRepo(db),
		now:      time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC),
	}
	f.agent = NewAgent(f.clients, f.profiles, f.messages, mem, f.ai, Options{Location: time.UTC})
	f.agent.now = func() time.Time { return f.now }
	return f
}

// seedClient creates a client with a profile holding the given preferences.
func (f *fixture) seedClient(t *testing.T, phone string, prefs, notes []string) core.Client {
	t.Helper()
	ctx := context.Background()
	c, err := f.clients.CreateClient(ctx, core.Client{Name: "Ada Lovelace", Phone: phone, Email: "ada@example.com"})
	require.NoError(t, err)
	require.NoError(t, f.profiles.CreateProfile(ctx, core.RagProfile{
		ClientID:    c.ID,
		Summary:     "Frequent airport runs.",
		Preferences: prefs,
		Notes:       notes,
	}))
	return c
}
