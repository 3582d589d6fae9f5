package memory

import (
	"context"
	"errors"
	"hash/fnv"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/yvrah78/onyx-chauffeur-ai/internal/core"
	"github.com/yvrah78/onyx-chauffeur-ai/internal/storage/sqlite"
)

// wordEmbedder hashes words into a fixed bag-of-words vector.
type wordEmbedder struct {
	unavailable bool
	calls       int
}

func (e *wordEmbedder) Embed(_ context.Context, text string) ([]float32, bool) {
	e.calls++
	if e.unavailable {
		return nil, false
	}
	vec := make([]float32, 64)
	for _, w := range strings.Fields(strings.ToLower(text)) {
		h := fnv.New32a()
		h.Write([]byte(strings.Trim(w, ".,:;!?$")))
		vec[h.Sum32()%64]++
	}
	return vec, true
}

// brokenIndex fails every call.
type brokenIndex struct{}

var errBroken = errors.New("disk on fire")

func (brokenIndex) Insert(context.Context, []float32, map[string]string, string) (string, error) {
	return "", errBroken
}
func (brokenIndex) DeleteByID(context.Context, string) error { return errBroken }
func (brokenIndex) DeleteByMetadata(context.Context, core.Filter) (int, error) {
	return 0, errBroken
}
func (brokenIndex) ListByMetadata(context.Context, core.Filter) ([]core.MemoryItem, error) {
	return nil, errBroken
}
func (brokenIndex) Query(context.Context, []float32, string, int) ([]core.ScoredItem, error) {
	return nil, errBroken
}
func (brokenIndex) Replace(context.Context, core.Filter, []float32, map[string]string, string) (string, error) {
	return "", errBroken
}
func (brokenIndex) Count(context.Context) (int, error) { return 0, errBroken }

type fixture struct {
	svc      *Service
	embedder *wordEmbedder
	clientIx *sqlite.Index
	driverIx *sqlite.Index
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	dir := t.TempDir()

	clientIx, err := sqlite.OpenIndex(ctx, filepath.Join(dir, "clients.db"), core.EntityClient)
	require.NoError(t, err)
	t.Cleanup(func() { clientIx.Close() })

	driverIx, err := sqlite.OpenIndex(ctx, filepath.Join(dir, "drivers.db"), core.EntityDriver)
	require.NoError(t, err)
	t.Cleanup(func() { driverIx.Close() })

	emb := &wordEmbedder{}
	svc := NewService(
		NewStore[ClientKind](clientIx, emb, 4),
		NewStore[DriverKind](driverIx, emb, 4),
		time.UTC,
	)
	return &fixture{svc: svc, embedder: emb, clientIx: clientIx, driverIx: driverIx}
}

var (
	ada    = core.Client{ID: "c-ada", Name: "Ada Lovelace", Phone: "+1-555-0100"}
	grace  = core.Client{ID: "c-grace", Name: "Grace Hopper", Phone: "+1-555-0101"}
	marcus = core.Driver{ID: "d-marcus", Name: "Marcus", Phone: "+1-555-0200"}
)

func sampleTrip() core.Trip {
	return core.Trip{
		ID:              "t-1",
		ClientID:        ada.ID,
		PickupLocation:  "The Plaza",
		DropoffLocation: "JFK Terminal 4",
		PickupTime:      time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC),
		Status:          core.TripPending,
		Price:           120,
		PaymentStatus:   "unpaid",
	}
}
