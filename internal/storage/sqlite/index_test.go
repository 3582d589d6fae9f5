package sqlite

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	sqlite_vec "github.com/asg017/sqlite-vec-go-bindings/cgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yvrah78/onyx-chauffeur-ai/internal/core"
)

func openTestIndex(t *testing.T) (*Index, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "index", "clients.db")
	ix, err := OpenIndex(context.Background(), path, core.EntityClient)
	require.NoError(t, err)
	t.Cleanup(func() { ix.Close() })
	return ix, path
}

func meta(entityID string, source core.Source, extra ...string) map[string]string {
	m := map[string]string{
		core.MetaEntityID:   entityID,
		core.MetaEntityType: string(core.EntityClient),
		core.MetaSource:     string(source),
	}
	for i := 0; i+1 < len(extra); i += 2 {
		m[extra[i]] = extra[i+1]
	}
	return m
}

func TestIndex_InsertAndList(t *testing.T) {
	ctx := context.Background()
	ix, _ := openTestIndex(t)

	id1, err := ix.Insert(ctx, []float32{1, 0}, meta("c1", core.SourceConversation), "first")
	require.NoError(t, err)
	id2, err := ix.Insert(ctx, []float32{0, 1}, meta("c2", core.SourceConversation), "second")
	require.NoError(t, err)
	assert.NotEqual(t, id1, id2)

	items, err := ix.ListByMetadata(ctx, core.Filter{core.MetaEntityID: "c1"})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "first", items[0].Text)
	assert.Equal(t, id1, items[0].ID)

	n, err := ix.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestIndex_ListReturnsCopies(t *testing.T) {
	ctx := context.Background()
	ix, _ := openTestIndex(t)

	_, err := ix.Insert(ctx, []float32{1}, meta("c1", core.SourceConversation), "x")
	require.NoError(t, err)

	items, _ := ix.ListByMetadata(ctx, core.Filter{})
	items[0].Metadata[core.MetaEntityID] = "tampered"
	items[0].Vector[0] = 42

	res, err := ix.Query(ctx, []float32{1}, "", 1)
	require.NoError(t, err)
	require.Len(t, res, 1)
	res[0].Item.Vector[0] = -7

	again, _ := ix.ListByMetadata(ctx, core.Filter{core.MetaEntityID: "c1"})
	require.Len(t, again, 1)
	assert.Equal(t, []float32{1}, again[0].Vector)
}

func TestIndex_DeleteByID(t *testing.T) {
	ctx := context.Background()
	ix, _ := openTestIndex(t)

	id, err := ix.Insert(ctx, []float32{1, 0}, meta("c1", core.SourceConversation), "first")
	require.NoError(t, err)

	require.NoError(t, ix.DeleteByID(ctx, id))
	require.NoError(t, ix.DeleteByID(ctx, "missing"))

	n, _ := ix.Count(ctx)
	assert.Zero(t, n)
}

func TestIndex_Query(t *testing.T) {
	ctx := context.Background()
	ix, _ := openTestIndex(t)

	_, _ = ix.Insert(ctx, []float32{0, 1}, meta("c1", core.SourceConversation), "north")
	_, _ = ix.Insert(ctx, []float32{1, 0}, meta("c1", core.SourceConversation), "east")
	_, _ = ix.Insert(ctx, []float32{1, 1}, meta("c1", core.SourceConversation), "north-east")

	res, err := ix.Query(ctx, []float32{1, 0}, "ignored", 2)
	require.NoError(t, err)
	require.Len(t, res, 2)
	assert.Equal(t, "east", res[0].Item.Text)
	assert.InDelta(t, 1.0, res[0].Score, 1e-6)
	assert.Equal(t, "north-east", res[1].Item.Text)

	none, err := ix.Query(ctx, []float32{1, 0}, "", 0)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestIndex_ReplaceKeepsOnePerKey(t *testing.T) {
	ctx := context.Background()
	ix, _ := openTestIndex(t)

	key := core.Filter{core.MetaTripID: "t1", core.MetaEntityID: "c1"}
	_, err := ix.Replace(ctx, key, []float32{1, 0}, meta("c1", core.SourceTrip, core.MetaTripID, "t1"), "pending")
	require.NoError(t, err)
	_, err = ix.Replace(ctx, key, []float32{1, 0}, meta("c1", core.SourceTrip, core.MetaTripID, "t1"), "confirmed")
	require.NoError(t, err)
	_, err = ix.Replace(ctx, core.Filter{core.MetaTripID: "t1", core.MetaEntityID: "c2"},
		[]float32{1, 0}, meta("c2", core.SourceTrip, core.MetaTripID, "t1"), "other client")
	require.NoError(t, err)

	items, err := ix.ListByMetadata(ctx, key)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "confirmed", items[0].Text)

	n, _ := ix.Count(ctx)
	assert.Equal(t, 2, n)
}

func TestIndex_DeleteByMetadata(t *testing.T) {
	ctx := context.Background()
	ix, _ := openTestIndex(t)

	for i := 0; i < 3; i++ {
		_, _ = ix.Insert(ctx, []float32{1}, meta("c1", core.SourceConversation), "c1")
	}
	_, _ = ix.Insert(ctx, []float32{1}, meta("c2", core.SourceConversation), "c2")

	n, err := ix.DeleteByMetadata(ctx, core.Filter{core.MetaEntityID: "c1"})
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	left, _ := ix.ListByMetadata(ctx, core.Filter{})
	require.Len(t, left, 1)
	assert.Equal(t, "c2", left[0].Text)
}

func TestIndex_SurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "drivers.db")

	ix, err := OpenIndex(ctx, path, core.EntityDriver)
	require.NoError(t, err)
	_, err = ix.Insert(ctx, []float32{0.5, 0.25}, meta("d1", core.SourcePerformance), "on time")
	require.NoError(t, err)
	require.NoError(t, ix.Close())

	reopened, err := OpenIndex(ctx, path, core.EntityDriver)
	require.NoError(t, err)
	defer reopened.Close()

	items, err := reopened.ListByMetadata(ctx, core.Filter{core.MetaEntityID: "d1"})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, []float32{0.5, 0.25}, items[0].Vector)
	assert.Equal(t, "on time", items[0].Text)
	assert.Equal(t, string(core.SourcePerformance), items[0].Metadata[core.MetaSource])
}

func TestIndex_ConcurrentWriters(t *testing.T) {
	ctx := context.Background()
	ix, _ := openTestIndex(t)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = ix.Insert(ctx, []float32{1, 0}, meta("c1", core.SourceConversation), "msg")
			_, _ = ix.Replace(ctx, core.Filter{core.MetaTripID: "t1"}, []float32{0, 1},
				meta("c1", core.SourceTrip, core.MetaTripID, "t1"), "trip")
		}()
	}
	wg.Wait()

	trips, _ := ix.ListByMetadata(ctx, core.Filter{core.MetaTripID: "t1"})
	assert.Len(t, trips, 1)
	n, _ := ix.Count(ctx)
	assert.Equal(t, 21, n)
}

func TestVectorRoundTrip(t *testing.T) {
	blob, err := sqlite_vec.SerializeFloat32([]float32{1.5, -2, 0})
	require.NoError(t, err)
	vec, err := deserializeVector(blob)
	require.NoError(t, err)
	assert.Equal(t, []float32{1.5, -2, 0}, vec)

	_, err = deserializeVector([]byte{1, 2, 3})
	assert.Error(t, err)
}

func TestIndex_DimensionIsFixedByFirstInsert(t *testing.T) {
	ctx := context.Background()
	ix, path := openTestIndex(t)

	res, err := ix.Query(ctx, []float32{1, 0, 0}, "", 5)
	require.NoError(t, err)
	assert.Empty(t, res)

	_, err = ix.Insert(ctx, []float32{1, 0, 0}, meta("c1", core.SourceConversation), "three")
	require.NoError(t, err)

	_, err = ix.Insert(ctx, []float32{1, 0}, meta("c1", core.SourceConversation), "two")
	assert.Error(t, err)
	_, err = ix.Insert(ctx, nil, meta("c1", core.SourceConversation), "none")
	assert.Error(t, err)
	_, err = ix.Query(ctx, []float32{1, 0}, "", 5)
	assert.Error(t, err)

	require.NoError(t, ix.Close())
	reopened, err := OpenIndex(ctx, path, core.EntityClient)
	require.NoError(t, err)
	defer reopened.Close()

	_, err = reopened.Insert(ctx, []float32{1, 0}, meta("c1", core.SourceConversation), "two")
	assert.Error(t, err)
	res, err = reopened.Query(ctx, []float32{0, 0, 1}, "", 5)
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.Equal(t, "three", res[0].Item.Text)
}

func TestOpenIndexOrReset_MovesCorruptFileAside(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	path := filepath.Join(dir, "clients.db")
	require.NoError(t, os.WriteFile(path, []byte(strings.Repeat("garbage ", 512)), 0600))

	_, err := OpenIndex(ctx, path, core.EntityClient)
	require.Error(t, err)

	ix, err := OpenIndexOrReset(ctx, path, core.EntityClient)
	require.NoError(t, err)
	defer ix.Close()

	n, err := ix.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	_, err = ix.Insert(ctx, []float32{1, 0}, meta("c1", core.SourceConversation), "fresh")
	require.NoError(t, err)

	aside, err := filepath.Glob(path + ".corrupt-*")
	require.NoError(t, err)
	require.Len(t, aside, 1)
	data, err := os.ReadFile(aside[0])
	require.NoError(t, err)
	assert.Contains(t, string(data), "garbage")
}

func TestOpenIndexOrReset_HealthyFileIsKept(t *testing.T) {
	ctx := context.Background()
	ix, path := openTestIndex(t)
	_, err := ix.Insert(ctx, []float32{1, 0}, meta("c1", core.SourceConversation), "kept")
	require.NoError(t, err)
	require.NoError(t, ix.Close())

	again, err := OpenIndexOrReset(ctx, path, core.EntityClient)
	require.NoError(t, err)
	defer again.Close()

	n, _ := again.Count(ctx)
	assert.Equal(t, 1, n)
}
