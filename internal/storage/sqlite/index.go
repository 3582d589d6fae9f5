package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"os"
	"slices"
	"strings"
	"sync"
	"time"

	sqlite_vec "github.com/asg017/sqlite-vec-go-bindings/cgo"
	"github.com/google/uuid"
	"github.com/yvrah78/onyx-chauffeur-ai/internal/core"
	"github.com/yvrah78/onyx-chauffeur-ai/pkg/log"
)

// maxKNN is the largest k sqlite-vec accepts in a KNN query.
const maxKNN = 4096

// Index is a vector index stored in its own SQLite file. Item rows live in
// memory_items; their embeddings are mirrored into the sqlite-vec table
// memory_vectors under the same rowid. The vec0 table is created by the first
// insert, which also fixes the dimension for the life of the file.
type Index struct {
	db   *sql.DB
	kind core.EntityType

	mu   sync.RWMutex
	dims int
}

// OpenIndex opens (creating if missing) the index file at path.
func OpenIndex(ctx context.Context, path string, kind core.EntityType) (*Index, error) {
	db, err := NewIndexDB(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("open %s index: %w", kind, err)
	}

	ix := &Index{db: db, kind: kind}
	if err := ix.loadDims(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("open %s index: %w", kind, err)
	}

	n, _ := ix.Count(ctx)
	log.FromCtx(ctx).Info().
		Str("kind", string(kind)).
		Int("items", n).
		Int("dimensions", ix.dims).
		Msg("vector index opened")
	return ix, nil
}

// OpenIndexOrReset opens the index at path. A file that cannot be opened as
// an index is renamed to <path>.corrupt-<timestamp> and an empty index takes
// its place.
func OpenIndexOrReset(ctx context.Context, path string, kind core.EntityType) (*Index, error) {
	ix, err := OpenIndex(ctx, path, kind)
	if err == nil {
		return ix, nil
	}
	if _, statErr := os.Stat(path); statErr != nil {
		return nil, err
	}

	aside := path + ".corrupt-" + time.Now().UTC().Format("20060102T150405")
	log.FromCtx(ctx).Error().Err(err).
		Str("kind", string(kind)).
		Str("moved_to", aside).
		Msg("vector index unreadable, starting empty")

	if rerr := os.Rename(path, aside); rerr != nil {
		return nil, errors.Join(err, rerr)
	}
	for _, suffix := range []string{"-wal", "-shm"} {
		_ = os.Remove(path + suffix)
	}
	return OpenIndex(ctx, path, kind)
}

func (ix *Index) Close() error {
	return ix.db.Close()
}

func (ix *Index) Kind() core.EntityType {
	return ix.kind
}

func (ix *Index) loadDims(ctx context.Context) error {
	err := ix.db.QueryRowContext(ctx, `SELECT dimensions FROM index_settings WHERE id = 1`).Scan(&ix.dims)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read index settings: %w", err)
	}
	// Touch the vec0 table so a file written without sqlite-vec fails here.
	if _, err := ix.db.ExecContext(ctx, `SELECT rowid FROM memory_vectors LIMIT 1`); err != nil {
		return fmt.Errorf("failed to open vector table: %w", err)
	}
	return nil
}

// Insert stores a new item and returns its generated id.
func (ix *Index) Insert(ctx context.Context, vector []float32, metadata map[string]string, text string) (string, error) {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	tx, err := ix.db.BeginTx(ctx, nil)
	if err != nil {
		return "", err
	}
	defer tx.Rollback()

	if err := ix.ensureVectors(ctx, tx, len(vector)); err != nil {
		return "", err
	}
	id, err := insertItem(ctx, tx, vector, metadata, text)
	if err != nil {
		return "", err
	}
	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit insert: %w", err)
	}

	ix.dims = len(vector)
	return id, nil
}

// DeleteByID removes one item. Unknown ids are ignored.
func (ix *Index) DeleteByID(ctx context.Context, id string) error {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	tx, err := ix.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var seq int64
	err = tx.QueryRowContext(ctx, `SELECT seq FROM memory_items WHERE id = ?`, id).Scan(&seq)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to find index item: %w", err)
	}
	if err := ix.deleteSeqs(ctx, tx, []int64{seq}); err != nil {
		return err
	}
	return tx.Commit()
}

// DeleteByMetadata removes every item matching filter in one transaction.
func (ix *Index) DeleteByMetadata(ctx context.Context, filter core.Filter) (int, error) {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	tx, err := ix.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	seqs, err := matchingSeqs(ctx, tx, filter)
	if err != nil || len(seqs) == 0 {
		return 0, err
	}
	if err := ix.deleteSeqs(ctx, tx, seqs); err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit delete: %w", err)
	}
	return len(seqs), nil
}

// Replace deletes every item matching filter and inserts the new item in one
// transaction, so readers observe either the old items or the new one.
func (ix *Index) Replace(ctx context.Context, filter core.Filter, vector []float32, metadata map[string]string, text string) (string, error) {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	tx, err := ix.db.BeginTx(ctx, nil)
	if err != nil {
		return "", err
	}
	defer tx.Rollback()

	seqs, err := matchingSeqs(ctx, tx, filter)
	if err != nil {
		return "", err
	}
	if err := ix.deleteSeqs(ctx, tx, seqs); err != nil {
		return "", err
	}
	if err := ix.ensureVectors(ctx, tx, len(vector)); err != nil {
		return "", err
	}
	id, err := insertItem(ctx, tx, vector, metadata, text)
	if err != nil {
		return "", err
	}
	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit replace: %w", err)
	}

	ix.dims = len(vector)
	return id, nil
}

// ListByMetadata returns matches in insertion order.
func (ix *Index) ListByMetadata(ctx context.Context, filter core.Filter) ([]core.MemoryItem, error) {
	where, args := filterClause(filter)
	rows, err := ix.db.QueryContext(ctx,
		`SELECT id, text, metadata, embedding, created_at FROM memory_items`+where+` ORDER BY seq`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list index items: %w", err)
	}
	defer rows.Close()

	var out []core.MemoryItem
	for rows.Next() {
		item, ok, err := scanItem(ctx, rows)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, item)
		}
	}
	return out, rows.Err()
}

// Query returns the k nearest items by cosine distance, scored as
// 1 - distance. The index is purely vector based, so textHint is not used.
// Equal distances keep insertion order.
func (ix *Index) Query(ctx context.Context, vector []float32, textHint string, k int) ([]core.ScoredItem, error) {
	if k <= 0 {
		return nil, nil
	}
	k = min(k, maxKNN)

	ix.mu.RLock()
	dims := ix.dims
	ix.mu.RUnlock()
	if dims == 0 {
		return nil, nil
	}
	if len(vector) != dims {
		return nil, fmt.Errorf("query vector has %d dimensions, index holds %d", len(vector), dims)
	}

	blob, err := sqlite_vec.SerializeFloat32(vector)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize vector: %w", err)
	}

	rows, err := ix.db.QueryContext(ctx, `
		WITH knn AS (
			SELECT rowid, distance
			FROM memory_vectors
			WHERE embedding MATCH ? AND k = ?
		)
		SELECT m.id, m.text, m.metadata, m.embedding, m.created_at, knn.distance
		FROM knn
		JOIN memory_items m ON m.seq = knn.rowid
		ORDER BY knn.distance, m.seq
	`, blob, k)
	if err != nil {
		return nil, fmt.Errorf("vector search failed: %w", err)
	}
	defer rows.Close()

	var out []core.ScoredItem
	for rows.Next() {
		var distance sql.NullFloat64
		item, ok, err := scanItem(ctx, rows, &distance)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		// Zero vectors have no cosine distance.
		score := float32(0)
		if distance.Valid {
			score = float32(1 - distance.Float64)
		}
		out = append(out, core.ScoredItem{Item: item, Score: score})
	}
	return out, rows.Err()
}

func (ix *Index) Count(ctx context.Context) (int, error) {
	var n int
	if err := ix.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM memory_items`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count index items: %w", err)
	}
	return n, nil
}

// ensureVectors creates the vec0 table on the first insert and rejects
// vectors whose dimension differs from the stored ones.
func (ix *Index) ensureVectors(ctx context.Context, tx *sql.Tx, dims int) error {
	if dims == 0 {
		return errors.New("empty vector")
	}
	if ix.dims != 0 {
		if dims != ix.dims {
			return fmt.Errorf("vector has %d dimensions, index holds %d", dims, ix.dims)
		}
		return nil
	}

	stmt := fmt.Sprintf(`CREATE VIRTUAL TABLE IF NOT EXISTS memory_vectors USING vec0(embedding float[%d] distance_metric=cosine)`, dims)
	if _, err := tx.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("failed to create vector table: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO index_settings (id, dimensions) VALUES (1, ?)`, dims); err != nil {
		return fmt.Errorf("failed to store index settings: %w", err)
	}
	return nil
}

func (ix *Index) deleteSeqs(ctx context.Context, tx *sql.Tx, seqs []int64) error {
	for _, seq := range seqs {
		if _, err := tx.ExecContext(ctx, `DELETE FROM memory_items WHERE seq = ?`, seq); err != nil {
			return fmt.Errorf("failed to delete index item: %w", err)
		}
		if ix.dims == 0 {
			continue
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM memory_vectors WHERE rowid = ?`, seq); err != nil {
			return fmt.Errorf("failed to delete index vector: %w", err)
		}
	}
	return nil
}

func insertItem(ctx context.Context, tx *sql.Tx, vector []float32, metadata map[string]string, text string) (string, error) {
	if metadata == nil {
		metadata = map[string]string{}
	}
	item := core.MemoryItem{ID: uuid.NewString(), Metadata: maps.Clone(metadata)}

	blob, err := sqlite_vec.SerializeFloat32(vector)
	if err != nil {
		return "", fmt.Errorf("failed to serialize vector: %w", err)
	}
	meta, err := json.Marshal(item.Metadata)
	if err != nil {
		return "", fmt.Errorf("encode metadata: %w", err)
	}

	res, err := tx.ExecContext(ctx,
		`INSERT INTO memory_items (id, entity_id, source, text, metadata, embedding, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		item.ID, item.EntityID(), string(item.Source()), text, string(meta), blob, time.Now().UTC(),
	)
	if err != nil {
		return "", fmt.Errorf("failed to insert index item: %w", err)
	}
	seq, err := res.LastInsertId()
	if err != nil {
		return "", err
	}

	if _, err := tx.ExecContext(ctx, `INSERT INTO memory_vectors (rowid, embedding) VALUES (?, ?)`, seq, blob); err != nil {
		return "", fmt.Errorf("failed to insert index vector: %w", err)
	}
	return item.ID, nil
}

func matchingSeqs(ctx context.Context, tx *sql.Tx, filter core.Filter) ([]int64, error) {
	where, args := filterClause(filter)
	rows, err := tx.QueryContext(ctx, `SELECT seq FROM memory_items`+where, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to match index items: %w", err)
	}
	defer rows.Close()

	var seqs []int64
	for rows.Next() {
		var seq int64
		if err := rows.Scan(&seq); err != nil {
			return nil, err
		}
		seqs = append(seqs, seq)
	}
	return seqs, rows.Err()
}

// filterClause turns an equality filter into a WHERE clause. entityId and
// source have their own indexed columns; other keys are read from the
// metadata JSON.
func filterClause(filter core.Filter) (string, []any) {
	if len(filter) == 0 {
		return "", nil
	}
	keys := slices.Sorted(maps.Keys(filter))
	conds := make([]string, 0, len(keys))
	args := make([]any, 0, 2*len(keys))
	for _, key := range keys {
		switch key {
		case core.MetaEntityID:
			conds = append(conds, "entity_id = ?")
			args = append(args, filter[key])
		case core.MetaSource:
			conds = append(conds, "source = ?")
			args = append(args, filter[key])
		default:
			conds = append(conds, "json_extract(metadata, ?) = ?")
			args = append(args, `$."`+key+`"`, filter[key])
		}
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// scanItem reads id, text, metadata, embedding, created_at and any extra
// columns. ok is false for rows whose metadata or vector cannot be decoded.
func scanItem(ctx context.Context, row scanner, extra ...any) (core.MemoryItem, bool, error) {
	var item core.MemoryItem
	var meta string
	var blob []byte
	dest := append([]any{&item.ID, &item.Text, &meta, &blob, &item.CreatedAt}, extra...)
	if err := row.Scan(dest...); err != nil {
		return core.MemoryItem{}, false, fmt.Errorf("failed to scan index item: %w", err)
	}

	logger := log.FromCtx(ctx)
	if err := json.Unmarshal([]byte(meta), &item.Metadata); err != nil {
		logger.Warn().Err(err).Str("id", item.ID).Msg("skipping index item with corrupt metadata")
		return core.MemoryItem{}, false, nil
	}
	vec, err := deserializeVector(blob)
	if err != nil {
		logger.Warn().Err(err).Str("id", item.ID).Msg("skipping index item with corrupt vector")
		return core.MemoryItem{}, false, nil
	}
	item.Vector = vec
	return item, true, nil
}
