package memory

import (
	"context"
	"maps"
	"time"

	"github.com/yvrah78/onyx-chauffeur-ai/internal/core"
	"github.com/yvrah78/onyx-chauffeur-ai/pkg/log"
)

// EntityKind selects which entity type, and therefore which index, a Store serves.
type EntityKind interface {
	Type() core.EntityType
}

type ClientKind struct{}

func (ClientKind) Type() core.EntityType { return core.EntityClient }

type DriverKind struct{}

func (DriverKind) Type() core.EntityType { return core.EntityDriver }

// Store is the per-entity-type memory over one vector index. Every method
// swallows index and embedding failures: they are logged and the empty value
// is returned.
type Store[K EntityKind] struct {
	index    core.VectorIndex
	embedder core.Embedder
	fanout   int
}

// NewStore wires a store. fanout is how many candidates are pulled from the
// index per requested result before filtering to one entity.
func NewStore[K EntityKind](index core.VectorIndex, embedder core.Embedder, fanout int) *Store[K] {
	if fanout < 1 {
		fanout = 1
	}
	return &Store[K]{index: index, embedder: embedder, fanout: fanout}
}

func (s *Store[K]) Kind() core.EntityType {
	var k K
	return k.Type()
}

func (s *Store[K]) envelope(entityID string, source core.Source, ts time.Time, extra map[string]string) map[string]string {
	meta := maps.Clone(extra)
	if meta == nil {
		meta = make(map[string]string, 4)
	}
	meta[core.MetaEntityID] = entityID
	meta[core.MetaEntityType] = string(s.Kind())
	meta[core.MetaSource] = string(source)
	meta[core.MetaTimestamp] = ts.UTC().Format(time.RFC3339)
	return meta
}

// Append embeds text and inserts it as a new item.
func (s *Store[K]) Append(ctx context.Context, entityID string, source core.Source, text string, ts time.Time, extra map[string]string) {
	if ctx.Err() != nil {
		return
	}
	vec, ok := s.embedder.Embed(ctx, text)
	if !ok {
		return
	}
	if _, err := s.index.Insert(ctx, vec, s.envelope(entityID, source, ts, extra), text); err != nil {
		log.FromCtx(ctx).Error().Err(err).
			Str("kind", string(s.Kind())).
			Str("entity_id", entityID).
			Str("source", string(source)).
			Msg("failed to write memory item")
	}
}

// Upsert embeds text and replaces whatever item this entity already holds
// for key, so at most one item per (entity, key) exists.
func (s *Store[K]) Upsert(ctx context.Context, entityID, keyField, keyValue string, source core.Source, text string, ts time.Time, extra map[string]string) {
	if ctx.Err() != nil {
		return
	}
	vec, ok := s.embedder.Embed(ctx, text)
	if !ok {
		return
	}

	meta := s.envelope(entityID, source, ts, extra)
	meta[keyField] = keyValue
	filter := core.Filter{keyField: keyValue, core.MetaEntityID: entityID}

	if _, err := s.index.Replace(ctx, filter, vec, meta, text); err != nil {
		log.FromCtx(ctx).Error().Err(err).
			Str("kind", string(s.Kind())).
			Str("entity_id", entityID).
			Str(keyField, keyValue).
			Msg("failed to replace memory item")
	}
}

// Fetch returns up to limit texts of entityID's items most similar to query.
func (s *Store[K]) Fetch(ctx context.Context, entityID, query string, limit int) []string {
	if limit <= 0 || ctx.Err() != nil {
		return []string{}
	}
	vec, ok := s.embedder.Embed(ctx, query)
	if !ok {
		return []string{}
	}

	logger := log.FromCtx(ctx)
	k := limit * s.fanout
	results, err := s.index.Query(ctx, vec, query, k)
	if err != nil {
		logger.Error().Err(err).Str("entity_id", entityID).Msg("memory query failed")
		return []string{}
	}

	texts := filterEntity(results, entityID, limit)
	if len(texts) < limit && len(results) == k {
		// Other entities crowded the candidates out; rank the whole index once.
		total, err := s.index.Count(ctx)
		if err == nil && total > k {
			if all, err := s.index.Query(ctx, vec, query, total); err == nil {
				texts = filterEntity(all, entityID, limit)
			}
		}
	}

	logger.Debug().
		Str("kind", string(s.Kind())).
		Str("entity_id", entityID).
		Int("candidates", len(results)).
		Int("returned", len(texts)).
		Msg("fetched memory context")
	return texts
}

func filterEntity(results []core.ScoredItem, entityID string, limit int) []string {
	texts := make([]string, 0, limit)
	for _, r := range results {
		if r.Item.EntityID() != entityID {
			continue
		}
		texts = append(texts, r.Item.Text)
		if len(texts) == limit {
			break
		}
	}
	return texts
}

// Items lists entityID's items in index order.
func (s *Store[K]) Items(ctx context.Context, entityID string) []core.MemoryItem {
	if ctx.Err() != nil {
		return nil
	}
	items, err := s.index.ListByMetadata(ctx, core.Filter{core.MetaEntityID: entityID})
	if err != nil {
		log.FromCtx(ctx).Error().Err(err).Str("entity_id", entityID).Msg("failed to list memory items")
		return nil
	}
	return items
}

// Purge deletes every item of entityID and returns how many were removed.
// Remove deletes the entity's items whose keyField equals keyValue.
func (s *Store[K]) Remove(ctx context.Context, entityID, keyField, keyValue string) int {
	n, err := s.index.DeleteByMetadata(ctx, core.Filter{core.MetaEntityID: entityID, keyField: keyValue})
	if err != nil {
		log.FromCtx(ctx).Error().Err(err).Str("entity_id", entityID).Str(keyField, keyValue).Msg("failed to remove memory")
		return 0
	}
	return n
}

func (s *Store[K]) Purge(ctx context.Context, entityID string) int {
	n, err := s.index.DeleteByMetadata(ctx, core.Filter{core.MetaEntityID: entityID})
	if err != nil {
		log.FromCtx(ctx).Error().Err(err).Str("entity_id", entityID).Msg("failed to purge memory")
		return 0
	}
	return n
}

func (s *Store[K]) Count(ctx context.Context) (int, bool) {
	n, err := s.index.Count(ctx)
	if err != nil {
		log.FromCtx(ctx).Error().Err(err).Str("kind", string(s.Kind())).Msg("failed to count memory items")
		return 0, false
	}
	return n, true
}
