package memory

import (
	"context"
	"errors"

	"github.com/yvrah78/onyx-chauffeur-ai/internal/core"
)

var ErrIndexDisabled = errors.New("vector index disabled")

// DisabledIndex stands in for an index that could not be opened. Writes are
// dropped and reads come back empty. Count fails so Stats reports the
// memory as not initialized.
type DisabledIndex struct{}

var _ core.VectorIndex = DisabledIndex{}

func (DisabledIndex) Insert(context.Context, []float32, map[string]string, string) (string, error) {
	return "", nil
}

func (DisabledIndex) DeleteByID(context.Context, string) error { return nil }

func (DisabledIndex) DeleteByMetadata(context.Context, core.Filter) (int, error) { return 0, nil }

func (DisabledIndex) ListByMetadata(context.Context, core.Filter) ([]core.MemoryItem, error) {
	return nil, nil
}

func (DisabledIndex) Query(context.Context, []float32, string, int) ([]core.ScoredItem, error) {
	return nil, nil
}

func (DisabledIndex) Replace(context.Context, core.Filter, []float32, map[string]string, string) (string, error) {
	return "", nil
}

func (DisabledIndex) Count(context.Context) (int, error) { return 0, ErrIndexDisabled }
