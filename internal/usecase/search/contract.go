package search

import (
	"context"

	"github.com/ausaur/saurcours/internal/domain"
)

// Index is the document store contract for the read path. One call per
// query token; the service controls batching and merging.
type Index interface {
	Search(ctx context.Context, q string, limit int, filter string) ([]domain.Document, error)
}

// ResultCache caches serialized responses. Implementations must be
// fail-soft: a broken cache degrades to miss, never to an error.
type ResultCache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Put(ctx context.Context, key string, data []byte)
}
