// Package reindex rebuilds the search index from the articles table. It is
// an explicit batch job, not a background process, and the recovery path for
// any drift the best-effort write sync leaves behind.
package reindex

import (
	"context"
	"fmt"

	"github.com/ausaur/saurcours/internal/domain"
)

// Source reads every article for projection.
type Source interface {
	ListAll(ctx context.Context) ([]domain.Article, error)
}

// Index receives the rebuilt document set.
type Index interface {
	EnsureIndex(ctx context.Context) error
	Upsert(ctx context.Context, docs []domain.Document) error
}

// Service runs the full rebuild.
type Service struct {
	src       Source
	index     Index
	batchSize int
}

// New creates a reindex service.
func New(src Source, index Index) *Service {
	return &Service{src: src, index: index, batchSize: 200}
}

// WithBatchSize configures the upsert batch size.
func (s *Service) WithBatchSize(n int) *Service {
	if n > 0 {
		s.batchSize = n
	}
	return s
}

// Run ensures the index exists, projects every article, and upserts the
// full document set. Documents present in the index but absent from the
// table are left in place (no orphan cleanup).
func (s *Service) Run(ctx context.Context) (int, error) {
	if err := s.index.EnsureIndex(ctx); err != nil {
		return 0, fmt.Errorf("ensure index: %w", err)
	}

	articles, err := s.src.ListAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("read articles: %w", err)
	}

	// Link targets resolve against the same snapshot being indexed.
	knownSlugs := make(map[string]bool, len(articles))
	for i := range articles {
		if articles[i].Slug != "" {
			knownSlugs[articles[i].Slug] = true
		}
	}

	docs := make([]domain.Document, 0, len(articles))
	for i := range articles {
		docs = append(docs, domain.ProjectDocument(&articles[i], knownSlugs))
	}

	for start := 0; start < len(docs); start += s.batchSize {
		end := start + s.batchSize
		if end > len(docs) {
			end = len(docs)
		}
		if err := s.index.Upsert(ctx, docs[start:end]); err != nil {
			return 0, fmt.Errorf("upsert batch %d-%d: %w", start, end, err)
		}
	}

	return len(docs), nil
}
