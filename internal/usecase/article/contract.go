package article

import (
	"context"

	"github.com/ausaur/saurcours/internal/domain"
)

// Repository defines the storage contract for the articles source of truth.
type Repository interface {
	Create(ctx context.Context, a *domain.Article) error
	Update(ctx context.Context, a *domain.Article) error
	Delete(ctx context.Context, id int64) error
	GetByID(ctx context.Context, id int64) (domain.Article, error)
	GetBySlug(ctx context.Context, slug string) (domain.Article, error)
	List(ctx context.Context, q string, limit, offset int) ([]domain.Article, error)
	SlugExists(ctx context.Context, slug string, excludeID int64) (bool, error)
	ListSlugs(ctx context.Context) (map[string]bool, error)
}

// IndexWriter is the write-path contract against the document store. Every
// call is best-effort from the caller's perspective.
type IndexWriter interface {
	Upsert(ctx context.Context, docs []domain.Document) error
	Delete(ctx context.Context, ids []string) error
}

// Auditor records mutations. Optional.
type Auditor interface {
	Record(ctx context.Context, action, entityType, entityID, actor string) error
}
