// Package article handles article CRUD and the index sync that follows it.
// Writes are two-phase: phase 1 (required, durable) commits to the articles
// table; phase 2 (best-effort) pushes the projected document to the search
// index. Phase 2 failure is logged and counted, never surfaced — the full
// reindex is the recovery mechanism for drift.
package article

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/ausaur/saurcours/internal/domain"
	"github.com/ausaur/saurcours/internal/logger"
	"github.com/ausaur/saurcours/internal/metrics"
	"github.com/ausaur/saurcours/internal/normalize"
)

// Service handles article CRUD with index synchronization.
type Service struct {
	repo  Repository
	index IndexWriter
	audit Auditor
}

// New creates an article service.
func New(repo Repository, index IndexWriter) *Service {
	return &Service{repo: repo, index: index}
}

// WithAudit attaches an audit trail.
func (s *Service) WithAudit(a Auditor) *Service {
	s.audit = a
	return s
}

// Input is an article create payload.
type Input struct {
	Title    string
	Slug     string
	Content  string
	Category string
	Type     string
	Tags     []string
	Links    []string
}

// Create validates the payload, picks a unique slug, commits the row, and
// pushes the document to the index.
func (s *Service) Create(ctx context.Context, in Input) (domain.Article, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return domain.Article{}, fmt.Errorf("title is required: %w", domain.ErrInvalidArticle)
	}

	wanted := strings.TrimSpace(in.Slug)
	if wanted == "" {
		wanted = normalize.Slugify(title)
	}
	slug, err := s.uniqueSlug(ctx, wanted, 0)
	if err != nil {
		return domain.Article{}, err
	}

	a := domain.Article{
		Slug:     slug,
		Title:    title,
		Content:  in.Content,
		Category: in.Category,
		Type:     in.Type,
		Tags:     in.Tags,
		Links:    in.Links,
	}
	if a.Category == "" {
		a.Category = domain.DefaultCategory
	}
	if a.Type == "" {
		a.Type = domain.DefaultType
	}

	if err := s.repo.Create(ctx, &a); err != nil {
		return domain.Article{}, fmt.Errorf("create article: %w", err)
	}

	s.syncUpsert(ctx, &a)
	s.record(ctx, "create", &a)
	return a, nil
}

// Update applies a partial patch and re-pushes the document.
func (s *Service) Update(ctx context.Context, id int64, p domain.ArticlePatch) (domain.Article, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return domain.Article{}, fmt.Errorf("get article: %w", err)
	}
	if p.IsEmpty() {
		return a, nil
	}

	if p.Slug != nil {
		wanted := strings.TrimSpace(*p.Slug)
		if wanted == "" {
			wanted = normalize.Slugify(a.Title)
		}
		if wanted != a.Slug {
			slug, err := s.uniqueSlug(ctx, wanted, id)
			if err != nil {
				return domain.Article{}, err
			}
			a.Slug = slug
		}
	}
	if p.Title != nil {
		title := strings.TrimSpace(*p.Title)
		if title == "" {
			return domain.Article{}, fmt.Errorf("title is required: %w", domain.ErrInvalidArticle)
		}
		a.Title = title
	}
	if p.Content != nil {
		a.Content = *p.Content
	}
	if p.Category != nil {
		a.Category = *p.Category
	}
	if p.Type != nil {
		a.Type = *p.Type
	}
	if p.Tags != nil {
		a.Tags = *p.Tags
	}
	if p.Links != nil {
		a.Links = *p.Links
	}

	if err := s.repo.Update(ctx, &a); err != nil {
		return domain.Article{}, fmt.Errorf("update article: %w", err)
	}

	s.syncUpsert(ctx, &a)
	s.record(ctx, "update", &a)
	return a, nil
}

// Delete removes the row, then the index document.
func (s *Service) Delete(ctx context.Context, id int64) error {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("get article: %w", err)
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete article: %w", err)
	}

	if err := s.index.Delete(ctx, []string{a.DocID()}); err != nil {
		s.dropPush(ctx, "delete", &a, err)
	}
	s.record(ctx, "delete", &a)
	return nil
}

// GetBySlug fetches one article.
func (s *Service) GetBySlug(ctx context.Context, slug string) (domain.Article, error) {
	a, err := s.repo.GetBySlug(ctx, slug)
	if err != nil {
		return domain.Article{}, fmt.Errorf("get article: %w", err)
	}
	return a, nil
}

// List returns articles, newest first.
func (s *Service) List(ctx context.Context, q string, limit, offset int) ([]domain.Article, error) {
	if limit <= 0 || limit > 200 {
		limit = 200
	}
	if offset < 0 {
		offset = 0
	}
	out, err := s.repo.List(ctx, q, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list articles: %w", err)
	}
	return out, nil
}

// uniqueSlug suffixes the wanted slug with -2, -3, ... until it is free.
func (s *Service) uniqueSlug(ctx context.Context, wanted string, excludeID int64) (string, error) {
	base := wanted
	if base == "" {
		base = "article"
	}
	slug := base
	for n := 2; ; n++ {
		taken, err := s.repo.SlugExists(ctx, slug, excludeID)
		if err != nil {
			return "", fmt.Errorf("check slug: %w", err)
		}
		if !taken {
			return slug, nil
		}
		slug = base + "-" + strconv.Itoa(n)
	}
}

// syncUpsert pushes the projected document to the index. The relational
// write already committed, so failure here is dropped after logging.
func (s *Service) syncUpsert(ctx context.Context, a *domain.Article) {
	// Resolve links against the table when possible; on failure index them
	// as authored rather than dropping them all.
	knownSlugs, err := s.repo.ListSlugs(ctx)
	if err != nil {
		knownSlugs = nil
	}

	doc := domain.ProjectDocument(a, knownSlugs)
	if err := s.index.Upsert(ctx, []domain.Document{doc}); err != nil {
		s.dropPush(ctx, "upsert", a, err)
	}
}

func (s *Service) dropPush(ctx context.Context, op string, a *domain.Article, err error) {
	metrics.IndexPushFailuresTotal.Inc()
	logger.FromContext(ctx).Warn("index push dropped",
		zap.String("op", op),
		zap.String("doc_id", a.DocID()),
		zap.Error(err),
	)
}

// record appends an audit entry, best-effort.
func (s *Service) record(ctx context.Context, action string, a *domain.Article) {
	if s.audit == nil {
		return
	}
	if err := s.audit.Record(ctx, action, "article", a.DocID(), ""); err != nil {
		logger.FromContext(ctx).Warn("audit record dropped",
			zap.String("action", action), zap.Error(err))
	}
}
