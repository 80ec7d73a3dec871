// Package article is the sqlite-backed articles store, the system's single
// source of truth. The search index is derived from it and never read back
// into it.
package article

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/ausaur/saurcours/internal/domain"
)

const initialSchema = `
CREATE TABLE IF NOT EXISTS articles (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    slug TEXT UNIQUE NOT NULL,
    title TEXT NOT NULL,
    content TEXT NOT NULL DEFAULT '',
    category TEXT NOT NULL DEFAULT 'Processus',
    type TEXT NOT NULL DEFAULT 'process',
    tags TEXT NOT NULL DEFAULT '[]',
    links TEXT NOT NULL DEFAULT '[]',
    created_at INTEGER NOT NULL,
    updated_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_articles_updated_at ON articles(updated_at);

CREATE TABLE IF NOT EXISTS audit_log (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    action TEXT NOT NULL,
    entity_type TEXT NOT NULL,
    entity_id TEXT NOT NULL,
    actor TEXT NOT NULL DEFAULT '',
    created_at INTEGER NOT NULL
);
`

// Repo wraps the sqlite connection.
type Repo struct {
	conn *sql.DB
}

// New opens (creating if needed) the sqlite database at path and applies the
// schema.
func New(path string) (*Repo, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create data directory: %w", err)
		}
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if _, err := conn.Exec("PRAGMA foreign_keys = ON"); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	if _, err := conn.Exec(initialSchema); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &Repo{conn: conn}, nil
}

// Conn exposes the underlying handle for sibling repositories sharing the
// same database file.
func (r *Repo) Conn() *sql.DB { return r.conn }

// Ping checks database connectivity.
func (r *Repo) Ping(ctx context.Context) error {
	if err := r.conn.PingContext(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// Close closes the database.
func (r *Repo) Close() error {
	return r.conn.Close()
}

const articleColumns = "id, slug, title, content, category, type, tags, links, created_at, updated_at"

// Create inserts a new article and fills its ID and timestamps.
func (r *Repo) Create(ctx context.Context, a *domain.Article) error {
	now := time.Now().Unix()
	res, err := r.conn.ExecContext(ctx,
		`INSERT INTO articles (slug, title, content, category, type, tags, links, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.Slug, a.Title, a.Content, a.Category, a.Type,
		encodeList(a.Tags), encodeList(a.Links), now, now,
	)
	if err != nil {
		return fmt.Errorf("insert article: %w", mapSlugConflict(err))
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("last insert id: %w", err)
	}
	a.ID = id
	a.CreatedAt = time.Unix(now, 0)
	a.UpdatedAt = time.Unix(now, 0)
	return nil
}

// Update replaces all mutable columns of the article and bumps updated_at.
func (r *Repo) Update(ctx context.Context, a *domain.Article) error {
	now := time.Now().Unix()
	res, err := r.conn.ExecContext(ctx,
		`UPDATE articles SET slug = ?, title = ?, content = ?, category = ?, type = ?,
		 tags = ?, links = ?, updated_at = ? WHERE id = ?`,
		a.Slug, a.Title, a.Content, a.Category, a.Type,
		encodeList(a.Tags), encodeList(a.Links), now, a.ID,
	)
	if err != nil {
		return fmt.Errorf("update article: %w", mapSlugConflict(err))
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.ErrNotFound
	}
	a.UpdatedAt = time.Unix(now, 0)
	return nil
}

// Delete removes an article by id.
func (r *Repo) Delete(ctx context.Context, id int64) error {
	res, err := r.conn.ExecContext(ctx, "DELETE FROM articles WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete article: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// GetByID fetches one article by id.
func (r *Repo) GetByID(ctx context.Context, id int64) (domain.Article, error) {
	row := r.conn.QueryRowContext(ctx,
		"SELECT "+articleColumns+" FROM articles WHERE id = ?", id)
	return scanArticle(row)
}

// GetBySlug fetches one article by slug.
func (r *Repo) GetBySlug(ctx context.Context, slug string) (domain.Article, error) {
	row := r.conn.QueryRowContext(ctx,
		"SELECT "+articleColumns+" FROM articles WHERE slug = ?", slug)
	return scanArticle(row)
}

// List returns articles ordered by recency, optionally filtered by a LIKE
// match on title, content, or category.
func (r *Repo) List(ctx context.Context, q string, limit, offset int) ([]domain.Article, error) {
	query := "SELECT " + articleColumns + " FROM articles "
	args := []any{}
	if q != "" {
		like := "%" + q + "%"
		query += "WHERE title LIKE ? OR content LIKE ? OR category LIKE ? "
		args = append(args, like, like, like)
	}
	query += "ORDER BY updated_at DESC, id DESC LIMIT ? OFFSET ?"
	args = append(args, limit, offset)

	return r.queryArticles(ctx, query, args...)
}

// ListAll returns every article ordered by id, for the full reindex.
func (r *Repo) ListAll(ctx context.Context) ([]domain.Article, error) {
	return r.queryArticles(ctx, "SELECT "+articleColumns+" FROM articles ORDER BY id")
}

// SlugExists reports whether a slug is taken by an article other than excludeID.
func (r *Repo) SlugExists(ctx context.Context, slug string, excludeID int64) (bool, error) {
	var one int
	err := r.conn.QueryRowContext(ctx,
		"SELECT 1 FROM articles WHERE slug = ? AND id <> ?", slug, excludeID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check slug: %w", err)
	}
	return true, nil
}

// ListSlugs returns the set of all known slugs, for link resolution.
func (r *Repo) ListSlugs(ctx context.Context) (map[string]bool, error) {
	rows, err := r.conn.QueryContext(ctx, "SELECT slug FROM articles")
	if err != nil {
		return nil, fmt.Errorf("list slugs: %w", err)
	}
	defer rows.Close()

	slugs := make(map[string]bool)
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, fmt.Errorf("scan slug: %w", err)
		}
		slugs[s] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate slugs: %w", err)
	}
	return slugs, nil
}

func (r *Repo) queryArticles(ctx context.Context, query string, args ...any) ([]domain.Article, error) {
	rows, err := r.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query articles: %w", err)
	}
	defer rows.Close()

	var out []domain.Article
	for rows.Next() {
		a, err := scanArticle(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate articles: %w", err)
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanArticle(row scanner) (domain.Article, error) {
	var (
		a                  domain.Article
		tags, links        string
		createdAt, updated int64
	)
	err := row.Scan(&a.ID, &a.Slug, &a.Title, &a.Content, &a.Category, &a.Type,
		&tags, &links, &createdAt, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Article{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Article{}, fmt.Errorf("scan article: %w", err)
	}
	a.Tags = decodeList(tags)
	a.Links = decodeList(links)
	a.CreatedAt = time.Unix(createdAt, 0)
	a.UpdatedAt = time.Unix(updated, 0)
	return a, nil
}

// mapSlugConflict translates the UNIQUE constraint violation on
// articles.slug into the slug-taken sentinel. The slug is the table's only
// unique column besides the primary key, so any unique violation on a write
// is a slug collision — the pre-check in the service layer can always lose
// a race to a concurrent writer.
func mapSlugConflict(err error) error {
	var serr *sqlite.Error
	if errors.As(err, &serr) && serr.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE {
		return domain.ErrSlugTaken
	}
	return err
}

func encodeList(v []string) string {
	if v == nil {
		v = []string{}
	}
	data, err := json.Marshal(v)
	if err != nil {
		return "[]"
	}
	return string(data)
}

// decodeList tolerates malformed stored JSON, returning an empty list.
func decodeList(s string) []string {
	var out []string
	if err := json.Unmarshal([]byte(s), &out); err != nil {
		return []string{}
	}
	if out == nil {
		return []string{}
	}
	return out
}
