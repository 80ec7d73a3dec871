package domain

import (
	"sort"
	"strconv"
	"time"
)

// Default values applied when an article payload leaves them empty.
const (
	DefaultCategory = "Processus"
	DefaultType     = "process"
)

// Article is a row of the relational articles table, the source of truth.
type Article struct {
	ID        int64
	Slug      string
	Title     string
	Content   string
	Category  string
	Type      string
	Tags      []string
	Links     []string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// DocID returns the stable index identity of the article: the slug, or a
// numeric fallback for legacy rows created before slugs were mandatory.
func (a *Article) DocID() string {
	if a.Slug != "" {
		return a.Slug
	}
	return "article-" + strconv.FormatInt(a.ID, 10)
}

// ArticlePatch is a partial article update. Nil fields are left untouched.
type ArticlePatch struct {
	Slug     *string
	Title    *string
	Content  *string
	Category *string
	Type     *string
	Tags     *[]string
	Links    *[]string
}

// IsEmpty reports whether the patch changes nothing.
func (p *ArticlePatch) IsEmpty() bool {
	return p.Slug == nil && p.Title == nil && p.Content == nil &&
		p.Category == nil && p.Type == nil && p.Tags == nil && p.Links == nil
}

// Document is the denormalized projection of an article pushed to the search
// index. The index copy is a derived, rebuildable cache; the articles table
// stays the sole source of truth.
type Document struct {
	ID        string   `json:"id"`
	Slug      string   `json:"slug"`
	Title     string   `json:"title"`
	Content   string   `json:"content"`
	Category  string   `json:"category"`
	Type      string   `json:"type"`
	Tags      []string `json:"tags"`
	Links     []string `json:"links"`
	UpdatedAt int64    `json:"updated_at"`
}

// ProjectDocument flattens an article into an indexable Document. Tags are
// deduplicated and sorted. Links keep their authored order, deduplicated;
// when knownSlugs is non-nil, links whose target is not a known slug are
// dropped rather than indexed dangling.
func ProjectDocument(a *Article, knownSlugs map[string]bool) Document {
	typ := a.Type
	if typ == "" {
		typ = DefaultType
	}
	return Document{
		ID:        a.DocID(),
		Slug:      a.Slug,
		Title:     a.Title,
		Content:   a.Content,
		Category:  a.Category,
		Type:      typ,
		Tags:      normalizeTags(a.Tags),
		Links:     resolveLinks(a.Links, knownSlugs),
		UpdatedAt: a.UpdatedAt.Unix(),
	}
}

func normalizeTags(tags []string) []string {
	seen := make(map[string]bool, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

func resolveLinks(links []string, knownSlugs map[string]bool) []string {
	seen := make(map[string]bool, len(links))
	out := make([]string, 0, len(links))
	for _, l := range links {
		if l == "" || seen[l] {
			continue
		}
		if knownSlugs != nil && !knownSlugs[l] {
			continue
		}
		seen[l] = true
		out = append(out, l)
	}
	return out
}
