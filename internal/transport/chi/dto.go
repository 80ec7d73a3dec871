package chi

import (
	"time"

	"github.com/ausaur/saurcours/internal/domain"
	"github.com/ausaur/saurcours/internal/repository/audit"
)

// ErrorCode is the machine-readable error code in error responses.
type ErrorCode string

// Error codes returned to clients.
const (
	CodeBadRequest       ErrorCode = "bad_request"
	CodeValidationFailed ErrorCode = "validation_failed"
	CodeNotFound         ErrorCode = "not_found"
	CodeSlugTaken        ErrorCode = "slug_taken"
	CodeUnauthorized     ErrorCode = "unauthorized"
	CodeStoreUnavailable ErrorCode = "store_unavailable"
	CodeInternalError    ErrorCode = "internal_error"
)

// ErrorResponse is the JSON error envelope.
type ErrorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// articleRequest is the create payload.
type articleRequest struct {
	Title    string   `json:"title"`
	Slug     string   `json:"slug"`
	Content  string   `json:"content"`
	Category string   `json:"category"`
	Type     string   `json:"type"`
	Tags     []string `json:"tags"`
	Links    []string `json:"links"`
}

// articlePatchRequest is the partial update payload. Absent fields stay
// untouched.
type articlePatchRequest struct {
	Title    *string   `json:"title"`
	Slug     *string   `json:"slug"`
	Content  *string   `json:"content"`
	Category *string   `json:"category"`
	Type     *string   `json:"type"`
	Tags     *[]string `json:"tags"`
	Links    *[]string `json:"links"`
}

func (p *articlePatchRequest) toPatch() domain.ArticlePatch {
	return domain.ArticlePatch{
		Title:    p.Title,
		Slug:     p.Slug,
		Content:  p.Content,
		Category: p.Category,
		Type:     p.Type,
		Tags:     p.Tags,
		Links:    p.Links,
	}
}

// articleResponse is the article JSON shape.
type articleResponse struct {
	ID        int64    `json:"id"`
	Slug      string   `json:"slug"`
	Title     string   `json:"title"`
	Content   string   `json:"content"`
	Category  string   `json:"category"`
	Type      string   `json:"type"`
	Tags      []string `json:"tags"`
	Links     []string `json:"links"`
	CreatedAt string   `json:"created_at"`
	UpdatedAt string   `json:"updated_at"`
}

func articleToResponse(a *domain.Article) articleResponse {
	return articleResponse{
		ID:        a.ID,
		Slug:      a.Slug,
		Title:     a.Title,
		Content:   a.Content,
		Category:  a.Category,
		Type:      a.Type,
		Tags:      emptyIfNil(a.Tags),
		Links:     emptyIfNil(a.Links),
		CreatedAt: a.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt: a.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

// auditEntryResponse is one row of the admin audit listing.
type auditEntryResponse struct {
	Action     string `json:"action"`
	EntityType string `json:"entity_type"`
	EntityID   string `json:"entity_id"`
	Actor      string `json:"actor"`
	CreatedAt  string `json:"created_at"`
}

func auditEntryToResponse(e *audit.Entry) auditEntryResponse {
	return auditEntryResponse{
		Action:     e.Action,
		EntityType: e.EntityType,
		EntityID:   e.EntityID,
		Actor:      e.Actor,
		CreatedAt:  e.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func emptyIfNil(v []string) []string {
	if v == nil {
		return []string{}
	}
	return v
}
