// Package chi wires the usecase services to HTTP routes.
package chi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/ausaur/saurcours/internal/domain"
	"github.com/ausaur/saurcours/internal/repository/audit"
	articleuc "github.com/ausaur/saurcours/internal/usecase/article"
	healthuc "github.com/ausaur/saurcours/internal/usecase/health"
	reindexuc "github.com/ausaur/saurcours/internal/usecase/reindex"
	searchuc "github.com/ausaur/saurcours/internal/usecase/search"
)

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// AuditReader lists recent mutation records for the admin surface.
type AuditReader interface {
	Recent(ctx context.Context, limit int) ([]audit.Entry, error)
}

// Server exposes the knowledge base over HTTP.
type Server struct {
	articles      *articleuc.Service
	search        *searchuc.Service
	reindex       *reindexuc.Service
	health        *healthuc.Service
	audit         AuditReader
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	articles *articleuc.Service,
	search *searchuc.Service,
	reindex *reindexuc.Service,
	health *healthuc.Service,
	logger *zap.Logger,
) *Server {
	s := &Server{
		articles: articles,
		search:   search,
		reindex:  reindex,
		health:   health,
		logger:   logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrNotFound, http.StatusNotFound, CodeNotFound),
		sentinelHandler(domain.ErrSlugTaken, http.StatusConflict, CodeSlugTaken),
		sentinelHandler(domain.ErrInvalidArticle, http.StatusBadRequest, CodeValidationFailed),
		sentinelHandler(domain.ErrStoreUnavailable, http.StatusServiceUnavailable, CodeStoreUnavailable),
		sentinelHandler(domain.ErrIndexNotReady, http.StatusServiceUnavailable, CodeStoreUnavailable),
	}
	return s
}

// WithAuditLog attaches the admin audit listing. Without it the audit route
// serves an empty history.
func (s *Server) WithAuditLog(a AuditReader) *Server {
	s.audit = a
	return s
}

// Register mounts all routes. Write and admin routes go through the given
// auth middleware; search and reads stay open.
func (s *Server) Register(r chi.Router, auth func(http.Handler) http.Handler) {
	r.Get("/health", s.Health)

	r.Route("/api", func(r chi.Router) {
		r.Get("/search", s.Search)
		r.Get("/articles", s.ListArticles)
		r.Get("/articles/slug/{slug}", s.GetArticle)

		r.Group(func(r chi.Router) {
			r.Use(auth)
			r.Post("/articles", s.CreateArticle)
			r.Put("/articles/{id}", s.UpdateArticle)
			r.Delete("/articles/{id}", s.DeleteArticle)
			r.Post("/admin/reindex", s.Reindex)
			r.Get("/admin/audit", s.AuditLog)
		})
	})
}

// Search handles GET /api/search.
func (s *Server) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	limit := 0
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, CodeBadRequest, "limit must be an integer")
			return
		}
		limit = n
	}

	resp := s.search.Search(r.Context(), searchuc.Request{
		Query:    q.Get("q"),
		Category: q.Get("category"),
		Type:     q.Get("type"),
		Limit:    limit,
	})
	writeJSON(w, http.StatusOK, resp)
}

// ListArticles handles GET /api/articles.
func (s *Server) ListArticles(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))

	articles, err := s.articles.List(r.Context(), q.Get("q"), limit, offset)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	items := make([]articleResponse, len(articles))
	for i := range articles {
		items[i] = articleToResponse(&articles[i])
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

// GetArticle handles GET /api/articles/slug/{slug}.
func (s *Server) GetArticle(w http.ResponseWriter, r *http.Request) {
	a, err := s.articles.GetBySlug(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, articleToResponse(&a))
}

// CreateArticle handles POST /api/articles.
func (s *Server) CreateArticle(w http.ResponseWriter, r *http.Request) {
	var req articleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "invalid request body: "+err.Error())
		return
	}

	a, err := s.articles.Create(r.Context(), articleuc.Input{
		Title:    req.Title,
		Slug:     req.Slug,
		Content:  req.Content,
		Category: req.Category,
		Type:     req.Type,
		Tags:     req.Tags,
		Links:    req.Links,
	})
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, articleToResponse(&a))
}

// UpdateArticle handles PUT /api/articles/{id}.
func (s *Server) UpdateArticle(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "id must be an integer")
		return
	}

	var req articlePatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "invalid request body: "+err.Error())
		return
	}

	a, err := s.articles.Update(r.Context(), id, req.toPatch())
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, articleToResponse(&a))
}

// DeleteArticle handles DELETE /api/articles/{id}.
func (s *Server) DeleteArticle(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "id must be an integer")
		return
	}

	if err := s.articles.Delete(r.Context(), id); err != nil {
		s.handleDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Reindex handles POST /api/admin/reindex.
func (s *Server) Reindex(w http.ResponseWriter, r *http.Request) {
	count, err := s.reindex.Run(r.Context())
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"indexed": count})
}

// AuditLog handles GET /api/admin/audit.
func (s *Server) AuditLog(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	items := []auditEntryResponse{}
	if s.audit != nil {
		entries, err := s.audit.Recent(r.Context(), limit)
		if err != nil {
			s.handleDomainError(w, err)
			return
		}
		for i := range entries {
			items = append(items, auditEntryToResponse(&entries[i]))
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

// Health handles GET /health.
func (s *Server) Health(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())
	status := http.StatusOK
	if report.Status != healthuc.Healthy {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, report)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorCode, message string) {
	writeJSON(w, status, ErrorResponse{Code: code, Message: message})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrNotFound,
		domain.ErrSlugTaken,
		domain.ErrInvalidArticle,
		domain.ErrStoreUnavailable,
		domain.ErrIndexNotReady,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler matching one sentinel error.
func sentinelHandler(sentinel error, status int, code ErrorCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, CodeInternalError, "internal error")
}
