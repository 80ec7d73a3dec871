// Package meili is the document store adapter: a thin client for the
// Meilisearch HTTP API. The engine is treated as a derived, rebuildable
// cache; every caller must tolerate it being unavailable.
package meili

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/ausaur/saurcours/internal/domain"
	"github.com/ausaur/saurcours/internal/metrics"
)

// Config holds the document store connection settings.
type Config struct {
	BaseURL string
	APIKey  string
	Index   string
	Timeout time.Duration
	Logger  *zap.Logger
}

// Client talks to one Meilisearch index.
type Client struct {
	baseURL string
	apiKey  string
	index   string
	http    *http.Client
	logger  *zap.Logger
}

// NewClient creates a document store client.
func NewClient(cfg *Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		index:   cfg.Index,
		http:    &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

type searchRequest struct {
	Q                string `json:"q"`
	Limit            int    `json:"limit"`
	MatchingStrategy string `json:"matchingStrategy"`
	Filter           string `json:"filter,omitempty"`
}

type searchResponse struct {
	Hits []domain.Document `json:"hits"`
}

// Search runs one query against the index. The caller controls batching
// across tokens; each call is independent. Transport failures surface as
// domain.ErrStoreUnavailable, a missing index as domain.ErrIndexNotReady.
func (c *Client) Search(ctx context.Context, q string, limit int, filter string) ([]domain.Document, error) {
	body := searchRequest{Q: q, Limit: limit, MatchingStrategy: "all", Filter: filter}

	var resp searchResponse
	if err := c.call(ctx, "search", http.MethodPost,
		fmt.Sprintf("/indexes/%s/search", c.index), body, &resp); err != nil {
		return nil, err
	}
	return resp.Hits, nil
}

// Upsert adds or replaces documents in the index.
func (c *Client) Upsert(ctx context.Context, docs []domain.Document) error {
	if len(docs) == 0 {
		return nil
	}
	return c.call(ctx, "upsert", http.MethodPost,
		fmt.Sprintf("/indexes/%s/documents", c.index), docs, nil)
}

// Delete removes documents by identity.
func (c *Client) Delete(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	return c.call(ctx, "delete", http.MethodPost,
		fmt.Sprintf("/indexes/%s/documents/delete-batch", c.index), ids, nil)
}

// indexSettings is the fixed field configuration reapplied on every start.
type indexSettings struct {
	DisplayedAttributes  []string `json:"displayedAttributes"`
	SearchableAttributes []string `json:"searchableAttributes"`
	FilterableAttributes []string `json:"filterableAttributes"`
}

func defaultSettings() indexSettings {
	return indexSettings{
		DisplayedAttributes:  []string{"id", "slug", "title", "content", "category", "type", "tags", "links", "updated_at"},
		SearchableAttributes: []string{"title", "tags", "content"},
		FilterableAttributes: []string{"category", "type", "tags"},
	}
}

// EnsureIndex creates the index if absent and reapplies the field
// configuration. Idempotent, safe to call on every process start.
func (c *Client) EnsureIndex(ctx context.Context) error {
	path := fmt.Sprintf("/indexes/%s", c.index)

	err := c.call(ctx, "ensure_index", http.MethodGet, path, nil, nil)
	if err != nil {
		if !isNotReady(err) {
			return err
		}
		create := map[string]string{"uid": c.index, "primaryKey": "id"}
		if err := c.call(ctx, "ensure_index", http.MethodPut, path, create, nil); err != nil {
			return err
		}
	}

	return c.call(ctx, "ensure_index", http.MethodPatch, path+"/settings", defaultSettings(), nil)
}

// Health checks engine availability.
func (c *Client) Health(ctx context.Context) error {
	return c.call(ctx, "health", http.MethodGet, "/health", nil, nil)
}

// call issues one HTTP request and decodes the response into out (if non-nil).
func (c *Client) call(ctx context.Context, op, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s request: %w", op, err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build %s request: %w", op, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	metrics.IndexRequestDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())

	if err != nil {
		metrics.IndexRequestsTotal.WithLabelValues(op, "error").Inc()
		return fmt.Errorf("%s: %v: %w", op, err, domain.ErrStoreUnavailable)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound {
		metrics.IndexRequestsTotal.WithLabelValues(op, "not_found").Inc()
		return fmt.Errorf("%s: index %q: %w", op, c.index, domain.ErrIndexNotReady)
	}
	if resp.StatusCode >= 400 {
		metrics.IndexRequestsTotal.WithLabelValues(op, "error").Inc()
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%s: status %d: %s: %w", op, resp.StatusCode, snippet, domain.ErrStoreUnavailable)
	}

	metrics.IndexRequestsTotal.WithLabelValues(op, "success").Inc()

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode %s response: %v: %w", op, err, domain.ErrStoreUnavailable)
		}
	}
	return nil
}

func isNotReady(err error) bool {
	return errors.Is(err, domain.ErrIndexNotReady)
}
