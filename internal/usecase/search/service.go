// Package search implements the relevance layer: per-token lookups against
// the document store, unioned into candidates, re-scored by coverage, field
// weights, and intent boosts. The rescoring restores a controllable,
// explainable ranking independent of the engine's internal relevance.
package search

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/ausaur/saurcours/internal/domain"
	"github.com/ausaur/saurcours/internal/logger"
	"github.com/ausaur/saurcours/internal/metrics"
	"github.com/ausaur/saurcours/internal/normalize"
	"github.com/ausaur/saurcours/internal/repository/searchcache"
)

// maxPerTokenLimit caps how many hits a single token lookup may request.
const maxPerTokenLimit = 100

// Hit is one ranked search result.
type Hit struct {
	domain.Document
	Score int `json:"score"`
}

// Response is the public search result set. Degraded marks answers produced
// while the document store was unreachable.
type Response struct {
	Hits     []Hit `json:"hits"`
	Degraded bool  `json:"degraded,omitempty"`
}

// Request carries the search parameters from the public surface.
type Request struct {
	Query    string
	Category string
	Type     string
	Limit    int
}

// Service runs token-union search over the document store.
type Service struct {
	index         Index
	cache         ResultCache
	rules         []BoostRule
	defaultLimit  int
	maxLimit      int
	perTokenLimit int
}

// New creates a search service with the default boost rules.
func New(index Index) *Service {
	return &Service{
		index:        index,
		rules:        DefaultBoostRules,
		defaultLimit: 20,
		maxLimit:     50,
	}
}

// WithLimits configures the default and maximum result counts.
func (s *Service) WithLimits(defaultLimit, maxLimit int) *Service {
	if defaultLimit > 0 {
		s.defaultLimit = defaultLimit
	}
	if maxLimit > 0 {
		s.maxLimit = maxLimit
	}
	return s
}

// WithPerTokenLimit fixes how many hits each token lookup requests. When
// unset, the service asks for three times the response limit.
func (s *Service) WithPerTokenLimit(n int) *Service {
	if n > 0 {
		s.perTokenLimit = n
	}
	return s
}

// WithCache attaches a result cache.
func (s *Service) WithCache(c ResultCache) *Service {
	s.cache = c
	return s
}

// WithRules replaces the boost rule table.
func (s *Service) WithRules(rules []BoostRule) *Service {
	s.rules = rules
	return s
}

// Search tokenizes the query, looks each token up independently, unions the
// hits by document identity, and re-scores. A query with no valid tokens
// short-circuits to an empty response without contacting the store; a store
// outage degrades to whatever the remaining lookups produced (possibly
// nothing) rather than failing the request.
func (s *Service) Search(ctx context.Context, req Request) Response {
	limit := req.Limit
	if limit <= 0 {
		limit = s.defaultLimit
	}
	if limit > s.maxLimit {
		limit = s.maxLimit
	}

	tokens := normalize.Tokenize(req.Query)
	if len(tokens) == 0 {
		return Response{Hits: []Hit{}}
	}

	filter := buildFilter(req.Category, req.Type)

	key := searchcache.Key(strings.Join(tokens, " "), filter, strconv.Itoa(limit))
	if resp, ok := s.fromCache(ctx, key); ok {
		return resp
	}

	cands, degraded := s.lookup(ctx, tokens, limit, filter)

	boosts := BoostFor(normalize.Fold(req.Query), s.rules)
	resp := Response{Hits: rank(cands, tokens, boosts, limit), Degraded: degraded}

	if degraded {
		metrics.SearchDegradedTotal.Inc()
	} else {
		s.toCache(ctx, key, resp)
	}
	return resp
}

// lookup issues one store query per token, concurrently, and merges the
// hits into a candidate map keyed by document identity. Concurrent writers
// to the same key union their matched-token sets via the shared mutex.
func (s *Service) lookup(
	ctx context.Context, tokens []string, limit int, filter string,
) (map[string]*candidate, bool) {
	perToken := s.perTokenLimit
	if perToken <= 0 {
		perToken = limit * 3
	}
	if perToken > maxPerTokenLimit {
		perToken = maxPerTokenLimit
	}

	var (
		mu       sync.Mutex
		wg       sync.WaitGroup
		cands    = make(map[string]*candidate)
		degraded bool
	)

	for _, token := range tokens {
		wg.Add(1)
		go func(token string) {
			defer wg.Done()

			hits, err := s.index.Search(ctx, token, perToken, filter)
			if err != nil {
				// Unavailable store means this token contributes nothing;
				// the request itself must not fail.
				logger.FromContext(ctx).Warn("token lookup failed",
					zap.String("token", token), zap.Error(err))
				mu.Lock()
				degraded = true
				mu.Unlock()
				return
			}

			mu.Lock()
			for i := range hits {
				c, ok := cands[hits[i].ID]
				if !ok {
					c = newCandidate(hits[i])
					cands[hits[i].ID] = c
				}
				c.matched[token] = true
			}
			mu.Unlock()
		}(token)
	}
	wg.Wait()

	return cands, degraded
}

// buildFilter renders the optional category/type constraints in the store's
// filter syntax.
func buildFilter(category, articleType string) string {
	var parts []string
	if category != "" {
		parts = append(parts, `category = `+strconv.Quote(category))
	}
	if articleType != "" {
		parts = append(parts, `type = `+strconv.Quote(articleType))
	}
	return strings.Join(parts, " AND ")
}

func (s *Service) fromCache(ctx context.Context, key string) (Response, bool) {
	if s.cache == nil {
		return Response{}, false
	}
	data, ok := s.cache.Get(ctx, key)
	if !ok {
		return Response{}, false
	}
	var resp Response
	if err := json.Unmarshal(data, &resp); err != nil {
		logger.FromContext(ctx).Warn("discarding malformed cached response", zap.Error(err))
		return Response{}, false
	}
	return resp, true
}

func (s *Service) toCache(ctx context.Context, key string, resp Response) {
	if s.cache == nil {
		return
	}
	data, err := json.Marshal(resp)
	if err != nil {
		return
	}
	s.cache.Put(ctx, key, data)
}
