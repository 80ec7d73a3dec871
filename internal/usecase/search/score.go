package search

import (
	"sort"
	"strings"

	"github.com/ausaur/saurcours/internal/domain"
	"github.com/ausaur/saurcours/internal/normalize"
)

// Scoring weights. Coverage dominates: the maximum per-token field bonus
// (6+3+1 = 10) never exceeds the per-token coverage weight, so a document
// matching more distinct query tokens always outranks one matching fewer.
const (
	coverageWeight = 10
	titleWeight    = 6
	tagsWeight     = 3
	contentWeight  = 1
)

// candidate is the per-search aggregation of one document's match state.
// Folded field text is computed once, on first appearance in the union.
type candidate struct {
	doc     domain.Document
	matched map[string]bool // subset of query tokens that produced a hit

	title   string
	tags    string
	content string
}

func newCandidate(doc domain.Document) *candidate {
	return &candidate{
		doc:     doc,
		matched: make(map[string]bool),
		title:   normalize.Fold(doc.Title),
		tags:    normalize.Fold(strings.Join(doc.Tags, " ")),
		content: normalize.Fold(doc.Content),
	}
}

// score computes the candidate's rank against the full query token set.
// Field bonuses run over every query token, not just the matched subset: a
// token can occur in a field even when it was not the lookup that pulled
// the document into the union.
func (c *candidate) score(tokens []string, boosts map[string]int) int {
	s := coverageWeight * len(c.matched)
	for _, t := range tokens {
		if strings.Contains(c.title, t) {
			s += titleWeight
		}
		if strings.Contains(c.tags, t) {
			s += tagsWeight
		}
		if strings.Contains(c.content, t) {
			s += contentWeight
		}
	}
	return s + boosts[c.doc.ID]
}

// rank scores every candidate, orders by score descending with document
// identity ascending as the explicit tie-break, and truncates to limit.
func rank(cands map[string]*candidate, tokens []string, boosts map[string]int, limit int) []Hit {
	hits := make([]Hit, 0, len(cands))
	for _, c := range cands {
		hits = append(hits, Hit{Document: c.doc, Score: c.score(tokens, boosts)})
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].ID < hits[j].ID
	})

	if len(hits) > limit {
		hits = hits[:limit]
	}
	return hits
}
