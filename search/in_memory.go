package search

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/kemperfekt/wuff-api/core"
)

// InMemorySearcher is a naive keyword Searcher over the same Document shape
// the vector store indexes. Scoring counts overlapping words between query
// and content: a hit on at least one word scores a distance below the usual
// match threshold, no overlap scores 1.0. Suitable for tests and demos only.
type InMemorySearcher struct {
	mu          sync.RWMutex
	collections map[string][]Document
}

var _ core.Searcher = (*InMemorySearcher)(nil)

// NewInMemorySearcher returns an empty keyword searcher.
func NewInMemorySearcher() *InMemorySearcher {
	return &InMemorySearcher{collections: make(map[string][]Document)}
}

// AddDocuments indexes documents into the named collection.
func (s *InMemorySearcher) AddDocuments(_ context.Context, collection string, docs []Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.collections[collection] = append(s.collections[collection], docs...)
	return nil
}

// Search performs a linear scan with word-overlap scoring. Results are
// ordered by ascending distance.
func (s *InMemorySearcher) Search(_ context.Context, req core.SearchRequest) ([]core.SearchResult, error) {
	s.mu.RLock()
	docs := s.collections[req.Collection]
	s.mu.RUnlock()
	if len(docs) == 0 {
		return nil, nil
	}

	limit := req.Limit
	if limit <= 0 {
		limit = 10
	}

	queryWords := tokenize(req.Query)
	var out []core.SearchResult
	for _, d := range docs {
		distance := score(queryWords, tokenize(d.Content))
		out = append(out, core.SearchResult{
			Properties: filterProperties(d.Properties, req.Properties),
			Distance:   distance,
		})
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Distance < out[j].Distance })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func tokenize(s string) map[string]struct{} {
	words := map[string]struct{}{}
	for _, w := range strings.Fields(strings.ToLower(s)) {
		w = strings.Trim(w, ".,!?:;\"'")
		if len(w) > 2 {
			words[w] = struct{}{}
		}
	}
	return words
}

// score maps word overlap to a distance: full overlap approaches 0, no
// overlap is 1.
func score(query, content map[string]struct{}) float64 {
	if len(query) == 0 {
		return 1
	}
	overlap := 0
	for w := range query {
		if _, ok := content[w]; ok {
			overlap++
		}
	}
	return 1 - float64(overlap)/float64(len(query))
}
