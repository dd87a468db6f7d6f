package search

import (
	"context"
	"fmt"
	"sync"

	chromem "github.com/philippgille/chromem-go"

	"github.com/kemperfekt/wuff-api/core"
)

// Document is one knowledge entry to index: the content is embedded, the
// properties are returned verbatim on a hit.
type Document struct {
	ID         string
	Content    string
	Properties map[string]string
}

// ChromemSearcher is a chromem-go backed Searcher. Collections are created
// lazily on first add. chromem reports cosine similarity (higher is better);
// results carry distance = 1 - similarity so that lower stays better, like
// the rest of the system expects.
type ChromemSearcher struct {
	mu          sync.RWMutex
	db          *chromem.DB
	collections map[string]*chromem.Collection
	embed       chromem.EmbeddingFunc
}

var _ core.Searcher = (*ChromemSearcher)(nil)

// NewChromemSearcher creates an in-memory vector store using the given
// embedding function, e.g. chromem.NewEmbeddingFuncOpenAI.
func NewChromemSearcher(embed chromem.EmbeddingFunc) *ChromemSearcher {
	return &ChromemSearcher{
		db:          chromem.NewDB(),
		collections: make(map[string]*chromem.Collection),
		embed:       embed,
	}
}

// AddDocuments indexes documents into the named collection, creating it when
// needed.
func (s *ChromemSearcher) AddDocuments(ctx context.Context, collection string, docs []Document) error {
	if len(docs) == 0 {
		return nil
	}
	col, err := s.getOrCreate(collection)
	if err != nil {
		return err
	}

	chromemDocs := make([]chromem.Document, len(docs))
	for i, d := range docs {
		metadata := make(map[string]string, len(d.Properties))
		for k, v := range d.Properties {
			metadata[k] = v
		}
		chromemDocs[i] = chromem.Document{
			ID:       d.ID,
			Content:  d.Content,
			Metadata: metadata,
		}
	}
	if err := col.AddDocuments(ctx, chromemDocs, 1); err != nil {
		return fmt.Errorf("add documents to %q: %w", collection, err)
	}
	return nil
}

// Search answers a similarity query against one collection. An unknown or
// empty collection yields no results, not an error, so a partially seeded
// store degrades to the no-match path.
func (s *ChromemSearcher) Search(ctx context.Context, req core.SearchRequest) ([]core.SearchResult, error) {
	s.mu.RLock()
	col, ok := s.collections[req.Collection]
	s.mu.RUnlock()
	if !ok {
		return nil, nil
	}

	limit := req.Limit
	if limit <= 0 {
		limit = 10
	}
	// chromem requires nResults <= collection size.
	count := col.Count()
	if count == 0 {
		return nil, nil
	}
	if limit > count {
		limit = count
	}

	results, err := col.Query(ctx, req.Query, limit, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("query %q: %w", req.Collection, err)
	}

	out := make([]core.SearchResult, len(results))
	for i, r := range results {
		out[i] = core.SearchResult{
			Properties: filterProperties(r.Metadata, req.Properties),
			Distance:   1 - float64(r.Similarity),
		}
	}
	return out, nil
}

func (s *ChromemSearcher) getOrCreate(name string) (*chromem.Collection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if col, ok := s.collections[name]; ok {
		return col, nil
	}
	col, err := s.db.GetOrCreateCollection(name, nil, s.embed)
	if err != nil {
		return nil, fmt.Errorf("create collection %q: %w", name, err)
	}
	s.collections[name] = col
	return col, nil
}

// filterProperties copies metadata, restricted to the requested keys when
// given.
func filterProperties(metadata map[string]string, keys []string) map[string]string {
	out := make(map[string]string)
	if len(keys) == 0 {
		for k, v := range metadata {
			out[k] = v
		}
		return out
	}
	for _, k := range keys {
		if v, ok := metadata[k]; ok {
			out[k] = v
		}
	}
	return out
}
