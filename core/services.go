package core

import (
	"context"
	"time"
)

// CompletionRequest is the normalized input for a text generation call.
type CompletionRequest struct {
	Prompt       string
	SystemPrompt string
	Temperature  float64 // 0 means provider default
	MaxTokens    int64   // 0 means provider default
}

// Generator produces free-form text completions. Implementations live under
// the model package (OpenAI, Anthropic); handlers and agents depend only on
// this interface.
type Generator interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

// SearchRequest describes one vector similarity query.
type SearchRequest struct {
	// Collection names the logical document set to query.
	Collection string
	// Query is the free-text query embedded and matched against documents.
	Query string
	// Limit caps the number of results; implementations may return fewer.
	Limit int
	// Properties optionally restricts which document properties to return.
	Properties []string
	// WithDistance requests the similarity score on each result.
	WithDistance bool
}

// SearchResult is one scored document returned by a Searcher.
type SearchResult struct {
	// Properties holds the document's named text fields.
	Properties map[string]string
	// Distance is the similarity score; lower means a better match.
	Distance float64
}

// Searcher answers vector similarity queries against named collections.
type Searcher interface {
	Search(ctx context.Context, req SearchRequest) ([]SearchResult, error)
}

// KVStore is a minimal key/value store with per-key TTL, used for best-effort
// persistence of feedback records. Values are marshalled by the
// implementation; Get unmarshals into dest.
type KVStore interface {
	Get(ctx context.Context, key string, dest any) error
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}
