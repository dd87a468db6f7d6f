// Package search provides Searcher implementations over the knowledge
// collections (symptoms, instincts, exercises): a chromem-go backed vector
// store for semantic matching and a keyword store for tests and degraded
// operation.
package search
