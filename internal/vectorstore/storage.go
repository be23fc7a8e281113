package vectorstore

import (
	"context"

	"rani/internal/domain"
)

// Searcher answers nearest-neighbour queries over indexed passages.
type Searcher interface {
	Search(query domain.Vector, k int) ([]domain.SearchResult, error)
	Dimension() int
	Len() int
}

// Embedder is the part of the embedding gateway the index builder needs.
type Embedder interface {
	Dimension() int
	TryEmbed(ctx context.Context, text string) (domain.Vector, error)
}

// FailurePolicy decides what happens to a passage whose embedding failed.
type FailurePolicy string

const (
	// FailureZero keeps the passage with a zero placeholder vector.
	FailureZero FailurePolicy = "zero"
	// FailureExclude leaves the passage out of the index.
	FailureExclude FailurePolicy = "exclude"
)

// Valid reports whether p is a known policy.
func (p FailurePolicy) Valid() bool {
	return p == FailureZero || p == FailureExclude
}
