package retriever

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"rani/internal/domain"
	"rani/internal/vectorstore"
)

// DefaultTopK is the number of passages retrieved when the caller passes 0.
const DefaultTopK = 3

// Separator joins retrieved passages in the context block.
const Separator = "\n\n"

// QueryEmbedder embeds query text. Implementations never fail; see
// embedding.Gateway.
type QueryEmbedder interface {
	Embed(ctx context.Context, text string) domain.Vector
}

// Retriever embeds a query and returns the nearest passages from an index.
// It does not judge relevance: every call yields k passages when the index
// holds at least k.
type Retriever struct {
	embedder QueryEmbedder
	log      *zap.Logger
}

func New(embedder QueryEmbedder, log *zap.Logger) *Retriever {
	if log == nil {
		log = zap.NewNop()
	}

	return &Retriever{
		embedder: embedder,
		log:      log.With(zap.String("component", "retriever")),
	}
}

// Search returns the k nearest passages to query in rank order.
func (r *Retriever) Search(ctx context.Context, idx vectorstore.Searcher, query string, k int) ([]domain.SearchResult, error) {
	if k <= 0 {
		k = DefaultTopK
	}

	vec := r.embedder.Embed(ctx, query)
	return idx.Search(vec, k)
}

// Retrieve returns the texts of the k nearest passages, nearest first,
// separated by a blank line, and whether the nearest lies within
// maxDistance. A failed search yields an empty context that is still
// answered from.
func (r *Retriever) Retrieve(ctx context.Context, idx vectorstore.Searcher, query string, k int, maxDistance float64) (string, bool) {
	results, err := r.Search(ctx, idx, query, k)
	if err != nil {
		r.log.Error(err.Error(), zap.String("action", "retrieve"))
		return "", true
	}

	return Join(results), Relevant(results, maxDistance)
}

// Join concatenates result texts in order.
func Join(results []domain.SearchResult) string {
	texts := make([]string, len(results))
	for i, res := range results {
		texts[i] = res.Passage.Text
	}
	return strings.Join(texts, Separator)
}

// Relevant reports whether the best result lies within maxDistance. A
// non-positive bound disables the check.
func Relevant(results []domain.SearchResult, maxDistance float64) bool {
	if maxDistance <= 0 {
		return true
	}
	if len(results) == 0 {
		return false
	}
	return results[0].Distance <= maxDistance
}
