package vectorstore

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"go.uber.org/zap"

	"rani/internal/domain"
)

var (
	ErrNoPassages         = errors.New("no passages to index")
	ErrDimensionMismatch  = errors.New("query dimension mismatch")
	ErrUnknownPolicy      = errors.New("unknown embedding failure policy")
	ErrVectorsOutOfLength = errors.New("passages and vectors length mismatch")
)

// Index is an exact (flat) nearest-neighbour index under squared Euclidean
// distance. It is immutable once built and safe for concurrent searches.
type Index struct {
	dimension int
	passages  []domain.Passage
	matrix    []float32 // row-major, len(passages) rows of dimension columns
	failed    []int
}

// Build embeds every passage once, in order, and indexes the vectors.
func Build(ctx context.Context, passages []domain.Passage, emb Embedder, policy FailurePolicy, log *zap.Logger) (*Index, error) {
	if len(passages) == 0 {
		return nil, ErrNoPassages
	}
	if policy == "" {
		policy = FailureZero
	}
	if !policy.Valid() {
		return nil, fmt.Errorf("%w: %s", ErrUnknownPolicy, policy)
	}
	if log == nil {
		log = zap.NewNop()
	}

	log = log.With(
		zap.String("action", "build_index"),
		zap.String("on_failure", string(policy)),
	)

	var (
		kept    = make([]domain.Passage, 0, len(passages))
		vectors = make([]domain.Vector, 0, len(passages))
		failed  []int
	)

	for _, p := range passages {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		v, err := emb.TryEmbed(ctx, p.Text)
		if err != nil {
			failed = append(failed, p.Index)

			if policy == FailureExclude {
				log.Warn("passage excluded from index", zap.Int("passage", p.Index))
				continue
			}
		}

		kept = append(kept, p)
		vectors = append(vectors, v)
	}

	idx, err := FromVectors(kept, vectors, emb.Dimension())
	if err != nil {
		return nil, err
	}
	idx.failed = failed

	log.Info("index built",
		zap.Int("passages", len(passages)),
		zap.Int("indexed", idx.Len()),
		zap.Int("failed", len(failed)),
		zap.Int("dimension", idx.dimension),
	)

	return idx, nil
}

// FromVectors builds an index from precomputed vectors; vectors[i] belongs to
// passages[i].
func FromVectors(passages []domain.Passage, vectors []domain.Vector, dimension int) (*Index, error) {
	if len(passages) != len(vectors) {
		return nil, ErrVectorsOutOfLength
	}

	matrix := make([]float32, 0, len(vectors)*dimension)
	for i, v := range vectors {
		if len(v) != dimension {
			return nil, fmt.Errorf("%w: passage %d has %d, want %d",
				ErrDimensionMismatch, passages[i].Index, len(v), dimension)
		}
		matrix = append(matrix, v...)
	}

	return &Index{
		dimension: dimension,
		passages:  slices.Clone(passages),
		matrix:    matrix,
	}, nil
}

// Dimension returns D.
func (idx *Index) Dimension() int { return idx.dimension }

// Len returns the number of indexed passages.
func (idx *Index) Len() int { return len(idx.passages) }


// Failed returns the indexes of passages whose embedding failed at build time.
func (idx *Index) Failed() []int { return slices.Clone(idx.failed) }

// Vector returns a copy of the i-th stored vector.
func (idx *Index) Vector(i int) domain.Vector {
	row := idx.matrix[i*idx.dimension : (i+1)*idx.dimension]
	return slices.Clone(domain.Vector(row))
}

// Search returns the k nearest passages by ascending squared L2 distance.
// Equal distances keep index order. A k larger than the index returns every
// passage; a non-positive k returns none.
func (idx *Index) Search(query domain.Vector, k int) ([]domain.SearchResult, error) {
	if len(query) != idx.dimension {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrDimensionMismatch, len(query), idx.dimension)
	}
	if k <= 0 {
		return nil, nil
	}

	results := make([]domain.SearchResult, len(idx.passages))
	for i, p := range idx.passages {
		row := idx.matrix[i*idx.dimension : (i+1)*idx.dimension]
		results[i] = domain.SearchResult{
			Passage:  p,
			Distance: SquaredL2(query, row),
		}
	}

	slices.SortStableFunc(results, func(a, b domain.SearchResult) int {
		switch {
		case a.Distance < b.Distance:
			return -1
		case a.Distance > b.Distance:
			return 1
		}
		return 0
	})

	if k < len(results) {
		results = results[:k]
	}
	return results, nil
}

// SquaredL2 returns the squared Euclidean distance between a and b, which
// must have equal length.
func SquaredL2(a, b []float32) float64 {
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return sum
}
