package vectorstore

import (
	"context"
	"errors"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rani/internal/domain"
)

type fakeEmbedder struct {
	dim     int
	vectors map[string]domain.Vector
	fail    map[string]bool
	calls   []string
}

func (f *fakeEmbedder) Dimension() int { return f.dim }

func (f *fakeEmbedder) TryEmbed(ctx context.Context, text string) (domain.Vector, error) {
	f.calls = append(f.calls, text)
	if f.fail[text] {
		return domain.Zero(f.dim), errors.New("embedding service down")
	}
	return f.vectors[text], nil
}

func passages(texts ...string) []domain.Passage {
	ps := make([]domain.Passage, len(texts))
	for i, t := range texts {
		ps[i] = domain.Passage{Index: i, Text: t}
	}
	return ps
}

func TestBuild(t *testing.T) {
	assert := assert.New(t)

	emb := &fakeEmbedder{
		dim: 2,
		vectors: map[string]domain.Vector{
			"a": {0, 0},
			"b": {1, 0},
			"c": {0, 2},
		},
	}

	idx, err := Build(context.Background(), passages("a", "b", "c"), emb, FailureZero, nil)
	require.NoError(t, err)

	assert.Equal(3, idx.Len())
	assert.Equal(2, idx.Dimension())
	assert.Equal([]string{"a", "b", "c"}, emb.calls, "passages are embedded once each, in order")
	assert.Empty(idx.Failed())

	for i := 0; i < idx.Len(); i++ {
		assert.Len(idx.Vector(i), idx.Dimension())
	}
}

func TestBuildNoPassages(t *testing.T) {
	_, err := Build(context.Background(), nil, &fakeEmbedder{dim: 2}, FailureZero, nil)
	assert.ErrorIs(t, err, ErrNoPassages)
}

func TestBuildUnknownPolicy(t *testing.T) {
	_, err := Build(context.Background(), passages("a"), &fakeEmbedder{dim: 1}, "drop", nil)
	assert.ErrorIs(t, err, ErrUnknownPolicy)
}

func TestBuildZeroPolicyKeepsFailedPassage(t *testing.T) {
	assert := assert.New(t)

	emb := &fakeEmbedder{
		dim:     3,
		vectors: map[string]domain.Vector{"ok": {1, 1, 1}},
		fail:    map[string]bool{"bad": true},
	}

	idx, err := Build(context.Background(), passages("ok", "bad"), emb, FailureZero, nil)
	require.NoError(t, err)

	assert.Equal(2, idx.Len())
	assert.Equal([]int{1}, idx.Failed())
	assert.True(idx.Vector(1).IsZero())
	assert.Len(idx.Vector(1), 3)
}

func TestBuildExcludePolicyDropsFailedPassage(t *testing.T) {
	assert := assert.New(t)

	emb := &fakeEmbedder{
		dim:     1,
		vectors: map[string]domain.Vector{"ok": {1}, "fine": {2}},
		fail:    map[string]bool{"bad": true},
	}

	idx, err := Build(context.Background(), passages("ok", "bad", "fine"), emb, FailureExclude, nil)
	require.NoError(t, err)

	assert.Equal(2, idx.Len())
	assert.Equal([]int{1}, idx.Failed())

	res, err := idx.Search(domain.Vector{2}, 10)
	require.NoError(t, err)
	require.Len(t, res, 2)
	assert.Equal(2, res[0].Passage.Index, "original passage index is kept")
	assert.Equal(0, res[1].Passage.Index)
}

func TestBuildCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Build(ctx, passages("a"), &fakeEmbedder{dim: 1}, FailureZero, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSearchOrdering(t *testing.T) {
	assert := assert.New(t)

	idx, err := FromVectors(passages("far", "near", "mid"), []domain.Vector{{10, 0}, {1, 0}, {3, 0}}, 2)
	require.NoError(t, err)

	res, err := idx.Search(domain.Vector{0, 0}, 2)
	require.NoError(t, err)
	require.Len(t, res, 2)

	assert.Equal("near", res[0].Passage.Text)
	assert.Equal(1.0, res[0].Distance)
	assert.Equal("mid", res[1].Passage.Text)
	assert.Equal(9.0, res[1].Distance)
}

func TestSearchTiesKeepIndexOrder(t *testing.T) {
	idx, err := FromVectors(passages("a", "b", "c", "d"), []domain.Vector{{1}, {-1}, {1}, {0}}, 1)
	require.NoError(t, err)

	res, err := idx.Search(domain.Vector{0}, 4)
	require.NoError(t, err)

	var order []int
	for _, r := range res {
		order = append(order, r.Passage.Index)
	}
	assert.Equal(t, []int{3, 0, 1, 2}, order)
}

func TestSearchBounds(t *testing.T) {
	assert := assert.New(t)

	idx, err := FromVectors(passages("a", "b"), []domain.Vector{{0}, {1}}, 1)
	require.NoError(t, err)

	res, err := idx.Search(domain.Vector{0}, 10)
	require.NoError(t, err)
	assert.Len(res, 2)

	res, err = idx.Search(domain.Vector{0}, 0)
	require.NoError(t, err)
	assert.Empty(res)

	_, err = idx.Search(domain.Vector{0, 0}, 1)
	assert.ErrorIs(err, ErrDimensionMismatch)
}

func TestSearchNonDecreasing(t *testing.T) {
	r := rand.New(rand.NewSource(42))

	const n, dim = 50, 8
	texts := make([]string, n)
	vectors := make([]domain.Vector, n)
	for i := range vectors {
		texts[i] = string(rune('a' + i%26))
		v := make(domain.Vector, dim)
		for j := range v {
			v[j] = r.Float32()
		}
		vectors[i] = v
	}

	idx, err := FromVectors(passages(texts...), vectors, dim)
	require.NoError(t, err)

	query := make(domain.Vector, dim)
	for k := 1; k <= n+5; k += 7 {
		res, err := idx.Search(query, k)
		require.NoError(t, err)
		assert.LessOrEqual(t, len(res), n)

		for i := 1; i < len(res); i++ {
			assert.LessOrEqual(t, res[i-1].Distance, res[i].Distance)
		}
	}
}

func TestZeroVectorLosesToRealEmbedding(t *testing.T) {
	idx, err := FromVectors(passages("failed", "real"), []domain.Vector{{0, 0}, {0.9, 0.1}}, 2)
	require.NoError(t, err)

	res, err := idx.Search(domain.Vector{1, 0}, 1)
	require.NoError(t, err)
	assert.Equal(t, "real", res[0].Passage.Text)
}

func TestBuildIdempotent(t *testing.T) {
	emb := &fakeEmbedder{
		dim: 2,
		vectors: map[string]domain.Vector{
			"x": {0.5, 0.5},
			"y": {1, 0},
			"z": {0, 1},
		},
	}
	ps := passages("x", "y", "z")

	first, err := Build(context.Background(), ps, emb, FailureZero, nil)
	require.NoError(t, err)
	second, err := Build(context.Background(), ps, emb, FailureZero, nil)
	require.NoError(t, err)

	query := domain.Vector{0.2, 0.7}
	a, err := first.Search(query, 3)
	require.NoError(t, err)
	b, err := second.Search(query, 3)
	require.NoError(t, err)

	assert.Equal(t, a, b)
}

func TestFromVectorsValidation(t *testing.T) {
	_, err := FromVectors(passages("a"), nil, 1)
	assert.ErrorIs(t, err, ErrVectorsOutOfLength)

	_, err = FromVectors(passages("a"), []domain.Vector{{1, 2}}, 1)
	assert.ErrorIs(t, err, ErrDimensionMismatch)
}
