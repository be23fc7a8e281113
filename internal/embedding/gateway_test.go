package embedding

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubEmbedder struct {
	dim     int
	vectors map[string][]float32
	err     error
	calls   int
}

func (s *stubEmbedder) Name() string { return "stub" }
func (s *stubEmbedder) Prepare(corpus []string) error { return nil }
func (s *stubEmbedder) Dimension() int { return s.dim }

func (s *stubEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.vectors[text], nil
}

func TestGatewayEmbed(t *testing.T) {
	emb := &stubEmbedder{dim: 3, vectors: map[string][]float32{"hello": {1, 2, 3}}}

	gw, err := NewGateway(emb, 0, nil)
	require.NoError(t, err)

	assert.Equal(t, 3, gw.Dimension())

	v, err := gw.TryEmbed(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 2, 3}, []float32(v))
}

func TestGatewaySubstitutesZeroVectorOnFailure(t *testing.T) {
	assert := assert.New(t)

	emb := &stubEmbedder{dim: 4, err: errors.New("connection refused")}

	gw, err := NewGateway(emb, 0, nil)
	require.NoError(t, err)

	v := gw.Embed(context.Background(), "anything")
	assert.Len(v, 4)
	assert.True(v.IsZero())
	assert.Equal(1, emb.calls, "a failed call must not be retried")

	_, err = gw.TryEmbed(context.Background(), "anything")
	assert.EqualError(err, "connection refused")
}

func TestGatewayRejectsWrongDimension(t *testing.T) {
	emb := &stubEmbedder{dim: 2, vectors: map[string][]float32{"short": {1}, "empty": {}}}

	gw, err := NewGateway(emb, 0, nil)
	require.NoError(t, err)

	v, err := gw.TryEmbed(context.Background(), "short")
	assert.ErrorIs(t, err, ErrDimensionMismatch)
	assert.Equal(t, []float32{0, 0}, []float32(v))

	v, err = gw.TryEmbed(context.Background(), "empty")
	assert.ErrorIs(t, err, ErrEmptyEmbedding)
	assert.True(t, v.IsZero())
}

func TestGatewayConfiguredDimension(t *testing.T) {
	emb := &stubEmbedder{dim: 0, err: errors.New("down")}

	_, err := NewGateway(emb, 0, nil)
	assert.ErrorIs(t, err, ErrInvalidDimension)

	gw, err := NewGateway(emb, 768, nil)
	require.NoError(t, err)
	assert.Len(t, gw.Embed(context.Background(), "x"), 768)
}
