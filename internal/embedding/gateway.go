package embedding

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"rani/internal/domain"
)

var (
	ErrInvalidDimension  = errors.New("invalid embedding dimension")
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
	ErrEmptyEmbedding    = errors.New("empty embedding")
)

// Gateway wraps an Embedder and guarantees a vector of the configured
// dimension for every call. Backend failures are never returned to Embed
// callers; a zero vector stands in for the failed embedding.
type Gateway struct {
	embedder  Embedder
	dimension int
	log       *zap.Logger
}

// NewGateway creates a gateway over a prepared embedder. When dimension is
// zero the embedder's own dimension is used.
func NewGateway(embedder Embedder, dimension int, log *zap.Logger) (*Gateway, error) {
	if dimension == 0 {
		dimension = embedder.Dimension()
	}
	if dimension <= 0 {
		return nil, ErrInvalidDimension
	}
	if log == nil {
		log = zap.NewNop()
	}

	return &Gateway{
		embedder:  embedder,
		dimension: dimension,
		log: log.With(
			zap.String("component", "embedding_gateway"),
			zap.String("embedder", embedder.Name()),
		),
	}, nil
}

// Dimension returns D, the length of every vector the gateway produces.
func (g *Gateway) Dimension() int { return g.dimension }

// Embed returns the embedding of text, or a zero vector if the backend fails.
func (g *Gateway) Embed(ctx context.Context, text string) domain.Vector {
	v, _ := g.TryEmbed(ctx, text)
	return v
}

// TryEmbed behaves like Embed but also reports the failure that caused a
// zero vector to be substituted. The returned vector is always usable.
func (g *Gateway) TryEmbed(ctx context.Context, text string) (domain.Vector, error) {
	v, err := g.embedder.Embed(ctx, text)
	if err == nil {
		switch {
		case len(v) == 0:
			err = ErrEmptyEmbedding
		case len(v) != g.dimension:
			err = fmt.Errorf("%w: got %d, want %d", ErrDimensionMismatch, len(v), g.dimension)
		}
	}

	if err != nil {
		g.log.Warn("embedding failed, substituting zero vector",
			zap.Int("text_len", len(text)),
			zap.Error(err),
		)
		return domain.Zero(g.dimension), err
	}

	return domain.Vector(v), nil
}
