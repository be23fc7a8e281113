package service

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"rani/internal/domain"
	"rani/internal/embedding"
	"rani/internal/passage"
	"rani/internal/retriever"
	"rani/internal/vectorstore"
)

// Corpus is the read-only state shared by every session: the passage index
// and the retriever bound to the gateway the index was built with.
type Corpus struct {
	Passages  []domain.Passage
	Index     *vectorstore.Index
	Retriever *retriever.Retriever
	Summary   string
}

// CorpusInfo describes a built corpus.
type CorpusInfo struct {
	Passages  int    `json:"passages"`
	Indexed   int    `json:"indexed"`
	Dimension int    `json:"dimension"`
	Failed    []int  `json:"failed,omitempty"`
	Summary   string `json:"summary,omitempty"`
}

// Info summarises c. Indexed is lower than Passages only when failed
// passages were excluded.
func (c *Corpus) Info() CorpusInfo {
	return CorpusInfo{
		Passages:  len(c.Passages),
		Indexed:   c.Index.Len(),
		Dimension: c.Index.Dimension(),
		Failed:    c.Index.Failed(),
		Summary:   c.Summary,
	}
}

type BuildFunc func(ctx context.Context) (*Corpus, error)

// EmbedderFactory returns the embedder a single build prepares and indexes
// with. The built corpus keeps it for query embedding, so an embedder with
// corpus state must not be shared between builds.
type EmbedderFactory func() (embedding.Embedder, error)

// BuildOptions configure how the corpus is built from the source file.
type BuildOptions struct {
	SourcePath       string
	Dimension        int
	OnFailure        vectorstore.FailurePolicy
	SummarySentences int
}

// NewBuilder returns a BuildFunc that loads the passages, prepares a new
// embedder from newEmbedder on them, and indexes every passage through an
// embedding gateway. summarizer may be nil.
func NewBuilder(opts BuildOptions, newEmbedder EmbedderFactory, summarizer domain.Summarizer, log *zap.Logger) BuildFunc {
	if log == nil {
		log = zap.NewNop()
	}

	return func(ctx context.Context) (*Corpus, error) {
		passages, err := passage.Load(opts.SourcePath)
		if err != nil {
			return nil, err
		}

		embedder, err := newEmbedder()
		if err != nil {
			return nil, err
		}

		texts := passage.Texts(passages)
		if err := embedder.Prepare(texts); err != nil {
			return nil, fmt.Errorf("prepare %s embedder: %w", embedder.Name(), err)
		}

		gateway, err := embedding.NewGateway(embedder, opts.Dimension, log)
		if err != nil {
			return nil, err
		}

		idx, err := vectorstore.Build(ctx, passages, gateway, opts.OnFailure, log)
		if err != nil {
			return nil, err
		}

		corpus := &Corpus{
			Passages:  passages,
			Index:     idx,
			Retriever: retriever.New(gateway, log),
		}

		if summarizer != nil {
			summary, err := summarizer.Summarize(strings.Join(texts, "\n\n"), opts.SummarySentences)
			if err != nil {
				log.Warn("corpus summary failed", zap.Error(err))
			}
			corpus.Summary = summary
		}

		return corpus, nil
	}
}

// IndexHandle builds the corpus on first use and memoises it. A failed
// build is not memoised; the next Get tries again.
type IndexHandle struct {
	mu     sync.Mutex
	build  BuildFunc
	corpus *Corpus
}

func NewIndexHandle(build BuildFunc) *IndexHandle {
	return &IndexHandle{build: build}
}

// Get returns the corpus, building it if needed.
func (h *IndexHandle) Get(ctx context.Context) (*Corpus, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.corpus != nil {
		return h.corpus, nil
	}

	corpus, err := h.build(ctx)
	if err != nil {
		return nil, err
	}

	h.corpus = corpus
	return corpus, nil
}

// Rebuild discards the memoised corpus and builds a new one. Asks already
// running finish against the previous corpus and its embedder.
func (h *IndexHandle) Rebuild(ctx context.Context) (*Corpus, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	corpus, err := h.build(ctx)
	if err != nil {
		return nil, err
	}

	h.corpus = corpus
	return corpus, nil
}

// Built reports whether a corpus is memoised.
func (h *IndexHandle) Built() bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	return h.corpus != nil
}
