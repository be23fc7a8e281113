package main

import (
	"errors"
	"fmt"

	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"rani/internal/composer"
	"rani/internal/config"
	"rani/internal/embedding"
	"rani/internal/embedding/openai"
	"rani/internal/embedding/tfidf"
	"rani/internal/service"
	"rani/internal/summarizer"
	"rani/internal/vectorstore"

	genopenai "rani/internal/generation/openai"
)

type output int

const (
	// outputFile logs to log.file only, or nowhere when it is empty.
	outputFile output = iota
	outputStderr
)

type app struct {
	cfg   *config.AppConfig
	log   *zap.Logger
	index *service.IndexHandle
	svc   service.Service
}

// newApp assembles the index handle and, when withService is set, the
// generation client and the service over them.
func newApp(cmd *cli.Command, out output, withService bool) (*app, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}

	log, err := newLogger(cfg.Log, out)
	if err != nil {
		return nil, err
	}

	embedders, dimension, err := newEmbedder(cfg.Embedding)
	if err != nil {
		return nil, err
	}

	build := service.NewBuilder(service.BuildOptions{
		SourcePath:       cfg.Source.Path,
		Dimension:        dimension,
		OnFailure:        vectorstore.FailurePolicy(cfg.Embedding.OnFailure),
		SummarySentences: cfg.Summary.MaxSentences,
	}, embedders, summarizer.NewFrequencySummarizer(), log)

	a := &app{
		cfg:   cfg,
		log:   log,
		index: service.NewIndexHandle(build),
	}

	if !withService {
		return a, nil
	}

	gen, err := genopenai.NewClient(genopenai.Config{
		BaseURL:   cfg.Generation.OpenAI.BaseURL,
		APIKeyEnv: cfg.Generation.OpenAI.APIKeyEnv,
		Model:     cfg.Generation.Model,
		Timeout:   cfg.Generation.OpenAI.Timeout(),
	})
	if err != nil {
		return nil, fmt.Errorf("generation client: %w", err)
	}

	c := composer.New(gen, composer.Persona{
		Name:          cfg.Persona.Name,
		Institution:   cfg.Persona.Institution,
		DeclinePhrase: cfg.Persona.DeclinePhrase,
	}, composer.Options{
		Temperature:     cfg.Generation.Temperature,
		MaxOutputTokens: cfg.Generation.MaxOutputTokens,
	}, log)

	svc := service.NewService(service.Config{
		TopK:          cfg.Retrieval.TopK,
		MaxDistance:   cfg.Retrieval.MaxDistance,
		HistoryWindow: cfg.Conversation.HistoryWindow,
	}, a.index, c, log)

	a.svc = service.LoggingMiddleware(log)(svc)
	return a, nil
}

func loadConfig(cmd *cli.Command) (*config.AppConfig, error) {
	var (
		cfg *config.AppConfig
		err error
	)

	if path := cmd.String("config"); path != "" {
		cfg, err = config.Load(path)
	} else {
		cfg, _, err = config.LoadDefault()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if source := cmd.String("source"); source != "" {
		cfg.Source.Path = source
	}
	return cfg, nil
}

func newLogger(cfg config.LogConfig, out output) (*zap.Logger, error) {
	zcfg := zap.NewProductionConfig()
	if cfg.Development {
		zcfg = zap.NewDevelopmentConfig()
	}

	switch {
	case out == outputStderr:
		if cfg.File != "" {
			zcfg.OutputPaths = append(zcfg.OutputPaths, cfg.File)
		}
	case cfg.File != "":
		zcfg.OutputPaths = []string{cfg.File}
		zcfg.ErrorOutputPaths = []string{cfg.File}
	default:
		return zap.NewNop(), nil
	}

	return zcfg.Build()
}

// newEmbedder returns a factory for the configured embedder and the
// dimension the gateway should enforce. TF-IDF sizes itself from the corpus,
// so it gets zero and a new vocabulary per build. The remote client holds no
// corpus state and is shared.
func newEmbedder(cfg config.EmbeddingConfig) (service.EmbedderFactory, int, error) {
	switch cfg.Type {
	case "tfidf":
		return func() (embedding.Embedder, error) {
			return tfidf.NewEmbedder(), nil
		}, 0, nil
	case "openai":
		client, err := openai.NewClient(openai.Config{
			BaseURL:   cfg.OpenAI.BaseURL,
			APIKeyEnv: cfg.OpenAI.APIKeyEnv,
			Model:     cfg.Model,
			Dimension: cfg.Dimension,
			Timeout:   cfg.OpenAI.Timeout(),
		})
		if err != nil {
			return nil, 0, fmt.Errorf("openai embedder init failed: %w", err)
		}
		return func() (embedding.Embedder, error) {
			return client, nil
		}, cfg.Dimension, nil
	default:
		return nil, 0, errors.New("unknown embedder: " + cfg.Type)
	}
}
