package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"rani/internal/composer"
	"rani/internal/conversation"
	"rani/internal/domain"
	"rani/internal/retriever"
)

var ErrEmptyQuestion = errors.New("question is empty")

// Service answers questions about the document corpus, one conversation per
// session.
type Service interface {
	NewSession(ctx context.Context) (string, error)
	Ask(ctx context.Context, sessionID string, question string) (string, error)
	History(ctx context.Context, sessionID string) ([]domain.Turn, error)
	EndSession(ctx context.Context, sessionID string) error
	Corpus(ctx context.Context) (CorpusInfo, error)
	Rebuild(ctx context.Context) (CorpusInfo, error)
}

type ServiceMiddleware func(Service) Service

// Config holds the retrieval and memory settings of a deployment.
type Config struct {
	TopK          int
	MaxDistance   float64
	HistoryWindow int
}

func NewService(cfg Config, index *IndexHandle, composer *composer.Composer, log *zap.Logger) Service {
	if cfg.TopK <= 0 {
		cfg.TopK = retriever.DefaultTopK
	}
	if cfg.HistoryWindow <= 0 {
		cfg.HistoryWindow = conversation.DefaultWindow
	}
	if log == nil {
		log = zap.NewNop()
	}

	return &service{
		cfg:      cfg,
		index:    index,
		sessions: NewSessions(),
		composer: composer,
		log:      log,
	}
}

type service struct {
	cfg      Config
	index    *IndexHandle
	sessions *Sessions
	composer *composer.Composer
	log      *zap.Logger
}

func (svc *service) NewSession(ctx context.Context) (string, error) {
	return svc.sessions.Create().ID, nil
}

// Ask records question in the session, retrieves the nearest passages and
// composes an answer from them and the recent turns. Generation failures
// are answered with a diagnostic, not an error.
func (svc *service) Ask(ctx context.Context, sessionID string, question string) (string, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return "", ErrEmptyQuestion
	}

	sess, err := svc.sessions.Get(sessionID)
	if err != nil {
		return "", err
	}

	corpus, err := svc.index.Get(ctx)
	if err != nil {
		return "", err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	sess.log.Append(domain.Turn{Speaker: domain.SpeakerUser, Text: question})

	sources, relevant := corpus.Retriever.Retrieve(ctx, corpus.Index, question, svc.cfg.TopK, svc.cfg.MaxDistance)

	var answer string
	if relevant {
		history := sess.log.Window(svc.cfg.HistoryWindow)
		answer = svc.composer.Compose(ctx, question, sources, history)
	} else {
		answer = svc.composer.Persona().DeclinePhrase
	}

	sess.log.Append(domain.Turn{Speaker: domain.SpeakerAssistant, Text: answer})
	return answer, nil
}

func (svc *service) History(ctx context.Context, sessionID string) ([]domain.Turn, error) {
	sess, err := svc.sessions.Get(sessionID)
	if err != nil {
		return nil, err
	}

	return sess.History(), nil
}

func (svc *service) EndSession(ctx context.Context, sessionID string) error {
	return svc.sessions.End(sessionID)
}

func (svc *service) Corpus(ctx context.Context) (CorpusInfo, error) {
	corpus, err := svc.index.Get(ctx)
	if err != nil {
		return CorpusInfo{}, err
	}

	return corpus.Info(), nil
}

func (svc *service) Rebuild(ctx context.Context) (CorpusInfo, error) {
	corpus, err := svc.index.Rebuild(ctx)
	if err != nil {
		return CorpusInfo{}, err
	}

	return corpus.Info(), nil
}
