package service

import (
	"context"

	"go.uber.org/zap"

	"rani/internal/composer"
	"rani/internal/domain"
)

func LoggingMiddleware(log *zap.Logger) ServiceMiddleware {
	log = log.With(
		zap.String("service", "rani"),
	)

	return func(next Service) Service {
		log.Info("service initialized")

		return &loggingMiddleware{
			log:  log,
			next: next,
		}
	}
}

type loggingMiddleware struct {
	log  *zap.Logger
	next Service
}

func (mw *loggingMiddleware) NewSession(ctx context.Context) (string, error) {
	log := mw.log.With(
		zap.String("action", "new_session"),
	)

	id, err := mw.next.NewSession(ctx)
	if err != nil {
		log.Error(err.Error())
		return "", err
	}

	log.Info("session started", zap.String("session_id", id))
	return id, nil
}

func (mw *loggingMiddleware) Ask(ctx context.Context, sessionID string, question string) (string, error) {
	log := mw.log.With(
		zap.String("action", "ask"),
		zap.String("session_id", sessionID),
		zap.String("question", question),
	)

	answer, err := mw.next.Ask(ctx, sessionID, question)
	if err != nil {
		log.Error(err.Error())
		return "", err
	}

	if composer.IsDiagnostic(answer) {
		log.Warn("answered with diagnostic", zap.String("answer", answer))
		return answer, nil
	}

	log.Info("question answered", zap.Int("answer_len", len(answer)))
	return answer, nil
}

func (mw *loggingMiddleware) History(ctx context.Context, sessionID string) ([]domain.Turn, error) {
	log := mw.log.With(
		zap.String("action", "history"),
		zap.String("session_id", sessionID),
	)

	turns, err := mw.next.History(ctx, sessionID)
	if err != nil {
		log.Error(err.Error())
		return nil, err
	}

	log.Debug("history listed", zap.Int("count", len(turns)))
	return turns, nil
}

func (mw *loggingMiddleware) EndSession(ctx context.Context, sessionID string) error {
	log := mw.log.With(
		zap.String("action", "end_session"),
		zap.String("session_id", sessionID),
	)

	err := mw.next.EndSession(ctx, sessionID)
	if err != nil {
		log.Error(err.Error())
		return err
	}

	log.Info("session ended")
	return nil
}

func (mw *loggingMiddleware) Corpus(ctx context.Context) (CorpusInfo, error) {
	log := mw.log.With(
		zap.String("action", "corpus"),
	)

	info, err := mw.next.Corpus(ctx)
	if err != nil {
		log.Error(err.Error())
		return CorpusInfo{}, err
	}

	log.Debug("corpus described", zap.Int("indexed", info.Indexed))
	return info, nil
}

func (mw *loggingMiddleware) Rebuild(ctx context.Context) (CorpusInfo, error) {
	log := mw.log.With(
		zap.String("action", "rebuild"),
	)

	info, err := mw.next.Rebuild(ctx)
	if err != nil {
		log.Error(err.Error())
		return CorpusInfo{}, err
	}

	log.Info("corpus rebuilt",
		zap.Int("passages", info.Passages),
		zap.Int("indexed", info.Indexed),
		zap.Ints("failed", info.Failed),
	)
	return info, nil
}
