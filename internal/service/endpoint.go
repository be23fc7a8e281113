package service

import (
	"context"
	"errors"

	"github.com/go-kit/kit/endpoint"
)

var ErrInvalidRequest = errors.New("invalid request type")

type EndpointSet struct {
	NewSession endpoint.Endpoint
	Ask        endpoint.Endpoint
	History    endpoint.Endpoint
	EndSession endpoint.Endpoint
	Corpus     endpoint.Endpoint
	Rebuild    endpoint.Endpoint
}

func NewEndpointSet(svc Service) EndpointSet {
	return EndpointSet{
		NewSession: NewSessionEndpoint(svc),
		Ask:        AskEndpoint(svc),
		History:    HistoryEndpoint(svc),
		EndSession: EndSessionEndpoint(svc),
		Corpus:     CorpusEndpoint(svc),
		Rebuild:    RebuildEndpoint(svc),
	}
}

type NewSessionResponse struct {
	SessionID string `json:"session_id"`
}

func NewSessionEndpoint(svc Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		id, err := svc.NewSession(ctx)
		if err != nil {
			return nil, err
		}

		return NewSessionResponse{SessionID: id}, nil
	}
}

type AskRequest struct {
	SessionID string `json:"-"`
	Question  string `json:"question" binding:"required"`
}

type AskResponse struct {
	Answer string `json:"answer"`
}

func AskEndpoint(svc Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req, ok := request.(AskRequest)
		if !ok {
			return nil, ErrInvalidRequest
		}

		answer, err := svc.Ask(ctx, req.SessionID, req.Question)
		if err != nil {
			return nil, err
		}

		return AskResponse{Answer: answer}, nil
	}
}

func HistoryEndpoint(svc Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		sessionID, ok := request.(string)
		if !ok {
			return nil, ErrInvalidRequest
		}

		return svc.History(ctx, sessionID)
	}
}

func EndSessionEndpoint(svc Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		sessionID, ok := request.(string)
		if !ok {
			return nil, ErrInvalidRequest
		}

		err := svc.EndSession(ctx, sessionID)
		return nil, err
	}
}

func CorpusEndpoint(svc Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		return svc.Corpus(ctx)
	}
}

func RebuildEndpoint(svc Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		return svc.Rebuild(ctx)
	}
}
