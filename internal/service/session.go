package service

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"rani/internal/conversation"
	"rani/internal/domain"
)

var ErrSessionNotFound = errors.New("session not found")

// Session is one conversation. Its log is never shared with another session.
type Session struct {
	ID      string
	Started time.Time

	mu  sync.Mutex // serialises asks so user and assistant turns stay paired
	log *conversation.Log
}

func newSession() *Session {
	return &Session{
		ID:      uuid.NewString(),
		Started: time.Now(),
		log:     conversation.NewLog(),
	}
}

// History returns every turn of the session, oldest first.
func (s *Session) History() []domain.Turn {
	return s.log.Turns()
}

// Sessions is a registry of live sessions keyed by ID.
type Sessions struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewSessions() *Sessions {
	return &Sessions{
		sessions: make(map[string]*Session),
	}
}

func (s *Sessions) Create() *Session {
	sess := newSession()

	s.mu.Lock()
	s.sessions[sess.ID] = sess
	s.mu.Unlock()

	return sess
}

func (s *Sessions) Get(id string) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return sess, nil
}

// End removes the session; its memory is released with it.
func (s *Sessions) End(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[id]; !ok {
		return ErrSessionNotFound
	}

	delete(s.sessions, id)
	return nil
}

func (s *Sessions) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.sessions)
}
