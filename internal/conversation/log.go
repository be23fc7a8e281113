package conversation

import (
	"sync"

	"rani/internal/domain"
)

// DefaultWindow is the number of recent turns rendered into a prompt.
const DefaultWindow = 5

// Log is an append-only record of a session's turns. Reads may run
// concurrently with the session's single writer.
type Log struct {
	mu    sync.RWMutex
	turns []domain.Turn
}

func NewLog() *Log {
	return &Log{}
}

// Append adds turn to the end of the log.
func (l *Log) Append(turn domain.Turn) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.turns = append(l.turns, turn)
}

// Window returns the last n turns, oldest first. It returns fewer than n
// turns when the log is shorter, and an empty slice for n <= 0.
func (l *Log) Window(n int) []domain.Turn {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if n <= 0 {
		return []domain.Turn{}
	}

	start := len(l.turns) - n
	if start < 0 {
		start = 0
	}

	window := make([]domain.Turn, len(l.turns)-start)
	copy(window, l.turns[start:])
	return window
}

// Turns returns a copy of the whole log.
func (l *Log) Turns() []domain.Turn {
	l.mu.RLock()
	defer l.mu.RUnlock()

	turns := make([]domain.Turn, len(l.turns))
	copy(turns, l.turns)
	return turns
}

func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return len(l.turns)
}
