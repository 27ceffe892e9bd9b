// Package session contains concrete HistoryStore implementations. The store
// interface lives in the core package; depend on core.HistoryStore in your
// code and select an implementation at wiring time.
package session

import (
	"sync"

	"github.com/noteflow-ai/noteflow/core"
)

// InMemoryStore is a volatile HistoryStore keeping ordered per-session
// message history in a process-local map. It is safe for concurrent access
// and best suited for tests or ephemeral demo servers. Returned slices are
// copies to prevent external mutation of internal state.
type InMemoryStore struct {
	mu       sync.RWMutex
	sessions map[string][]core.Message
}

// NewInMemoryStore constructs an empty in-memory history store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{sessions: make(map[string][]core.Message)}
}

// History returns a copy of the session's ordered history, oldest first.
// Unknown sessions yield an empty history, not an error.
func (s *InMemoryStore) History(sessionID string) ([]core.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	msgs := s.sessions[sessionID]
	out := make([]core.Message, len(msgs))
	copy(out, msgs)
	return out, nil
}

// Append adds messages to the end of the session's history, creating the
// session lazily.
func (s *InMemoryStore) Append(sessionID string, msgs ...core.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sessionID] = append(s.sessions[sessionID], msgs...)
	return nil
}
