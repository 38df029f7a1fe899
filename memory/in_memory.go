package memory

import (
	"context"
	"sync"

	"github.com/soragoto/kokoro/core"
)

// InMemoryStore is a process-local Store keeping transcripts per session.
// Suitable for tests and single-process deployments.
type InMemoryStore struct {
	mu       sync.RWMutex
	sessions map[string][]core.Message
}

// NewInMemoryStore creates an empty in-memory store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{sessions: make(map[string][]core.Message)}
}

// Append implements Store.
func (s *InMemoryStore) Append(_ context.Context, sessionID string, msg core.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sessionID] = append(s.sessions[sessionID], msg)
	return nil
}

// Messages implements Store. A limit of zero returns the full transcript;
// otherwise the most recent limit messages are returned in append order.
func (s *InMemoryStore) Messages(_ context.Context, sessionID string, limit int) ([]core.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	msgs := s.sessions[sessionID]
	if limit > 0 && len(msgs) > limit {
		msgs = msgs[len(msgs)-limit:]
	}
	out := make([]core.Message, len(msgs))
	copy(out, msgs)
	return out, nil
}
