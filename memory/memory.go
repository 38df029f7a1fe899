// Package memory holds the agent's transcript: the ordered, append-only
// sequence of messages for one session. The engine mutates it exclusively by
// appending; retrieval windows, compaction and search belong to the backing
// Store, not to the engine.
package memory

import (
	"context"
	"sync"

	"github.com/soragoto/kokoro/core"
	"github.com/soragoto/kokoro/logging"
)

// Store persists transcript messages per session. Implementations must keep
// insertion order stable.
type Store interface {
	Append(ctx context.Context, sessionID string, msg core.Message) error
	Messages(ctx context.Context, sessionID string, limit int) ([]core.Message, error)
}

// Memory is the in-process transcript of one agent run. Appends are
// write-through to the optional Store on a best-effort basis; a store
// failure is logged and does not fail the append, since transcript
// durability is not a concern of the step loop.
type Memory struct {
	mu        sync.RWMutex
	sessionID string
	messages  []core.Message
	store     Store
	logger    logging.Logger
}

// Option customizes a Memory.
type Option func(*Memory)

// WithStore attaches a persistent backing store.
func WithStore(s Store) Option {
	return func(m *Memory) { m.store = s }
}

// WithLogger sets the logger used for store failures.
func WithLogger(l logging.Logger) Option {
	return func(m *Memory) { m.logger = l }
}

// New creates an empty transcript for a session.
func New(sessionID string, opts ...Option) *Memory {
	m := &Memory{sessionID: sessionID, logger: logging.NoOpLogger{}}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// SessionID returns the owning session identifier.
func (m *Memory) SessionID() string { return m.sessionID }

// AddMessage appends one message to the transcript.
func (m *Memory) AddMessage(ctx context.Context, msg core.Message) {
	m.mu.Lock()
	m.messages = append(m.messages, msg)
	m.mu.Unlock()
	if m.store == nil {
		return
	}
	if err := m.store.Append(ctx, m.sessionID, msg); err != nil {
		m.logger.Warn("memory.store.append_failed",
			"session_id", m.sessionID,
			"role", string(msg.Role),
			"error", err.Error(),
		)
	}
}

// Messages returns a copy of the transcript in append order.
func (m *Memory) Messages() []core.Message {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]core.Message, len(m.messages))
	copy(out, m.messages)
	return out
}

// Len returns the number of messages in the transcript.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.messages)
}

// Load replaces the in-process transcript with the most recent limit
// messages from the backing store. A limit of zero loads everything.
func (m *Memory) Load(ctx context.Context, limit int) error {
	if m.store == nil {
		return nil
	}
	msgs, err := m.store.Messages(ctx, m.sessionID, limit)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.messages = msgs
	m.mu.Unlock()
	return nil
}
