package model

import (
	"context"
	"fmt"
	"sync"
)

// MockTurn scripts one AskTool call of a MockClient: deltas played through
// the callback in streaming mode, then either a decision or an error.
type MockTurn struct {
	Deltas   []Delta
	Decision *Decision
	Err      error
}

// MockClient is a scripted in-memory Client for tests and examples. Each
// AskTool call consumes the next turn in order.
type MockClient struct {
	mu    sync.Mutex
	turns []MockTurn
	calls int
}

// NewMockClient creates a client that replays the given turns.
func NewMockClient(turns ...MockTurn) *MockClient {
	return &MockClient{turns: turns}
}

// Calls reports how many times AskTool has been invoked.
func (m *MockClient) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// AskTool implements Client.
func (m *MockClient) AskTool(_ context.Context, req Request) (*Decision, error) {
	m.mu.Lock()
	if m.calls >= len(m.turns) {
		m.calls++
		m.mu.Unlock()
		return nil, fmt.Errorf("mock client: no turn scripted for call %d", m.calls)
	}
	turn := m.turns[m.calls]
	m.calls++
	m.mu.Unlock()

	if req.Stream && req.OnDelta != nil {
		for _, d := range turn.Deltas {
			req.OnDelta(d)
		}
	}
	if turn.Err != nil {
		return nil, turn.Err
	}
	if turn.Decision == nil {
		return &Decision{}, nil
	}
	dec := *turn.Decision
	return &dec, nil
}
