package conversation

import (
	"context"
	"sync"

	"github.com/AbhaySolanki007/Insurance-helpdesk/internal/workflow"
)

// MemoryStore is an in-process conversation log used for tests and
// single-node deployments without Redis.
type MemoryStore struct {
	mu    sync.RWMutex
	turns map[string][]workflow.TurnRecord
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{turns: make(map[string][]workflow.TurnRecord)}
}

func (m *MemoryStore) AppendTurn(_ context.Context, threadID string, turn workflow.TurnRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.turns[threadID] = append(m.turns[threadID], turn)
	return nil
}

func (m *MemoryStore) History(_ context.Context, threadID string) ([]workflow.TurnRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]workflow.TurnRecord, len(m.turns[threadID]))
	copy(out, m.turns[threadID])
	return out, nil
}

func (m *MemoryStore) Clear(_ context.Context, threadID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.turns, threadID)
	return nil
}

var _ workflow.ConversationLog = (*MemoryStore)(nil)
