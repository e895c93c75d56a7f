package entitlement

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// MemoryStore is an in-process BillingStateStore for tests and single-node setups.
type MemoryStore struct {
	mu     sync.RWMutex
	states map[uuid.UUID]BillingState
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{states: make(map[uuid.UUID]BillingState)}
}

func (m *MemoryStore) GetBillingState(ctx context.Context, workspaceID uuid.UUID) (*BillingState, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	state, ok := m.states[workspaceID]
	m.mu.RUnlock()

	if !ok {
		return nil, ErrBillingStateNotFound
	}
	return cloneState(state), nil
}

func (m *MemoryStore) UpsertBillingState(ctx context.Context, workspaceID uuid.UUID, state BillingState) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	state.WorkspaceID = workspaceID

	m.mu.Lock()
	m.states[workspaceID] = *cloneState(state)
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.states)
}

func cloneState(s BillingState) *BillingState {
	if s.TrialEnd != nil {
		end := *s.TrialEnd
		s.TrialEnd = &end
	}
	return &s
}
