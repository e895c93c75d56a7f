package entitlement_test

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/entitlekit/pkg/audit"
	"github.com/dmitrymomot/entitlekit/pkg/entitlement"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// countingStore wraps a MemoryStore, counts reads and can fail or hold them.
type countingStore struct {
	*entitlement.MemoryStore

	reads atomic.Int64

	mu      sync.Mutex
	readErr error
	gate    chan struct{} // when set, the next read blocks until it is closed
	entered chan struct{}
}

func newCountingStore() *countingStore {
	return &countingStore{MemoryStore: entitlement.NewMemoryStore()}
}

func (s *countingStore) GetBillingState(ctx context.Context, workspaceID uuid.UUID) (*entitlement.BillingState, error) {
	s.reads.Add(1)

	// Snapshot before blocking so a held read returns the state it started with.
	state, err := s.MemoryStore.GetBillingState(ctx, workspaceID)

	s.mu.Lock()
	readErr := s.readErr
	gate, entered := s.gate, s.entered
	s.gate, s.entered = nil, nil
	s.mu.Unlock()

	if gate != nil {
		close(entered)
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if readErr != nil {
		return nil, readErr
	}
	return state, err
}

func (s *countingStore) failReads(err error) {
	s.mu.Lock()
	s.readErr = err
	s.mu.Unlock()
}

// holdNextRead makes the next read block. It returns a channel closed when the
// read has started and a function that lets it continue.
func (s *countingStore) holdNextRead() (<-chan struct{}, func()) {
	gate := make(chan struct{})
	entered := make(chan struct{})
	s.mu.Lock()
	s.gate, s.entered = gate, entered
	s.mu.Unlock()
	return entered, func() { close(gate) }
}

func (s *countingStore) Reads() int {
	return int(s.reads.Load())
}

func (s *countingStore) put(ws uuid.UUID, state entitlement.BillingState) {
	if err := s.UpsertBillingState(context.Background(), ws, state); err != nil {
		panic(err)
	}
}

type recordingSink struct {
	mu     sync.Mutex
	events []audit.Event
}

func (s *recordingSink) Record(_ context.Context, e audit.Event) {
	s.mu.Lock()
	s.events = append(s.events, e)
	s.mu.Unlock()
}

func (s *recordingSink) Events() []audit.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]audit.Event(nil), s.events...)
}

type panickingSink struct{}

func (panickingSink) Record(context.Context, audit.Event) {
	panic("sink exploded")
}
