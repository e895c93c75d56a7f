package audit

import (
	"context"
	"log/slog"
	"slices"
	"sync"
)

// Storage persists batches of events. Implementations should treat a batch
// atomically where the backend allows it.
type Storage interface {
	StoreBatch(ctx context.Context, events []Event) error
}

// LogStorage writes events to a structured logger.
type LogStorage struct {
	log   *slog.Logger
	level slog.Level
}

// NewLogStorage returns a Storage that emits one log record per event at info level.
func NewLogStorage(log *slog.Logger) *LogStorage {
	if log == nil {
		panic("audit: logger cannot be nil")
	}
	return &LogStorage{log: log, level: slog.LevelInfo}
}

func (s *LogStorage) StoreBatch(ctx context.Context, events []Event) error {
	for _, e := range events {
		s.log.LogAttrs(ctx, s.level, "entitlement decision",
			slog.String("audit_id", e.ID.String()),
			slog.String("workspace_id", e.WorkspaceID.String()),
			slog.String("feature", e.Feature),
			slog.Bool("enabled", e.Enabled),
			slog.String("reason", e.Reason),
			slog.String("tier", e.Tier),
			slog.String("actor_id", e.ActorID),
			slog.Time("timestamp", e.Timestamp),
		)
	}
	return nil
}

// MemoryStorage keeps events in memory. Useful for tests.
type MemoryStorage struct {
	mu     sync.Mutex
	events []Event
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{}
}

func (s *MemoryStorage) StoreBatch(_ context.Context, events []Event) error {
	s.mu.Lock()
	s.events = append(s.events, events...)
	s.mu.Unlock()
	return nil
}

// Events returns a copy of everything stored so far.
func (s *MemoryStorage) Events() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.events)
}

func (s *MemoryStorage) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.events)
}
