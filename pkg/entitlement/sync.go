package entitlement

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/entitlekit/pkg/logger"
	"github.com/dmitrymomot/entitlekit/pkg/tier"
)

// ProviderEvent is a normalized, already authenticated subscription update
// from the billing provider. It carries the full new state of the workspace.
type ProviderEvent struct {
	Tier        tier.Tier   `json:"tier"`
	Status      Status      `json:"status"`
	TrialEnd    *time.Time  `json:"trial_end,omitempty"`
	ProviderIDs ProviderIDs `json:"provider_ids"`
}

// InvalidationPublisher fans a workspace invalidation out to other processes.
type InvalidationPublisher interface {
	PublishInvalidation(ctx context.Context, workspaceID uuid.UUID) error
}

// Syncer is the only writer of billing state. Every accepted provider event
// replaces the stored record and drops the workspace's cached decisions.
//
// Events are applied last-write-wins. Redelivered or reordered webhooks are
// not detected; a stale event overwrites newer state until the next event.
type Syncer struct {
	store      BillingStateStore
	cache      WorkspaceInvalidator
	publishers []InvalidationPublisher
	now        func() time.Time
	logger     *slog.Logger
}

// SyncerOption configures a Syncer.
type SyncerOption func(*Syncer)

// WithPublisher adds a remote invalidation target. Publish failures are logged
// and never fail the sync.
func WithPublisher(p InvalidationPublisher) SyncerOption {
	return func(s *Syncer) {
		if p != nil {
			s.publishers = append(s.publishers, p)
		}
	}
}

func WithSyncerClock(now func() time.Time) SyncerOption {
	return func(s *Syncer) {
		if now != nil {
			s.now = now
		}
	}
}

func WithSyncerLogger(log *slog.Logger) SyncerOption {
	return func(s *Syncer) {
		if log != nil {
			s.logger = log
		}
	}
}

// NewSyncer creates a billing sync handler. Panics if store or cache is nil.
func NewSyncer(store BillingStateStore, cache WorkspaceInvalidator, opts ...SyncerOption) *Syncer {
	if store == nil {
		panic("entitlement: billing state store cannot be nil")
	}
	if cache == nil {
		panic("entitlement: workspace invalidator cannot be nil")
	}

	s := &Syncer{
		store:  store,
		cache:  cache,
		now:    time.Now,
		logger: logger.Discard(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SyncFromProviderEvent stores the event as the workspace billing state and
// invalidates the workspace. The local cache is invalidated even when the
// write fails, since the store may have applied it.
func (s *Syncer) SyncFromProviderEvent(ctx context.Context, workspaceID uuid.UUID, event ProviderEvent) error {
	state := BillingState{
		WorkspaceID: workspaceID,
		Tier:        event.Tier,
		Status:      event.Status,
		TrialEnd:    event.TrialEnd,
		ProviderIDs: event.ProviderIDs,
		UpdatedAt:   s.now().UTC(),
	}
	if err := state.Validate(); err != nil {
		return err
	}

	err := s.store.UpsertBillingState(ctx, workspaceID, state)
	if err != nil {
		err = errors.Join(ErrBillingStateUnavailable, err)
		s.logger.ErrorContext(ctx, "failed to store billing state",
			logger.WorkspaceID(workspaceID),
			logger.Error(err),
		)
	}

	n := s.cache.InvalidateWorkspace(workspaceID)
	s.publish(ctx, workspaceID)

	if err == nil {
		s.logger.InfoContext(ctx, "billing state synced",
			logger.WorkspaceID(workspaceID),
			logger.Tier(state.Tier),
			slog.String("status", string(state.Status)),
			slog.Int("invalidated", n),
		)
	}
	return err
}

func (s *Syncer) publish(ctx context.Context, workspaceID uuid.UUID) {
	for _, p := range s.publishers {
		if err := p.PublishInvalidation(ctx, workspaceID); err != nil {
			s.logger.WarnContext(ctx, "failed to publish cache invalidation",
				logger.WorkspaceID(workspaceID),
				logger.Error(err),
			)
		}
	}
}
