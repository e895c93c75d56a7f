package entitlement

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/singleflight"

	"github.com/dmitrymomot/entitlekit/pkg/audit"
	"github.com/dmitrymomot/entitlekit/pkg/logger"
	"github.com/dmitrymomot/entitlekit/pkg/tier"
)

// Service answers "may workspace W use feature F right now".
//
// Decisions are cached per (workspace, feature) for a fixed TTL. The billing
// store is read on a miss only, and concurrent misses for one workspace share
// a single read. Billing changes reach the cache through InvalidateWorkspace.
type Service struct {
	catalog   *tier.Catalog
	reader    BillingStateReader
	cache     *Cache
	ttl       time.Duration
	trialTier tier.Tier
	now       func() time.Time
	audit     audit.Sink
	logger    *slog.Logger

	shards     int
	registerer prometheus.Registerer
	metrics    *metrics

	fetches singleflight.Group
}

// NewService creates a resolution service. Panics if catalog or reader is nil.
func NewService(catalog *tier.Catalog, reader BillingStateReader, opts ...ServiceOption) *Service {
	if catalog == nil {
		panic("entitlement: catalog cannot be nil")
	}
	if reader == nil {
		panic("entitlement: billing state reader cannot be nil")
	}

	s := &Service{
		catalog:   catalog,
		reader:    reader,
		ttl:       DefaultCacheTTL,
		trialTier: tier.Pro,
		now:       time.Now,
		logger:    logger.Discard(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.cache == nil {
		s.cache = NewCache(WithShards(s.shards), WithCacheClock(s.now))
	}
	if s.registerer != nil {
		s.metrics = newMetrics(s.registerer, s.cache)
	}

	return s
}

// Resolve decides whether the workspace may use the feature.
//
// Denials are reported through Result.Reason. An error is returned only when
// the decision could not be made, in which case it wraps ErrBillingStateUnavailable.
func (s *Service) Resolve(ctx context.Context, workspaceID uuid.UUID, feature tier.Feature, actorID string) (Result, error) {
	required, err := s.catalog.MinimumTierFor(feature)
	if err != nil {
		res := s.unavailable(feature)
		s.metrics.resolved(res, sourceCatalog)
		s.record(ctx, workspaceID, actorID, res)
		return res, nil
	}

	if res, ok := s.lookup(workspaceID, feature); ok {
		return res, nil
	}

	state, err := s.billingState(ctx, workspaceID)
	if err != nil {
		return Result{}, err
	}

	return s.decide(ctx, state, feature, required, actorID), nil
}

// ResolveMany resolves several features for one workspace. Results equal those
// of calling Resolve per feature, but the billing store is read at most once.
// Duplicate features are resolved once.
func (s *Service) ResolveMany(ctx context.Context, workspaceID uuid.UUID, features []tier.Feature, actorID string) (map[tier.Feature]Result, error) {
	results := make(map[tier.Feature]Result, len(features))

	var state *BillingState
	for _, feature := range features {
		if _, done := results[feature]; done {
			continue
		}

		required, err := s.catalog.MinimumTierFor(feature)
		if err != nil {
			res := s.unavailable(feature)
			s.metrics.resolved(res, sourceCatalog)
			s.record(ctx, workspaceID, actorID, res)
			results[feature] = res
			continue
		}

		if res, ok := s.lookup(workspaceID, feature); ok {
			results[feature] = res
			continue
		}

		if state == nil {
			st, err := s.billingState(ctx, workspaceID)
			if err != nil {
				return nil, err
			}
			state = &st
		}

		results[feature] = s.decide(ctx, *state, feature, required, actorID)
	}

	return results, nil
}

// InvalidateWorkspace drops every cached decision of the workspace.
func (s *Service) InvalidateWorkspace(workspaceID uuid.UUID) int {
	// Later misses must not join a read that started before the invalidation.
	s.fetches.Forget(workspaceID.String())
	n := s.cache.InvalidateWorkspace(workspaceID)
	s.metrics.invalidatedWorkspace(n)
	s.logger.Debug("entitlement cache invalidated",
		logger.WorkspaceID(workspaceID),
		slog.Int("entries", n),
	)
	return n
}

func (s *Service) CacheStatistics() CacheStats {
	return s.cache.Stats()
}

func (s *Service) unavailable(feature tier.Feature) Result {
	return Result{
		Feature:    feature,
		Enabled:    false,
		Tier:       tier.Free,
		Reason:     ReasonFeatureUnavailable,
		ResolvedAt: s.now(),
	}
}

func (s *Service) lookup(workspaceID uuid.UUID, feature tier.Feature) (Result, bool) {
	e, ok := s.cache.Get(workspaceID, feature)
	if !ok {
		return Result{}, false
	}

	res := e.Result
	res.Cached = true
	res.CacheTTLRemaining = max(e.ExpiresAt.Sub(s.now()), 0)
	s.metrics.resolved(res, sourceCache)
	return res, true
}

func (s *Service) decide(ctx context.Context, state BillingState, feature tier.Feature, required tier.Tier, actorID string) Result {
	now := s.now()
	d := DetermineDenialReason(state, required, s.trialTier, now)

	res := Result{
		Feature:    feature,
		Enabled:    d.Allowed(),
		Tier:       d.Tier,
		Reason:     d.Reason,
		ResolvedAt: now,
	}
	if ttl := s.entryTTL(state, now); ttl > 0 {
		s.cache.Put(state.WorkspaceID, feature, res, ttl)
		res.CacheTTLRemaining = ttl
	}

	s.metrics.resolved(res, sourceStore)
	s.record(ctx, state.WorkspaceID, actorID, res)
	return res
}

// entryTTL is the cache lifetime of a decision made from state. A running
// trial must not be served from cache past its end.
func (s *Service) entryTTL(state BillingState, now time.Time) time.Duration {
	ttl := s.ttl
	if state.Status == StatusTrialing && state.TrialEnd != nil && state.TrialEnd.After(now) {
		ttl = min(ttl, state.TrialEnd.Sub(now))
	}
	return ttl
}

// billingState reads the workspace record, sharing the read with concurrent
// callers for the same workspace. Each caller waits on its own context.
func (s *Service) billingState(ctx context.Context, workspaceID uuid.UUID) (BillingState, error) {
	ch := s.fetches.DoChan(workspaceID.String(), func() (any, error) {
		return s.fetch(ctx, workspaceID)
	})

	select {
	case <-ctx.Done():
		return BillingState{}, fmt.Errorf("%w: %w", ErrBillingStateUnavailable, ctx.Err())
	case r := <-ch:
		if r.Err == nil {
			return r.Val.(BillingState), nil
		}
		// The shared read ran on another caller's context which is gone now.
		if isContextError(r.Err) && ctx.Err() == nil {
			return s.fetch(ctx, workspaceID)
		}
		return BillingState{}, r.Err
	}
}

func (s *Service) fetch(ctx context.Context, workspaceID uuid.UUID) (BillingState, error) {
	state, err := s.reader.GetBillingState(ctx, workspaceID)
	switch {
	case errors.Is(err, ErrBillingStateNotFound), err == nil && state == nil:
		return DefaultBillingState(workspaceID), nil
	case err != nil:
		s.metrics.storeError()
		s.logger.ErrorContext(ctx, "failed to read billing state",
			logger.WorkspaceID(workspaceID),
			logger.Error(err),
		)
		return BillingState{}, errors.Join(ErrBillingStateUnavailable, err)
	case !state.Tier.Valid():
		s.metrics.storeError()
		return BillingState{}, fmt.Errorf("%w: %w: %w", ErrBillingStateUnavailable, ErrInvalidBillingState, tier.ErrInvalidTier)
	}

	st := *state
	st.WorkspaceID = workspaceID
	return st, nil
}

// record hands the decision to the audit sink. Sink panics are swallowed:
// auditing never affects the caller.
func (s *Service) record(ctx context.Context, workspaceID uuid.UUID, actorID string, res Result) {
	if s.audit == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			s.logger.ErrorContext(ctx, "audit sink panicked",
				logger.WorkspaceID(workspaceID),
				logger.Feature(res.Feature),
				slog.Any("panic", r),
			)
		}
	}()

	s.audit.Record(context.WithoutCancel(ctx), audit.Event{
		WorkspaceID: workspaceID,
		Feature:     string(res.Feature),
		Enabled:     res.Enabled,
		Reason:      string(res.Reason),
		Tier:        res.Tier.String(),
		ActorID:     actorID,
		Timestamp:   res.ResolvedAt,
	})
}

func isContextError(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
