package redisstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/entitlekit/pkg/entitlement"
	"github.com/dmitrymomot/entitlekit/pkg/tier"
)

// DefaultKeyPrefix is prepended to the workspace id to form the hash key.
const DefaultKeyPrefix = "entitlement:billing:"

const (
	fieldTier           = "tier"
	fieldStatus         = "status"
	fieldTrialEnd       = "trial_end"
	fieldCustomerID     = "customer_id"
	fieldSubscriptionID = "subscription_id"
	fieldUpdatedAt      = "updated_at"
)

// Store keeps each workspace billing state in its own Redis hash.
type Store struct {
	client redis.UniversalClient
	prefix string
}

var _ entitlement.BillingStateStore = (*Store)(nil)

// Option configures a Store.
type Option func(*Store)

// WithKeyPrefix overrides DefaultKeyPrefix.
func WithKeyPrefix(prefix string) Option {
	return func(s *Store) {
		if prefix != "" {
			s.prefix = prefix
		}
	}
}

// New creates a Redis billing state store. Panics if client is nil.
func New(client redis.UniversalClient, opts ...Option) *Store {
	if client == nil {
		panic("redisstore: client cannot be nil")
	}
	s := &Store{client: client, prefix: DefaultKeyPrefix}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) key(workspaceID uuid.UUID) string {
	return s.prefix + workspaceID.String()
}

func (s *Store) GetBillingState(ctx context.Context, workspaceID uuid.UUID) (*entitlement.BillingState, error) {
	fields, err := s.client.HGetAll(ctx, s.key(workspaceID)).Result()
	if err != nil {
		return nil, fmt.Errorf("redisstore: get billing state: %w", err)
	}
	if len(fields) == 0 {
		return nil, entitlement.ErrBillingStateNotFound
	}

	t, err := tier.Parse(fields[fieldTier])
	if err != nil {
		return nil, errors.Join(entitlement.ErrInvalidBillingState, err)
	}

	state := &entitlement.BillingState{
		WorkspaceID: workspaceID,
		Tier:        t,
		Status:      entitlement.Status(fields[fieldStatus]),
		ProviderIDs: entitlement.ProviderIDs{
			CustomerID:     fields[fieldCustomerID],
			SubscriptionID: fields[fieldSubscriptionID],
		},
	}
	if v := fields[fieldTrialEnd]; v != "" {
		end, err := time.Parse(time.RFC3339Nano, v)
		if err != nil {
			return nil, errors.Join(entitlement.ErrInvalidBillingState, err)
		}
		state.TrialEnd = &end
	}
	if v := fields[fieldUpdatedAt]; v != "" {
		if state.UpdatedAt, err = time.Parse(time.RFC3339Nano, v); err != nil {
			return nil, errors.Join(entitlement.ErrInvalidBillingState, err)
		}
	}
	return state, nil
}

// UpsertBillingState atomically replaces the workspace hash. Fields absent
// from state are removed rather than kept from the previous record.
func (s *Store) UpsertBillingState(ctx context.Context, workspaceID uuid.UUID, state entitlement.BillingState) error {
	state.WorkspaceID = workspaceID
	if err := state.Validate(); err != nil {
		return err
	}
	if state.UpdatedAt.IsZero() {
		state.UpdatedAt = time.Now().UTC()
	}

	fields := map[string]any{
		fieldTier:           state.Tier.String(),
		fieldStatus:         string(state.Status),
		fieldCustomerID:     state.ProviderIDs.CustomerID,
		fieldSubscriptionID: state.ProviderIDs.SubscriptionID,
		fieldUpdatedAt:      state.UpdatedAt.Format(time.RFC3339Nano),
	}
	if state.TrialEnd != nil {
		fields[fieldTrialEnd] = state.TrialEnd.UTC().Format(time.RFC3339Nano)
	}

	key := s.key(workspaceID)
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		pipe.HSet(ctx, key, fields)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redisstore: upsert billing state: %w", err)
	}
	return nil
}
