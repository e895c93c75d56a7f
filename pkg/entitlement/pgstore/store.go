package pgstore

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/dmitrymomot/entitlekit/pkg/entitlement"
	"github.com/dmitrymomot/entitlekit/pkg/pg"
	"github.com/dmitrymomot/entitlekit/pkg/tier"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Migrations returns the goose migrations creating the billing_states table.
func Migrations() fs.FS {
	sub, err := fs.Sub(migrations, "migrations")
	if err != nil {
		panic(err)
	}
	return sub
}

// Querier is the subset of pgx used by the store. *pgxpool.Pool, *pgx.Conn
// and pgx.Tx satisfy it.
type Querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Store keeps billing state in the billing_states table, one row per workspace.
type Store struct {
	db Querier
}

var _ entitlement.BillingStateStore = (*Store)(nil)

// New creates a Postgres billing state store. Panics if db is nil.
func New(db Querier) *Store {
	if db == nil {
		panic("pgstore: querier cannot be nil")
	}
	return &Store{db: db}
}

const selectBillingState = `
SELECT tier, status, trial_end, customer_id, subscription_id, updated_at
FROM billing_states
WHERE workspace_id = $1`

const upsertBillingState = `
INSERT INTO billing_states (workspace_id, tier, status, trial_end, customer_id, subscription_id, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (workspace_id) DO UPDATE SET
    tier            = EXCLUDED.tier,
    status          = EXCLUDED.status,
    trial_end       = EXCLUDED.trial_end,
    customer_id     = EXCLUDED.customer_id,
    subscription_id = EXCLUDED.subscription_id,
    updated_at      = EXCLUDED.updated_at`

func (s *Store) GetBillingState(ctx context.Context, workspaceID uuid.UUID) (*entitlement.BillingState, error) {
	var (
		tierName  string
		status    string
		trialEnd  *time.Time
		updatedAt time.Time
		ids       entitlement.ProviderIDs
	)

	err := s.db.QueryRow(ctx, selectBillingState, workspaceID).
		Scan(&tierName, &status, &trialEnd, &ids.CustomerID, &ids.SubscriptionID, &updatedAt)
	if err != nil {
		if pg.IsNotFoundError(err) {
			return nil, entitlement.ErrBillingStateNotFound
		}
		return nil, fmt.Errorf("pgstore: get billing state: %w", err)
	}

	t, err := tier.Parse(tierName)
	if err != nil {
		return nil, errors.Join(entitlement.ErrInvalidBillingState, err)
	}

	return &entitlement.BillingState{
		WorkspaceID: workspaceID,
		Tier:        t,
		Status:      entitlement.Status(status),
		TrialEnd:    trialEnd,
		ProviderIDs: ids,
		UpdatedAt:   updatedAt,
	}, nil
}

// UpsertBillingState replaces the workspace row. A zero UpdatedAt is stamped with the current time.
func (s *Store) UpsertBillingState(ctx context.Context, workspaceID uuid.UUID, state entitlement.BillingState) error {
	state.WorkspaceID = workspaceID
	if err := state.Validate(); err != nil {
		return err
	}
	if state.UpdatedAt.IsZero() {
		state.UpdatedAt = time.Now().UTC()
	}

	_, err := s.db.Exec(ctx, upsertBillingState,
		workspaceID,
		state.Tier.String(),
		string(state.Status),
		state.TrialEnd,
		state.ProviderIDs.CustomerID,
		state.ProviderIDs.SubscriptionID,
		state.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("pgstore: upsert billing state: %w", err)
	}
	return nil
}
