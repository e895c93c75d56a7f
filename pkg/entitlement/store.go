package entitlement

import (
	"context"

	"github.com/google/uuid"
)

// BillingStateReader is the read side of the billing state store.
// The resolution service only ever reads.
type BillingStateReader interface {
	// GetBillingState returns the workspace billing record.
	// Returns ErrBillingStateNotFound if the workspace has none.
	GetBillingState(ctx context.Context, workspaceID uuid.UUID) (*BillingState, error)
}

// BillingStateStore persists billing state keyed by workspace ID.
// Only the Syncer writes through it.
type BillingStateStore interface {
	BillingStateReader

	// UpsertBillingState creates or fully replaces the workspace record.
	UpsertBillingState(ctx context.Context, workspaceID uuid.UUID, state BillingState) error
}

// WorkspaceInvalidator drops cached decisions of a workspace.
type WorkspaceInvalidator interface {
	InvalidateWorkspace(workspaceID uuid.UUID) int
}
