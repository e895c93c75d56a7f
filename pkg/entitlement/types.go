package entitlement

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/entitlekit/pkg/tier"
)

// Status is the billing provider's subscription status.
type Status string

const (
	StatusActive    Status = "active"
	StatusTrialing  Status = "trialing"
	StatusPastDue   Status = "past_due"
	StatusUnpaid    Status = "unpaid"
	StatusCancelled Status = "cancelled"
)

// ParseStatus validates a raw status value.
func ParseStatus(s string) (Status, error) {
	st := Status(s)
	if !st.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, s)
	}
	return st, nil
}

func (s Status) Valid() bool {
	switch s {
	case StatusActive, StatusTrialing, StatusPastDue, StatusUnpaid, StatusCancelled:
		return true
	}
	return false
}

// Inactive reports whether the subscription blocks every tier-gated feature.
// Unknown statuses are inactive.
func (s Status) Inactive() bool {
	return s != StatusActive && s != StatusTrialing
}

// Reason explains why an entitlement was denied. The zero value means allowed
// and is encoded as JSON null.
type Reason string

const (
	ReasonNone                 Reason = ""
	ReasonFeatureUnavailable   Reason = "FEATURE_UNAVAILABLE"
	ReasonTierInsufficient     Reason = "TIER_INSUFFICIENT"
	ReasonSubscriptionInactive Reason = "SUBSCRIPTION_INACTIVE"
	ReasonGracePeriodExpired   Reason = "GRACE_PERIOD_EXPIRED"
)

func (r Reason) MarshalJSON() ([]byte, error) {
	if r == ReasonNone {
		return []byte("null"), nil
	}
	return json.Marshal(string(r))
}

func (r *Reason) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*r = ReasonNone
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*r = Reason(s)
	return nil
}

// ProviderIDs identify the workspace at the billing provider.
// They are kept for reconciliation only and never affect authorization.
type ProviderIDs struct {
	CustomerID     string `json:"customer_id,omitempty"`
	SubscriptionID string `json:"subscription_id,omitempty"`
}

// BillingState is the authoritative billing record of a workspace.
// There is at most one per workspace.
type BillingState struct {
	WorkspaceID uuid.UUID   `json:"workspace_id"`
	Tier        tier.Tier   `json:"tier"`
	Status      Status      `json:"status"`
	TrialEnd    *time.Time  `json:"trial_end,omitempty"`
	ProviderIDs ProviderIDs `json:"provider_ids"`
	UpdatedAt   time.Time   `json:"updated_at,omitzero"`
}

// DefaultBillingState is assumed for workspaces without a billing record.
func DefaultBillingState(workspaceID uuid.UUID) BillingState {
	return BillingState{
		WorkspaceID: workspaceID,
		Tier:        tier.Free,
		Status:      StatusActive,
	}
}

// Validate checks the fields the resolver depends on.
func (b BillingState) Validate() error {
	if b.WorkspaceID == uuid.Nil {
		return fmt.Errorf("%w: %w", ErrInvalidBillingState, ErrMissingWorkspaceID)
	}
	if !b.Tier.Valid() {
		return fmt.Errorf("%w: %w", ErrInvalidBillingState, tier.ErrInvalidTier)
	}
	if !b.Status.Valid() {
		return fmt.Errorf("%w: %w: %q", ErrInvalidBillingState, ErrInvalidStatus, b.Status)
	}
	return nil
}

// Result is the outcome of resolving one feature for one workspace.
type Result struct {
	Feature           tier.Feature
	Enabled           bool
	Tier              tier.Tier // tier the decision was made with (trial tier during a trial)
	Reason            Reason
	Cached            bool
	ResolvedAt        time.Time
	CacheTTLRemaining time.Duration
}

type resultJSON struct {
	Feature           tier.Feature `json:"feature"`
	Enabled           bool         `json:"enabled"`
	Tier              tier.Tier    `json:"tier"`
	Reason            Reason       `json:"reason"`
	Cached            bool         `json:"cached"`
	ResolvedAt        time.Time    `json:"resolvedAt"`
	CacheTTLRemaining int64        `json:"cacheTtlRemaining"` // milliseconds
}

func (r Result) MarshalJSON() ([]byte, error) {
	return json.Marshal(resultJSON{
		Feature:           r.Feature,
		Enabled:           r.Enabled,
		Tier:              r.Tier,
		Reason:            r.Reason,
		Cached:            r.Cached,
		ResolvedAt:        r.ResolvedAt,
		CacheTTLRemaining: r.CacheTTLRemaining.Milliseconds(),
	})
}

func (r *Result) UnmarshalJSON(data []byte) error {
	var raw resultJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*r = Result{
		Feature:           raw.Feature,
		Enabled:           raw.Enabled,
		Tier:              raw.Tier,
		Reason:            raw.Reason,
		Cached:            raw.Cached,
		ResolvedAt:        raw.ResolvedAt,
		CacheTTLRemaining: time.Duration(raw.CacheTTLRemaining) * time.Millisecond,
	}
	return nil
}
