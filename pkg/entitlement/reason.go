package entitlement

import (
	"time"

	"github.com/dmitrymomot/entitlekit/pkg/tier"
)

// Decision is the output of DetermineDenialReason.
type Decision struct {
	Reason Reason
	Tier   tier.Tier // tier the tier check ran against
}

func (d Decision) Allowed() bool {
	return d.Reason == ReasonNone
}

// DetermineDenialReason decides whether the workspace billing state grants a
// feature requiring the given tier. Subscription health is checked before the
// plan so that "reactivate billing" and "upgrade plan" stay distinguishable.
//
// A running trial grants trialTier on top of the base tier. Once the trial has
// ended (or has no end), features above the base tier report GRACE_PERIOD_EXPIRED.
func DetermineDenialReason(state BillingState, required, trialTier tier.Tier, now time.Time) Decision {
	if state.Status.Inactive() {
		return Decision{Reason: ReasonSubscriptionInactive, Tier: state.Tier}
	}

	effective := state.Tier
	if state.Status == StatusTrialing {
		if state.TrialEnd != nil && state.TrialEnd.After(now) {
			effective = tier.Max(state.Tier, trialTier)
		} else if !tier.IsSufficient(state.Tier, required) {
			return Decision{Reason: ReasonGracePeriodExpired, Tier: state.Tier}
		}
	}

	if !tier.IsSufficient(effective, required) {
		return Decision{Reason: ReasonTierInsufficient, Tier: effective}
	}
	return Decision{Reason: ReasonNone, Tier: effective}
}
