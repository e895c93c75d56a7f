// Package entitlement resolves whether a workspace may use a feature.
//
// A decision combines three inputs: the minimum tier the feature requires
// (from a tier.Catalog), the workspace billing state (tier, subscription
// status and trial window) and the current time. The outcome is a Result
// that is either enabled or carries a denial Reason:
//
//	FEATURE_UNAVAILABLE    the feature id is not in the catalog
//	SUBSCRIPTION_INACTIVE  cancelled, past_due or unpaid subscription
//	GRACE_PERIOD_EXPIRED   the trial ended and the base tier is too low
//	TIER_INSUFFICIENT      the tier is too low
//
// Subscription health is checked before the tier, so an enterprise
// workspace that is past due reports SUBSCRIPTION_INACTIVE.
//
// # Resolution
//
// Service caches decisions per (workspace, feature) for a fixed TTL and
// reads billing state only on a miss. A workspace without a billing record
// is treated as free and active. Store failures are returned as errors
// wrapping ErrBillingStateUnavailable and are never turned into denials.
//
//	svc := entitlement.NewService(tier.DefaultCatalog(), store,
//		entitlement.WithAuditSink(recorder),
//		entitlement.WithMetrics(prometheus.DefaultRegisterer),
//	)
//	res, err := svc.Resolve(ctx, workspaceID, tier.FeatureBrandedReports, userID)
//	if err != nil {
//		// could not determine access
//	}
//	if !res.Enabled {
//		// res.Reason explains why
//	}
//
// # Billing sync
//
// Syncer applies provider events to the BillingStateStore and invalidates the
// workspace in the cache. It is the only writer of billing state. Without
// remote invalidation, other processes converge within the cache TTL.
package entitlement
