// Package tier declares subscription tiers, their total order and the
// minimum tier each product feature requires.
//
// Tiers are compared by rank only:
//
//	tier.IsSufficient(tier.ProPlus, tier.Pro) // true
//
// A Catalog maps features to tiers. The built-in catalog is returned by
// DefaultCatalog; deployments can override it with a YAML file:
//
//	catalog, err := tier.LoadCatalog(ctx, tier.NewYAMLSource("features.yaml"))
//
// Looking up an unregistered feature returns ErrFeatureUnavailable.
package tier
