package entitlement

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrymomot/entitlekit/pkg/tier"
)

// Config holds service settings loadable from the environment.
type Config struct {
	CacheTTL    time.Duration `env:"ENTITLEMENT_CACHE_TTL" envDefault:"5m"`
	CacheShards int           `env:"ENTITLEMENT_CACHE_SHARDS" envDefault:"32"`
	TrialTier   tier.Tier     `env:"ENTITLEMENT_TRIAL_TIER" envDefault:"pro"`
	CatalogPath string        `env:"ENTITLEMENT_CATALOG_PATH"`
}

// LoadCatalog returns the catalog from CatalogPath, or the built-in catalog
// when no path is configured.
func (c Config) LoadCatalog(ctx context.Context) (*tier.Catalog, error) {
	if c.CatalogPath == "" {
		return tier.DefaultCatalog(), nil
	}
	return tier.LoadCatalog(ctx, tier.NewYAMLSource(c.CatalogPath))
}

// NewServiceFromConfig builds a Service with the cache and trial settings of cfg.
// Options passed explicitly take precedence.
func NewServiceFromConfig(cfg Config, catalog *tier.Catalog, reader BillingStateReader, opts ...ServiceOption) (*Service, error) {
	if cfg.CacheTTL < 0 {
		return nil, fmt.Errorf("entitlement: negative cache TTL %s", cfg.CacheTTL)
	}
	if !cfg.TrialTier.Valid() {
		return nil, fmt.Errorf("entitlement: trial tier: %w", tier.ErrInvalidTier)
	}

	base := []ServiceOption{
		WithCacheTTL(cfg.CacheTTL),
		WithTrialTier(cfg.TrialTier),
	}
	if cfg.CacheShards > 0 {
		base = append(base, withCacheShards(cfg.CacheShards))
	}
	return NewService(catalog, reader, append(base, opts...)...), nil
}

func withCacheShards(n int) ServiceOption {
	return func(s *Service) {
		s.shards = n
	}
}
