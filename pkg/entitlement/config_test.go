package entitlement_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/entitlekit/pkg/entitlement"
	"github.com/dmitrymomot/entitlekit/pkg/tier"
)

func TestNewServiceFromConfig(t *testing.T) {
	t.Parallel()

	t.Run("applies trial tier and ttl", func(t *testing.T) {
		t.Parallel()

		store := newCountingStore()
		clock := newFakeClock()
		ws := uuid.New()
		end := clock.Now().Add(time.Hour)
		store.put(ws, entitlement.BillingState{Tier: tier.Free, Status: entitlement.StatusTrialing, TrialEnd: &end})

		svc, err := entitlement.NewServiceFromConfig(entitlement.Config{
			CacheTTL:    time.Minute,
			CacheShards: 4,
			TrialTier:   tier.Portfolio,
		}, tier.DefaultCatalog(), store, entitlement.WithClock(clock.Now))
		require.NoError(t, err)

		res, err := svc.Resolve(context.Background(), ws, tier.FeatureAPIAccess, "")
		require.NoError(t, err)
		assert.True(t, res.Enabled)
		assert.Equal(t, tier.Portfolio, res.Tier)
		assert.Equal(t, time.Minute, res.CacheTTLRemaining)
	})

	t.Run("explicit options win", func(t *testing.T) {
		t.Parallel()

		svc, err := entitlement.NewServiceFromConfig(entitlement.Config{CacheTTL: time.Minute, TrialTier: tier.Pro},
			tier.DefaultCatalog(), entitlement.NewMemoryStore(), entitlement.WithCacheTTL(0))
		require.NoError(t, err)

		_, err = svc.Resolve(context.Background(), uuid.New(), tier.FeatureSSO, "")
		require.NoError(t, err)
		assert.Zero(t, svc.CacheStatistics().Size)
	})

	t.Run("negative ttl", func(t *testing.T) {
		t.Parallel()
		_, err := entitlement.NewServiceFromConfig(entitlement.Config{CacheTTL: -time.Second},
			tier.DefaultCatalog(), entitlement.NewMemoryStore())
		assert.Error(t, err)
	})

	t.Run("invalid trial tier", func(t *testing.T) {
		t.Parallel()
		_, err := entitlement.NewServiceFromConfig(entitlement.Config{TrialTier: tier.Tier(99)},
			tier.DefaultCatalog(), entitlement.NewMemoryStore())
		assert.ErrorIs(t, err, tier.ErrInvalidTier)
	})
}

func TestConfig_LoadCatalog(t *testing.T) {
	t.Parallel()

	t.Run("default catalog", func(t *testing.T) {
		t.Parallel()
		catalog, err := entitlement.Config{}.LoadCatalog(context.Background())
		require.NoError(t, err)
		assert.Equal(t, tier.DefaultCatalog().Features(), catalog.Features())
	})

	t.Run("yaml file", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "features.yaml")
		require.NoError(t, os.WriteFile(path, []byte("features:\n  reports: pro\n  sso: enterprise\n"), 0o600))

		catalog, err := entitlement.Config{CatalogPath: path}.LoadCatalog(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 2, catalog.Len())

		required, err := catalog.MinimumTierFor("sso")
		require.NoError(t, err)
		assert.Equal(t, tier.Enterprise, required)
	})

	t.Run("missing file", func(t *testing.T) {
		t.Parallel()
		_, err := entitlement.Config{CatalogPath: "/nonexistent/features.yaml"}.LoadCatalog(context.Background())
		assert.ErrorIs(t, err, tier.ErrFailedToLoad)
	})
}
