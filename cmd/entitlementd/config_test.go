package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/entitlekit/pkg/config"
	"github.com/dmitrymomot/entitlekit/pkg/pg"
	"github.com/dmitrymomot/entitlekit/pkg/redis"
	"github.com/dmitrymomot/entitlekit/pkg/tier"
)

func TestConfig_Load(t *testing.T) {
	t.Parallel()

	cfg, err := config.Load[Config](config.WithEnvironment(map[string]string{
		"ENTITLEMENT_STORE":      "redis",
		"REDIS_URL":              "redis://localhost:6379/0",
		"ENTITLEMENT_CACHE_TTL":  "30s",
		"ENTITLEMENT_TRIAL_TIER": "pro_plus",
		"HTTP_ADDR":              ":9090",
	}))
	require.NoError(t, err)
	require.NoError(t, cfg.validate())

	assert.Equal(t, storeRedis, cfg.Store)
	assert.Equal(t, 30*time.Second, cfg.Entitlement.CacheTTL)
	assert.Equal(t, tier.ProPlus, cfg.Entitlement.TrialTier)
	assert.Equal(t, ":9090", cfg.HTTP.Addr)
	assert.Equal(t, 32, cfg.Entitlement.CacheShards)
	assert.Equal(t, "entitlement_schema_migrations", cfg.Postgres.MigrationsTable)
}

func TestConfig_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		cfg  Config
		err  error
	}{
		{"postgres without url", Config{Store: storePostgres}, pg.ErrEmptyConnectionString},
		{"redis without url", Config{Store: storeRedis}, redis.ErrEmptyConnectionURL},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.ErrorIs(t, tt.cfg.validate(), tt.err)
		})
	}

	assert.NoError(t, Config{Store: storeMemory}.validate())
	assert.Error(t, Config{Store: "sqlite"}.validate())
}
