package main

import (
	"fmt"

	"github.com/dmitrymomot/entitlekit/pkg/audit"
	"github.com/dmitrymomot/entitlekit/pkg/entitlement"
	"github.com/dmitrymomot/entitlekit/pkg/httpserver"
	"github.com/dmitrymomot/entitlekit/pkg/logger"
	"github.com/dmitrymomot/entitlekit/pkg/pg"
	"github.com/dmitrymomot/entitlekit/pkg/redis"
)

// Billing state backends.
const (
	storePostgres = "postgres"
	storeRedis    = "redis"
	storeMemory   = "memory"
)

type Config struct {
	Store string `env:"ENTITLEMENT_STORE" envDefault:"postgres"`

	Logger      logger.Config
	HTTP        httpserver.Config
	Postgres    pg.Config
	Redis       redis.Config
	Entitlement entitlement.Config
	Audit       audit.Config
}

func (c Config) validate() error {
	switch c.Store {
	case storePostgres:
		if c.Postgres.ConnectionString == "" {
			return fmt.Errorf("%w: PG_CONN_URL is required for the %s store", pg.ErrEmptyConnectionString, storePostgres)
		}
	case storeRedis:
		if !c.Redis.Enabled() {
			return fmt.Errorf("%w: REDIS_URL is required for the %s store", redis.ErrEmptyConnectionURL, storeRedis)
		}
	case storeMemory:
	default:
		return fmt.Errorf("unknown ENTITLEMENT_STORE %q", c.Store)
	}
	return nil
}
