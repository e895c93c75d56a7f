// Command entitlementd hosts the entitlement service: it keeps the process
// cache in sync through Redis invalidations and serves health, metrics and
// debug endpoints.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	goredis "github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/dmitrymomot/entitlekit/pkg/audit"
	"github.com/dmitrymomot/entitlekit/pkg/config"
	"github.com/dmitrymomot/entitlekit/pkg/entitlement"
	"github.com/dmitrymomot/entitlekit/pkg/entitlement/pgstore"
	"github.com/dmitrymomot/entitlekit/pkg/entitlement/redisinvalidate"
	"github.com/dmitrymomot/entitlekit/pkg/entitlement/redisstore"
	"github.com/dmitrymomot/entitlekit/pkg/httpserver"
	"github.com/dmitrymomot/entitlekit/pkg/logger"
	"github.com/dmitrymomot/entitlekit/pkg/pg"
	"github.com/dmitrymomot/entitlekit/pkg/redis"
)

const auditFlushTimeout = 10 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "entitlementd:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.Load[Config](config.WithOptionalEnvFiles(".env"))
	if err != nil {
		return err
	}
	if err := cfg.validate(); err != nil {
		return err
	}

	log, err := logger.NewFromConfig(cfg.Logger)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	catalog, err := cfg.Entitlement.LoadCatalog(ctx)
	if err != nil {
		return err
	}
	log.InfoContext(ctx, "feature catalog loaded", slog.Int("features", catalog.Len()))

	checks := map[string]httpserver.Check{}

	var rdb *goredis.Client
	if cfg.Redis.Enabled() {
		client, err := redis.Connect(ctx, cfg.Redis)
		if err != nil {
			return err
		}
		defer client.Close()
		rdb = client
		checks["redis"] = redis.Healthcheck(client)
	}

	var store entitlement.BillingStateStore
	switch cfg.Store {
	case storePostgres:
		pool, err := pg.Connect(ctx, cfg.Postgres)
		if err != nil {
			return err
		}
		defer pool.Close()
		if err := pg.Migrate(ctx, pool, pgstore.Migrations(), cfg.Postgres.MigrationsTable, log); err != nil {
			return err
		}
		checks["postgres"] = pg.Healthcheck(pool)
		store = pgstore.New(pool)
	case storeRedis:
		store = redisstore.New(rdb)
	default:
		log.WarnContext(ctx, "using in-memory billing state store; data is lost on restart")
		store = entitlement.NewMemoryStore()
	}

	recorder := audit.NewRecorder(
		audit.NewLogStorage(log.With(logger.Component("audit"))),
		append(cfg.Audit.Options(), audit.WithLogger(log), audit.WithMetrics(reg))...,
	)
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), auditFlushTimeout)
		defer cancel()
		if err := recorder.Close(flushCtx); err != nil {
			log.Error("failed to flush audit events", logger.Error(err))
		}
	}()

	svc, err := entitlement.NewServiceFromConfig(cfg.Entitlement, catalog, store,
		entitlement.WithAuditSink(recorder),
		entitlement.WithLogger(log.With(logger.Component("entitlement"))),
		entitlement.WithMetrics(reg),
	)
	if err != nil {
		return err
	}

	var invalidator *redisinvalidate.Invalidator
	syncOpts := []entitlement.SyncerOption{entitlement.WithSyncerLogger(log.With(logger.Component("sync")))}
	if rdb != nil {
		invalidator = redisinvalidate.New(rdb,
			redisinvalidate.WithOrigin(instanceID()),
			redisinvalidate.WithLogger(log.With(logger.Component("invalidation"))),
		)
		syncOpts = append(syncOpts, entitlement.WithPublisher(invalidator))
	}
	syncer := entitlement.NewSyncer(store, svc, syncOpts...)

	router := newRouter(RouterOptions{
		Resolver:  svc,
		Syncer:    syncer,
		Publisher: publisherOrNil(invalidator),
		Checks:    checks,
		Gatherer:  reg,
		Logger:    log,
	})

	srv := httpserver.NewFromConfig(cfg.HTTP, httpserver.WithLogger(log))

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return srv.Run(ctx, router) })
	if invalidator != nil {
		g.Go(func() error {
			err := invalidator.Subscribe(ctx, svc, nil)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		})
	}

	return g.Wait()
}

// instanceID identifies this process on the invalidation channel.
func instanceID() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "entitlementd"
	}
	return fmt.Sprintf("%s-%d", host, os.Getpid())
}

func publisherOrNil(inv *redisinvalidate.Invalidator) entitlement.InvalidationPublisher {
	if inv == nil {
		return nil
	}
	return inv
}
