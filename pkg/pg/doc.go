// Package pg wraps pgx pool setup for the entitlement stores.
//
// Connect parses Config, opens a pgxpool.Pool and pings it, retrying at a
// constant interval until the attempts are exhausted or ctx is cancelled.
// Migrate applies goose migrations from an fs.FS, usually one embedded by
// the package that owns the schema:
//
//	pool, err := pg.Connect(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	if err := pg.Migrate(ctx, pool, pgstore.Migrations(), cfg.MigrationsTable, log); err != nil {
//		return err
//	}
//
// Healthcheck returns a probe suitable for a readiness endpoint.
package pg
