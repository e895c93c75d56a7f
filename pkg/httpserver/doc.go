// Package httpserver runs the operational HTTP endpoint of entitlementd.
//
// Server binds on Run, serves until the context is cancelled and then shuts
// down within the configured timeout. LivenessHandler and ReadinessHandler
// implement the usual probe pair; readiness reports each dependency check by
// name:
//
//	srv := httpserver.NewFromConfig(cfg.HTTP, httpserver.WithLogger(log))
//	mux.Get("/readyz", httpserver.ReadinessHandler(log, map[string]httpserver.Check{
//		"postgres": pg.Healthcheck(pool),
//	}))
//	err := srv.Run(ctx, mux)
package httpserver
