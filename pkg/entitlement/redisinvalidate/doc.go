// Package redisinvalidate fans billing-driven cache invalidations out to
// every process running an entitlement.Service.
//
// The Syncer publishes through Invalidator (entitlement.WithPublisher) and each
// process runs Subscribe against its own service:
//
//	inv := redisinvalidate.New(client, redisinvalidate.WithOrigin(hostname))
//	go inv.Subscribe(ctx, svc, nil)
//	syncer := entitlement.NewSyncer(store, svc, entitlement.WithPublisher(inv))
//
// Without it, processes other than the one handling the webhook stay stale
// for at most the cache TTL.
package redisinvalidate
