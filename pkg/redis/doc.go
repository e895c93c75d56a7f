// Package redis connects go-redis clients for the entitlement Redis store
// and cross-process cache invalidation.
//
//	client, err := redis.Connect(ctx, redis.Config{ConnectionURL: "redis://localhost:6379/0"})
//	if err != nil {
//		return err
//	}
//	defer client.Close()
//
// Redis is optional: Config.Enabled reports whether a URL is configured.
package redis
