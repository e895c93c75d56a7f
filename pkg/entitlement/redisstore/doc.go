// Package redisstore is a Redis implementation of entitlement.BillingStateStore.
//
// Each workspace is one hash under "entitlement:billing:<workspace uuid>"
// with the fields tier, status, trial_end, customer_id, subscription_id and
// updated_at. Timestamps are RFC 3339 in UTC. Upserts replace the whole hash
// in a MULTI/EXEC transaction.
package redisstore
