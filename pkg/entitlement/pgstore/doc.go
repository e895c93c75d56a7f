// Package pgstore is a Postgres implementation of entitlement.BillingStateStore.
//
// The schema ships as embedded goose migrations; apply them with pg.Migrate
// before first use. Upserts are last-write-wins on workspace_id.
package pgstore
