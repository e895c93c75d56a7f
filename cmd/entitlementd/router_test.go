package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/entitlekit/pkg/entitlement"
	"github.com/dmitrymomot/entitlekit/pkg/httpserver"
	"github.com/dmitrymomot/entitlekit/pkg/tier"
)

type failingReader struct{}

func (failingReader) GetBillingState(context.Context, uuid.UUID) (*entitlement.BillingState, error) {
	return nil, errors.New("connection reset")
}

type publisherFunc func(ctx context.Context, ws uuid.UUID) error

func (f publisherFunc) PublishInvalidation(ctx context.Context, ws uuid.UUID) error {
	return f(ctx, ws)
}

func setupRouter(t *testing.T, reader entitlement.BillingStateReader, publisher entitlement.InvalidationPublisher) http.Handler {
	t.Helper()

	reg := prometheus.NewRegistry()
	svc := entitlement.NewService(tier.DefaultCatalog(), reader, entitlement.WithMetrics(reg))

	var syncer BillingSyncer
	if store, ok := reader.(entitlement.BillingStateStore); ok {
		syncer = entitlement.NewSyncer(store, svc)
	}
	return newRouter(RouterOptions{
		Resolver:  svc,
		Syncer:    syncer,
		Publisher: publisher,
		Checks: map[string]httpserver.Check{
			"store": func(context.Context) error { return nil },
		},
		Gatherer: reg,
	})
}

func do(t *testing.T, h http.Handler, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, path, nil))
	return rec
}

func TestRouter_Probes(t *testing.T) {
	t.Parallel()

	h := setupRouter(t, entitlement.NewMemoryStore(), nil)

	assert.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/healthz").Code)

	rec := do(t, h, http.MethodGet, "/readyz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"store":"ok"`)
}

func TestRouter_ResolveAndCache(t *testing.T) {
	t.Parallel()

	store := entitlement.NewMemoryStore()
	ws := uuid.New()
	require.NoError(t, store.UpsertBillingState(context.Background(), ws, entitlement.BillingState{
		WorkspaceID: ws,
		Tier:        tier.Pro,
		Status:      entitlement.StatusActive,
	}))

	var published []uuid.UUID
	h := setupRouter(t, store, publisherFunc(func(_ context.Context, id uuid.UUID) error {
		published = append(published, id)
		return nil
	}))

	path := "/debug/entitlements/" + ws.String() + "/" + string(tier.FeatureBrandedReports)

	rec := do(t, h, http.MethodGet, path)
	require.Equal(t, http.StatusOK, rec.Code)
	var first entitlement.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &first))
	assert.True(t, first.Enabled)
	assert.False(t, first.Cached)
	assert.Equal(t, tier.Pro, first.Tier)

	rec = do(t, h, http.MethodGet, path)
	var second entitlement.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &second))
	assert.True(t, second.Cached)

	rec = do(t, h, http.MethodGet, "/debug/entitlements/cache")
	require.Equal(t, http.StatusOK, rec.Code)
	var stats entitlement.CacheStats
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.Equal(t, 1, stats.Size)

	rec = do(t, h, http.MethodDelete, "/debug/entitlements/"+ws.String()+"/cache")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"invalidated":1,"published":true}`, rec.Body.String())
	assert.Equal(t, []uuid.UUID{ws}, published)

	rec = do(t, h, http.MethodGet, "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "entitlement_resolutions_total"))
}

func TestRouter_SyncBilling(t *testing.T) {
	t.Parallel()

	h := setupRouter(t, entitlement.NewMemoryStore(), nil)
	ws := uuid.New()
	feature := "/debug/entitlements/" + ws.String() + "/" + string(tier.FeatureBrandedReports)
	billing := "/debug/entitlements/" + ws.String() + "/billing"

	rec := do(t, h, http.MethodGet, feature)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"enabled":false`)

	put := func(body string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, billing, strings.NewReader(body)))
		return rec
	}

	rec = put(`{"tier":"pro","status":"active"}`)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, h, http.MethodGet, feature)
	require.Equal(t, http.StatusOK, rec.Code)
	var res entitlement.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.True(t, res.Enabled, "sync invalidated the cached denial")
	assert.False(t, res.Cached)

	assert.Equal(t, http.StatusBadRequest, put(`{"tier":"pro","status":"frozen"}`).Code)
	assert.Equal(t, http.StatusBadRequest, put(`{"tier":"platinum","status":"active"}`).Code)
	assert.Equal(t, http.StatusBadRequest, put(`not json`).Code)
}

func TestRouter_Errors(t *testing.T) {
	t.Parallel()

	t.Run("invalid workspace id", func(t *testing.T) {
		t.Parallel()

		h := setupRouter(t, entitlement.NewMemoryStore(), nil)
		rec := do(t, h, http.MethodGet, "/debug/entitlements/not-a-uuid/"+string(tier.FeatureParcelSearch))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("store outage", func(t *testing.T) {
		t.Parallel()

		h := setupRouter(t, failingReader{}, nil)
		rec := do(t, h, http.MethodGet, "/debug/entitlements/"+uuid.NewString()+"/"+string(tier.FeatureParcelSearch))
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})

	t.Run("publish failure is not fatal", func(t *testing.T) {
		t.Parallel()

		h := setupRouter(t, entitlement.NewMemoryStore(), publisherFunc(func(context.Context, uuid.UUID) error {
			return errors.New("redis down")
		}))
		rec := do(t, h, http.MethodDelete, "/debug/entitlements/"+uuid.NewString()+"/cache")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"invalidated":0,"published":false}`, rec.Body.String())
	})
}
