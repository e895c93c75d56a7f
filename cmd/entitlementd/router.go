package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dmitrymomot/entitlekit/pkg/entitlement"
	"github.com/dmitrymomot/entitlekit/pkg/httpserver"
	"github.com/dmitrymomot/entitlekit/pkg/logger"
	"github.com/dmitrymomot/entitlekit/pkg/tier"
)

// Resolver is the part of *entitlement.Service the ops router needs.
type Resolver interface {
	Resolve(ctx context.Context, workspaceID uuid.UUID, feature tier.Feature, actorID string) (entitlement.Result, error)
	InvalidateWorkspace(workspaceID uuid.UUID) int
	CacheStatistics() entitlement.CacheStats
}

// BillingSyncer applies normalized provider events. *entitlement.Syncer implements it.
type BillingSyncer interface {
	SyncFromProviderEvent(ctx context.Context, workspaceID uuid.UUID, event entitlement.ProviderEvent) error
}

// RouterOptions configures the ops router. Syncer, Publisher and Checks are optional.
type RouterOptions struct {
	Resolver  Resolver
	Syncer    BillingSyncer
	Publisher entitlement.InvalidationPublisher
	Checks    map[string]httpserver.Check
	Gatherer  prometheus.Gatherer
	Logger    *slog.Logger
}

func newRouter(opts RouterOptions) chi.Router {
	if opts.Logger == nil {
		opts.Logger = logger.Discard()
	}
	if opts.Gatherer == nil {
		opts.Gatherer = prometheus.DefaultGatherer
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/healthz", httpserver.LivenessHandler())
	r.Get("/readyz", httpserver.ReadinessHandler(opts.Logger, opts.Checks))
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{}))

	d := debugHandlers{resolver: opts.Resolver, syncer: opts.Syncer, publisher: opts.Publisher, logger: opts.Logger}
	r.Route("/debug/entitlements", func(r chi.Router) {
		r.Get("/cache", d.cacheStats)
		r.Delete("/{workspaceID}/cache", d.invalidate)
		if opts.Syncer != nil {
			r.Put("/{workspaceID}/billing", d.sync)
		}
		r.Get("/{workspaceID}/{feature}", d.resolve)
	})

	return r
}

type debugHandlers struct {
	resolver  Resolver
	syncer    BillingSyncer
	publisher entitlement.InvalidationPublisher
	logger    *slog.Logger
}

type errorResponse struct {
	Error string `json:"error"`
}

func (d debugHandlers) cacheStats(w http.ResponseWriter, _ *http.Request) {
	httpserver.WriteJSON(w, http.StatusOK, d.resolver.CacheStatistics())
}

func (d debugHandlers) resolve(w http.ResponseWriter, r *http.Request) {
	ws, ok := workspaceParam(w, r)
	if !ok {
		return
	}

	res, err := d.resolver.Resolve(r.Context(), ws, tier.Feature(chi.URLParam(r, "feature")), r.URL.Query().Get("actor"))
	if err != nil {
		d.logger.ErrorContext(r.Context(), "debug resolve failed", logger.WorkspaceID(ws), logger.Error(err))
		code := http.StatusInternalServerError
		if errors.Is(err, entitlement.ErrBillingStateUnavailable) {
			code = http.StatusServiceUnavailable
		}
		httpserver.WriteJSON(w, code, errorResponse{Error: err.Error()})
		return
	}
	httpserver.WriteJSON(w, http.StatusOK, res)
}

func (d debugHandlers) invalidate(w http.ResponseWriter, r *http.Request) {
	ws, ok := workspaceParam(w, r)
	if !ok {
		return
	}

	n := d.resolver.InvalidateWorkspace(ws)
	published := false
	if d.publisher != nil {
		if err := d.publisher.PublishInvalidation(r.Context(), ws); err != nil {
			d.logger.WarnContext(r.Context(), "failed to publish invalidation", logger.WorkspaceID(ws), logger.Error(err))
		} else {
			published = true
		}
	}

	httpserver.WriteJSON(w, http.StatusOK, map[string]any{
		"invalidated": n,
		"published":   published,
	})
}

// maxEventBytes bounds the billing event request body.
const maxEventBytes = 64 << 10

func (d debugHandlers) sync(w http.ResponseWriter, r *http.Request) {
	ws, ok := workspaceParam(w, r)
	if !ok {
		return
	}

	var event entitlement.ProviderEvent
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxEventBytes)).Decode(&event); err != nil {
		httpserver.WriteJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	if err := d.syncer.SyncFromProviderEvent(r.Context(), ws, event); err != nil {
		code := http.StatusInternalServerError
		switch {
		case errors.Is(err, entitlement.ErrBillingStateUnavailable):
			code = http.StatusServiceUnavailable
		case errors.Is(err, entitlement.ErrInvalidBillingState):
			code = http.StatusBadRequest
		}
		d.logger.ErrorContext(r.Context(), "billing sync failed", logger.WorkspaceID(ws), logger.Error(err))
		httpserver.WriteJSON(w, code, errorResponse{Error: err.Error()})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func workspaceParam(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	ws, err := uuid.Parse(chi.URLParam(r, "workspaceID"))
	if err != nil || ws == uuid.Nil {
		httpserver.WriteJSON(w, http.StatusBadRequest, errorResponse{Error: entitlement.ErrMissingWorkspaceID.Error()})
		return uuid.Nil, false
	}
	return ws, true
}
