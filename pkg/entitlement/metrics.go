package entitlement

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Resolution sources reported in metrics.
const (
	sourceCatalog = "catalog"
	sourceCache   = "cache"
	sourceStore   = "store"
)

type metrics struct {
	resolutions   *prometheus.CounterVec
	storeErrors   prometheus.Counter
	invalidations prometheus.Counter
	invalidated   prometheus.Counter
}

func newMetrics(reg prometheus.Registerer, cache *Cache) *metrics {
	m := &metrics{
		resolutions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "entitlement",
			Name:      "resolutions_total",
			Help:      "Entitlement resolutions by outcome, denial reason and source.",
		}, []string{"outcome", "reason", "source"}),
		storeErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "entitlement",
			Name:      "billing_store_errors_total",
			Help:      "Billing state reads that failed.",
		}),
		invalidations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "entitlement",
			Subsystem: "cache",
			Name:      "invalidations_total",
			Help:      "Workspace invalidation calls.",
		}),
		invalidated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "entitlement",
			Subsystem: "cache",
			Name:      "invalidated_entries_total",
			Help:      "Cache entries dropped by workspace invalidation.",
		}),
	}

	stat := func(name, help string, pick func(CacheStats) int) prometheus.GaugeFunc {
		return prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: "entitlement",
			Subsystem: "cache",
			Name:      name,
			Help:      help,
		}, func() float64 { return float64(pick(cache.Stats())) })
	}

	reg.MustRegister(
		m.resolutions,
		m.storeErrors,
		m.invalidations,
		m.invalidated,
		stat("entries", "Entries held by the cache.", func(s CacheStats) int { return s.Size }),
		stat("valid_entries", "Unexpired cache entries.", func(s CacheStats) int { return s.ValidEntries }),
		stat("expired_entries", "Expired entries awaiting eviction.", func(s CacheStats) int { return s.ExpiredEntries }),
	)
	return m
}

// A nil *metrics records nothing.

func (m *metrics) resolved(res Result, source string) {
	if m == nil {
		return
	}
	outcome := "allowed"
	if !res.Enabled {
		outcome = "denied"
	}
	m.resolutions.WithLabelValues(outcome, string(res.Reason), source).Inc()
}

func (m *metrics) storeError() {
	if m == nil {
		return
	}
	m.storeErrors.Inc()
}

func (m *metrics) invalidatedWorkspace(n int) {
	if m == nil {
		return
	}
	m.invalidations.Inc()
	m.invalidated.Add(float64(n))
}
