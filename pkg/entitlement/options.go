package entitlement

import (
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/dmitrymomot/entitlekit/pkg/audit"
	"github.com/dmitrymomot/entitlekit/pkg/tier"
)

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithCache sets the cache instance. Useful to share one cache with other
// components or to inspect it in tests.
func WithCache(c *Cache) ServiceOption {
	return func(s *Service) {
		if c != nil {
			s.cache = c
		}
	}
}

// WithCacheTTL sets the lifespan of cached decisions. Zero disables caching.
func WithCacheTTL(ttl time.Duration) ServiceOption {
	return func(s *Service) {
		if ttl >= 0 {
			s.ttl = ttl
		}
	}
}

// WithTrialTier sets the tier granted during a running trial.
func WithTrialTier(t tier.Tier) ServiceOption {
	return func(s *Service) {
		if t.Valid() {
			s.trialTier = t
		}
	}
}

// WithClock overrides the time source for trial checks and timestamps.
// The default cache created by the service uses the same clock.
func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithAuditSink sets where decisions are reported.
func WithAuditSink(sink audit.Sink) ServiceOption {
	return func(s *Service) {
		s.audit = sink
	}
}

func WithLogger(log *slog.Logger) ServiceOption {
	return func(s *Service) {
		if log != nil {
			s.logger = log
		}
	}
}

// WithMetrics registers service metrics with reg.
func WithMetrics(reg prometheus.Registerer) ServiceOption {
	return func(s *Service) {
		s.registerer = reg
	}
}
