package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Fetch outcomes recorded by the orchestrator.
const (
	OutcomeApplied  = "applied"
	OutcomeStale    = "stale"
	OutcomeError    = "error"
	OutcomeCanceled = "canceled"
)

// Cache lookup results.
const (
	CacheHit   = "hit"
	CacheMiss  = "miss"
	CacheError = "error"
)

// BrowseMetrics instruments the filter pipeline: upstream fetches, the response cache,
// live browse sessions and the product service circuit breaker.
type BrowseMetrics struct {
	fetchDuration  *prometheus.HistogramVec
	fetchOutcomes  *prometheus.CounterVec
	cacheLookups   *prometheus.CounterVec
	activeSessions prometheus.Gauge
	breakerState   *prometheus.GaugeVec
}

// NewBrowseMetrics registers the browse metrics on the provided registerer. A nil registerer
// yields a no-op recorder.
func NewBrowseMetrics(reg prometheus.Registerer) *BrowseMetrics {
	if reg == nil {
		return &BrowseMetrics{}
	}
	fetchDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "browse_fetch_duration_seconds",
		Help:    "Duration of filtered product fetches in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"outcome"})
	fetchOutcomes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "browse_fetch_total",
		Help: "Filtered product fetches by outcome.",
	}, []string{"outcome"})
	cacheLookups := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "browse_cache_lookups_total",
		Help: "Product service cache lookups by kind and result.",
	}, []string{"kind", "result"})
	activeSessions := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "browse_active_sessions",
		Help: "Browse sessions currently held in memory.",
	})
	breakerState := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "product_service_breaker_state",
		Help: "Circuit breaker state (0 closed, 1 half-open, 2 open).",
	}, []string{"breaker"})
	reg.MustRegister(fetchDuration, fetchOutcomes, cacheLookups, activeSessions, breakerState)
	return &BrowseMetrics{
		fetchDuration:  fetchDuration,
		fetchOutcomes:  fetchOutcomes,
		cacheLookups:   cacheLookups,
		activeSessions: activeSessions,
		breakerState:   breakerState,
	}
}

// ObserveFetch records one orchestrated fetch.
func (b *BrowseMetrics) ObserveFetch(outcome string, duration time.Duration) {
	if b == nil || b.fetchOutcomes == nil {
		return
	}
	outcome = normalizeLabel(outcome)
	b.fetchOutcomes.WithLabelValues(outcome).Inc()
	b.fetchDuration.WithLabelValues(outcome).Observe(duration.Seconds())
}

// IncCacheLookup counts a cache lookup for the given kind (filter, facets, product).
func (b *BrowseMetrics) IncCacheLookup(kind, result string) {
	if b == nil || b.cacheLookups == nil {
		return
	}
	b.cacheLookups.WithLabelValues(normalizeLabel(kind), normalizeLabel(result)).Inc()
}

// SetActiveSessions publishes the number of live browse sessions.
func (b *BrowseMetrics) SetActiveSessions(n int) {
	if b == nil || b.activeSessions == nil {
		return
	}
	b.activeSessions.Set(float64(n))
}

// SetBreakerState publishes the numeric breaker state.
func (b *BrowseMetrics) SetBreakerState(name string, state int) {
	if b == nil || b.breakerState == nil {
		return
	}
	b.breakerState.WithLabelValues(normalizeLabel(name)).Set(float64(state))
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
