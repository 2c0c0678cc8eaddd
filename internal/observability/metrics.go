package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metric names.
const (
	MetricRunsTotal          = "ranker_runs_total"
	MetricRunDuration        = "ranker_run_duration_seconds"
	MetricWeakMatchTotal     = "ranker_weak_match_total"
	MetricPoolSize           = "ranker_pool_size"
	MetricStrongMatches      = "ranker_strong_matches"
	MetricEmbeddingCacheHits = "ranker_embedding_cache_lookups_total"
)

// Cache lookup results.
const (
	CacheHit  = "hit"
	CacheMiss = "miss"
)

// Metrics contains Prometheus metrics for ranking runs.
// All operations are thread-safe.
type Metrics struct {
	runsTotal     *prometheus.CounterVec
	runDuration   prometheus.Histogram
	weakMatches   prometheus.Counter
	poolSize      prometheus.Histogram
	strongMatches prometheus.Histogram
	cacheLookups  *prometheus.CounterVec
}

// NewMetrics creates the collectors. They are not registered; call Register.
func NewMetrics() *Metrics {
	return &Metrics{
		runsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: MetricRunsTotal,
				Help: "Total number of ranking runs by outcome",
			},
			[]string{"outcome"},
		),
		runDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    MetricRunDuration,
				Help:    "Histogram of ranking run duration in seconds",
				Buckets: []float64{0.1, 0.25, 0.5, 1.0, 2.0, 5.0, 10.0, 30.0, 60.0},
			},
		),
		weakMatches: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: MetricWeakMatchTotal,
				Help: "Total number of runs where no document cleared the absolute threshold",
			},
		),
		poolSize: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    MetricPoolSize,
				Help:    "Number of candidate documents per run",
				Buckets: prometheus.ExponentialBuckets(1, 2, 12),
			},
		),
		strongMatches: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    MetricStrongMatches,
				Help:    "Number of documents per run that cleared the absolute threshold",
				Buckets: prometheus.ExponentialBuckets(1, 2, 12),
			},
		),
		cacheLookups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: MetricEmbeddingCacheHits,
				Help: "Embedding cache lookups by result",
			},
			[]string{"result"},
		),
	}
}

// Register registers all metrics with the given registry.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	for _, c := range m.Collectors() {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// ObserveRun records one ranking run.
func (m *Metrics) ObserveRun(outcome string, duration time.Duration, poolSize, kept int, weakMatch bool) {
	m.runsTotal.WithLabelValues(outcome).Inc()
	m.runDuration.Observe(duration.Seconds())
	if poolSize > 0 {
		m.poolSize.Observe(float64(poolSize))
		m.strongMatches.Observe(float64(kept))
	}
	if weakMatch {
		m.weakMatches.Inc()
	}
}

// ObserveCacheLookups adds hit and miss counts from one cache pass.
func (m *Metrics) ObserveCacheLookups(hits, misses int) {
	m.cacheLookups.WithLabelValues(CacheHit).Add(float64(hits))
	m.cacheLookups.WithLabelValues(CacheMiss).Add(float64(misses))
}

// Collectors returns all Prometheus collectors.
func (m *Metrics) Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.runsTotal,
		m.runDuration,
		m.weakMatches,
		m.poolSize,
		m.strongMatches,
		m.cacheLookups,
	}
}
