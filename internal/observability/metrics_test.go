package observability

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Register(t *testing.T) {
	m := NewMetrics()
	reg := prometheus.NewRegistry()
	require.NoError(t, m.Register(reg))

	// second registration of the same collectors fails
	assert.Error(t, m.Register(reg))
}

func TestMetrics_ObserveRun(t *testing.T) {
	m := NewMetrics()

	m.ObserveRun("ok", 2*time.Second, 10, 3, false)
	m.ObserveRun("ok", time.Second, 4, 0, true)
	m.ObserveRun("error", time.Millisecond, 4, 0, false)
	m.ObserveRun("empty", 0, 0, 0, false)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.runsTotal.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.runsTotal.WithLabelValues("error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.weakMatches))
}

func TestMetrics_ObserveCacheLookups(t *testing.T) {
	m := NewMetrics()
	m.ObserveCacheLookups(3, 2)
	m.ObserveCacheLookups(1, 0)

	assert.Equal(t, 4.0, testutil.ToFloat64(m.cacheLookups.WithLabelValues(CacheHit)))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.cacheLookups.WithLabelValues(CacheMiss)))
}

func TestMetrics_Gather(t *testing.T) {
	m := NewMetrics()
	reg := prometheus.NewRegistry()
	require.NoError(t, m.Register(reg))
	m.ObserveRun("ok", time.Second, 5, 2, true)
	m.ObserveCacheLookups(1, 1)

	families, err := reg.Gather()
	require.NoError(t, err)

	names := make(map[string]bool)
	for _, f := range families {
		names[f.GetName()] = true
	}
	for _, want := range []string{MetricRunsTotal, MetricRunDuration, MetricWeakMatchTotal, MetricPoolSize, MetricStrongMatches, MetricEmbeddingCacheHits} {
		assert.True(t, names[want], "missing %s", want)
	}
}
