package remote

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// cacheMetrics exposes document-cache statistics as Prometheus metrics.
type cacheMetrics struct {
	hits      prometheus.Counter
	misses    prometheus.Counter
	sets      prometheus.Counter
	evictions prometheus.Counter
	size      prometheus.Gauge
}

// WithMetrics registers Prometheus metrics for the cache under the given
// prefix (e.g. "semld_context_cache"). Registration failures surface from
// the cache constructor.
func WithMetrics(registerer prometheus.Registerer, prefix string) LRUCacheOption {
	return func(o *lruOptions) {
		m, err := newCacheMetrics(registerer, prefix)
		if err != nil {
			o.metricsErr = err
			return
		}
		o.metrics = m
	}
}

func newCacheMetrics(registerer prometheus.Registerer, prefix string) (*cacheMetrics, error) {
	m := &cacheMetrics{
		hits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: prefix + "_hits_total",
			Help: "Total number of document cache hits",
		}),
		misses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: prefix + "_misses_total",
			Help: "Total number of document cache misses",
		}),
		sets: prometheus.NewCounter(prometheus.CounterOpts{
			Name: prefix + "_sets_total",
			Help: "Total number of document cache stores",
		}),
		evictions: prometheus.NewCounter(prometheus.CounterOpts{
			Name: prefix + "_evictions_total",
			Help: "Total number of document cache evictions",
		}),
		size: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: prefix + "_size",
			Help: "Current number of cached documents",
		}),
	}

	for _, collector := range []prometheus.Collector{m.hits, m.misses, m.sets, m.evictions, m.size} {
		if err := registerer.Register(collector); err != nil {
			return nil, fmt.Errorf("registering cache metrics %q: %w", prefix, err)
		}
	}
	return m, nil
}
