// Package metrics exports cache activity as Prometheus metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const subsystem = "cache"

// CacheCollector implements cache.Observer.
type CacheCollector struct {
	inserts    prometheus.Counter
	duplicates prometheus.Counter
	evictions  prometheus.Counter
	hits       prometheus.Counter
	misses     prometheus.Counter
	entries    prometheus.Gauge
}

// NewCacheCollector registers the cache metrics with reg. A nil reg leaves
// the metrics unregistered.
func NewCacheCollector(namespace string, reg prometheus.Registerer) *CacheCollector {
	factory := promauto.With(reg)
	return &CacheCollector{
		inserts: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "inserts_total",
			Help:      "Names admitted into the cache",
		}),
		duplicates: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "duplicates_total",
			Help:      "Updates ignored because the name was already cached",
		}),
		evictions: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "evictions_total",
			Help:      "Oldest entries evicted to make room",
		}),
		hits: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "hits_total",
			Help:      "Resolve calls that found the name",
		}),
		misses: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "misses_total",
			Help:      "Resolve calls that did not find the name",
		}),
		entries: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "entries",
			Help:      "Entries held after the latest insert",
		}),
	}
}

func (c *CacheCollector) Inserted(size int) {
	c.inserts.Inc()
	c.entries.Set(float64(size))
}

func (c *CacheCollector) Duplicate() { c.duplicates.Inc() }
func (c *CacheCollector) Evicted()   { c.evictions.Inc() }
func (c *CacheCollector) Hit()       { c.hits.Inc() }
func (c *CacheCollector) Miss()      { c.misses.Inc() }
