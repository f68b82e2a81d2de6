package cache

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Cache-level Prometheus metrics. All metrics carry a "cache" label whose value
// is Options.Group, so several caches in one process stay distinguishable.
var (
	// HitsTotal counts Get calls that found a fresh entry.
	HitsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_hits_total",
			Help: "Total number of cache hits.",
		},
		[]string{"cache"},
	)

	// MissesTotal counts Get calls that found no fresh entry.
	MissesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_misses_total",
			Help: "Total number of cache misses.",
		},
		[]string{"cache"},
	)

	// StaleTotal counts expired entries discovered and removed by Get.
	StaleTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_stale_total",
			Help: "Total number of expired entries removed on access.",
		},
		[]string{"cache"},
	)

	// EvictionsTotal counts entries evicted to restore capacity.
	EvictionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_evictions_total",
			Help: "Total number of entries evicted from the cache.",
		},
		[]string{"cache"},
	)
)

func init() {
	prometheus.MustRegister(
		HitsTotal,
		MissesTotal,
		StaleTotal,
		EvictionsTotal,
	)
}

// stateCollector reports the resident entry count and total weight of one
// cache group, read at scrape time.
type stateCollector struct {
	entries *prometheus.Desc
	weight  *prometheus.Desc
	count   func() int
	size    func() int64
}

func (c *stateCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.entries
	ch <- c.weight
}

func (c *stateCollector) Collect(ch chan<- prometheus.Metric) {
	ch <- prometheus.MustNewConstMetric(c.entries, prometheus.GaugeValue, float64(c.count()))
	ch <- prometheus.MustNewConstMetric(c.weight, prometheus.GaugeValue, float64(c.size()))
}

var (
	stateCollectorMu sync.Mutex
	stateCollectors  = make(map[string]*stateCollector)
	// stateReg is the registerer used for state collectors. Tests swap in an
	// isolated registry.
	stateReg prometheus.Registerer = prometheus.DefaultRegisterer
)

// registerStateCollector registers the state collector of group, replacing
// any collector a previous cache registered under the same group.
func registerStateCollector(group string, count func() int, size func() int64) *stateCollector {
	labels := prometheus.Labels{"cache": group}
	c := &stateCollector{
		entries: prometheus.NewDesc("cache_entries", "Current number of entries in the cache.", nil, labels),
		weight:  prometheus.NewDesc("cache_weight", "Current total weight of the entries in the cache.", nil, labels),
		count:   count,
		size:    size,
	}

	stateCollectorMu.Lock()
	defer stateCollectorMu.Unlock()

	if old, ok := stateCollectors[group]; ok {
		stateReg.Unregister(old)
	}
	stateCollectors[group] = c
	_ = stateReg.Register(c)
	return c
}

// unregisterStateCollector removes c if it is still the collector of group.
func unregisterStateCollector(group string, c *stateCollector) {
	stateCollectorMu.Lock()
	defer stateCollectorMu.Unlock()

	if current, ok := stateCollectors[group]; ok && current == c {
		stateReg.Unregister(c)
		delete(stateCollectors, group)
	}
}
