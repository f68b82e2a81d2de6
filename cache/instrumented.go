package cache

import (
	"github.com/prometheus/client_golang/prometheus"
)

// instrumentation records the Prometheus metrics of one cache. Counters are
// driven by event subscriptions that never ask for decoded values, so
// metrics add no codec work to Get.
type instrumentation struct {
	group     string
	collector *stateCollector
}

func instrument[K comparable, V any](c *Cache[K, V], group string) *instrumentation {
	count := func(counter *prometheus.CounterVec) Handler[K, V] {
		inc := counter.WithLabelValues(group)
		return func(Event[K, V]) error {
			inc.Inc()
			return nil
		}
	}
	c.events.subscribe(EventHit, count(HitsTotal), false)
	c.events.subscribe(EventMiss, count(MissesTotal), false)
	c.events.subscribe(EventStale, count(StaleTotal), false)
	c.events.subscribe(EventEvict, count(EvictionsTotal), false)

	return &instrumentation{
		group:     group,
		collector: registerStateCollector(group, c.Count, c.Size),
	}
}

func (i *instrumentation) close() {
	unregisterStateCollector(i.group, i.collector)
}
