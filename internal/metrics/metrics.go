package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Load generator metrics
var (
	LoadOperationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "loadgen_operations_total",
			Help: "Total number of cache operations issued by the load generator.",
		},
		[]string{"phase"},
	)

	LoadPhaseDurationSeconds = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "loadgen_phase_duration_seconds",
			Help: "Wall time of the last run of each load generator phase.",
		},
		[]string{"phase"},
	)

	LoadErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "loadgen_errors_total",
			Help: "Total number of cache operations that returned an error.",
		},
		[]string{"phase"},
	)
)

func init() {
	prometheus.MustRegister(
		LoadOperationsTotal,
		LoadPhaseDurationSeconds,
		LoadErrorsTotal,
	)
}
