package metrics

import "github.com/prometheus/client_golang/prometheus"

// Dispatch Prometheus metrics.
var (
	DispatchTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "polyseek",
			Name:      "dispatch_total",
			Help:      "Dispatch units by service and final status",
		},
		[]string{"service", "status"},
	)

	UpstreamLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "polyseek",
			Name:      "upstream_latency_seconds",
			Help:      "Upstream exchange latency for successful units",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"service"},
	)

	ResultsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "polyseek",
			Name:      "results_total",
			Help:      "Partial results delivered by service",
		},
		[]string{"service"},
	)

	SuspendedServices = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "polyseek",
			Name:      "suspended_services",
			Help:      "Services currently suspended by the health tracker",
		},
	)

	CacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "polyseek",
			Name:      "result_cache_total",
			Help:      "Result cache hits and misses",
		},
		[]string{"result"}, // "hit" / "miss"
	)
)

var dispatchMetricsRegistered bool

// RegisterDispatchMetrics registers Prometheus dispatch metrics. Must be called once from main.
func RegisterDispatchMetrics() {
	if dispatchMetricsRegistered {
		return
	}
	prometheus.MustRegister(DispatchTotal)
	prometheus.MustRegister(UpstreamLatency)
	prometheus.MustRegister(ResultsTotal)
	prometheus.MustRegister(SuspendedServices)
	prometheus.MustRegister(CacheTotal)
	dispatchMetricsRegistered = true
}
