package observability

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// ModuleMetrics records RPC module activity: request counts by outcome and
// handler latency.
type ModuleMetrics struct {
	requests *prometheus.CounterVec
	errors   *prometheus.CounterVec
	latency  *prometheus.HistogramVec
}

var (
	moduleMetricsOnce sync.Once
	moduleRegistry    *ModuleMetrics
)

// Metrics returns the lazily-initialised module metrics registry used to
// record JSON-RPC module activity.
func Metrics() *ModuleMetrics {
	moduleMetricsOnce.Do(func() {
		moduleRegistry = &ModuleMetrics{
			requests: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "hashup",
				Subsystem: "module",
				Name:      "requests_total",
				Help:      "Total JSON-RPC module requests segmented by module and method.",
			}, []string{"module", "method", "outcome"}),
			errors: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "hashup",
				Subsystem: "module",
				Name:      "errors_total",
				Help:      "Total JSON-RPC module errors segmented by module and method.",
			}, []string{"module", "method"}),
			latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
				Namespace: "hashup",
				Subsystem: "module",
				Name:      "request_duration_seconds",
				Help:      "Latency distribution for JSON-RPC module handlers.",
				Buckets:   prometheus.DefBuckets,
			}, []string{"module", "method"}),
		}
		prometheus.MustRegister(
			moduleRegistry.requests,
			moduleRegistry.errors,
			moduleRegistry.latency,
		)
	})
	return moduleRegistry
}

// Observe records a completed handler invocation.
func (m *ModuleMetrics) Observe(module, method string, start time.Time, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
		m.errors.WithLabelValues(module, method).Inc()
	}
	m.requests.WithLabelValues(module, method, outcome).Inc()
	m.latency.WithLabelValues(module, method).Observe(time.Since(start).Seconds())
}
