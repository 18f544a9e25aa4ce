package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

var (
	// Registry is the dedicated Prometheus registry served on /metrics.
	Registry = prometheus.NewRegistry()

	// ProviderCalls counts distance/route calls by operation and estimate source.
	ProviderCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "provider_calls_total", Help: "Distance provider calls by op and source."},
		[]string{"op", "source"},
	)
	// CacheLookups counts distance cache hits and misses.
	CacheLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "distance_cache_lookups_total", Help: "Distance cache lookups by result."},
		[]string{"result"},
	)
	RunDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Name: "optimization_run_duration_seconds", Help: "Run pipeline duration in seconds.", Buckets: prometheus.DefBuckets},
		[]string{"trigger"},
	)
	RunViolations = prometheus.NewHistogram(
		prometheus.HistogramOpts{Name: "optimization_run_violations", Help: "Violated assignments per run.", Buckets: []float64{0, 1, 2, 5, 10, 20, 50}},
	)
	UnassignedVendors = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "unassigned_vendors_total", Help: "Vendors left unassigned across runs."},
	)
	// HTTPRequests counts requests by method, path, and status
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "http_requests_total", Help: "Total HTTP requests."},
		[]string{"method", "path", "status"},
	)
	HTTPDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Name: "http_request_duration_seconds", Help: "HTTP request duration in seconds.", Buckets: prometheus.DefBuckets},
		[]string{"method", "path"},
	)
)

var regOnce sync.Once

// Register adds the collectors to Registry once.
func Register() {
	regOnce.Do(func() {
		Registry.MustRegister(ProviderCalls)
		Registry.MustRegister(CacheLookups)
		Registry.MustRegister(RunDuration)
		Registry.MustRegister(RunViolations)
		Registry.MustRegister(UnassignedVendors)
		Registry.MustRegister(HTTPRequests)
		Registry.MustRegister(HTTPDuration)
		Registry.MustRegister(collectors.NewGoCollector())
		Registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	})
}
