package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "crm_http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "route", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "crm_http_request_duration_seconds",
		Help:    "Duration of HTTP requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route", "status"})

	cacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "crm_response_cache_lookups_total",
		Help: "Response cache lookups by entity and result",
	}, []string{"entity", "result"})

	cacheInvalidations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "crm_response_cache_invalidations_total",
		Help: "Response cache invalidations by entity",
	}, []string{"entity"})

	codesGenerated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "crm_codes_generated_total",
		Help: "Generated entity codes by prefix and source",
	}, []string{"prefix", "source"})

	codeConflicts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "crm_code_conflicts_total",
		Help: "Creates retried because a generated code was already taken",
	}, []string{"prefix"})

	jobRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "crm_job_runs_total",
		Help: "Scheduled job runs by job and result",
	}, []string{"job", "result"})
)

// ObserveHTTPRequest records an HTTP request metric
func ObserveHTTPRequest(method, route, status string, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, route, status).Inc()
	httpRequestDuration.WithLabelValues(method, route, status).Observe(duration.Seconds())
}

// ObserveCacheLookup records a response cache hit or miss
func ObserveCacheLookup(entity string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	cacheLookups.WithLabelValues(entity, result).Inc()
}

// ObserveCacheInvalidation records a response cache invalidation
func ObserveCacheInvalidation(entity string) {
	cacheInvalidations.WithLabelValues(entity).Inc()
}

// ObserveCodeGenerated records where a generated code came from: sequence, latest or fallback
func ObserveCodeGenerated(prefix, source string) {
	codesGenerated.WithLabelValues(prefix, source).Inc()
}

// ObserveCodeConflict records a create retried after a duplicate code
func ObserveCodeConflict(prefix string) {
	codeConflicts.WithLabelValues(prefix).Inc()
}

// ObserveJobRun records the outcome of a scheduled job run
func ObserveJobRun(job, result string) {
	jobRuns.WithLabelValues(job, result).Inc()
}

// Handler serves the default registry
func Handler() http.Handler {
	return promhttp.Handler()
}
