package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce            sync.Once
	apiRequestsTotal        *prometheus.CounterVec
	apiLatencySeconds       *prometheus.HistogramVec
	apiErrorsTotal          *prometheus.CounterVec
	gradingRecordedTotal    *prometheus.CounterVec
	finalGradeRecomputation prometheus.Counter
	reportCacheLookups      *prometheus.CounterVec
)

// RegisterMetrics initialises the Prometheus collectors exported by the API.
func RegisterMetrics() {
	registerOnce.Do(func() {
		apiRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests served.",
		}, []string{"method", "route", "status"})

		apiLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "api_latency_seconds",
			Help:    "Latency distribution for API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		apiErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "api_errors_total",
			Help: "Total number of error responses returned by API endpoints.",
		}, []string{"method", "route", "status"})

		gradingRecordedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "grading_recorded_total",
			Help: "Grading attempts partitioned by outcome.",
		}, []string{"outcome"})

		finalGradeRecomputation = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "final_grade_recomputations_total",
			Help: "Number of final grades recomputed after a grade entry changed.",
		})

		reportCacheLookups = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "report_cache_lookups_total",
			Help: "Report cache lookups partitioned by result.",
		}, []string{"result"})

		prometheus.MustRegister(
			apiRequestsTotal,
			apiLatencySeconds,
			apiErrorsTotal,
			gradingRecordedTotal,
			finalGradeRecomputation,
			reportCacheLookups,
		)
	})
}

// APIRequests exposes the counter for API requests.
func APIRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return apiRequestsTotal
}

// APILatency exposes the latency histogram for API requests.
func APILatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return apiLatencySeconds
}

// APIErrors exposes the counter for API error responses.
func APIErrors() *prometheus.CounterVec {
	RegisterMetrics()
	return apiErrorsTotal
}

// GradingRecorded exposes the grading outcome counter.
func GradingRecorded() *prometheus.CounterVec {
	RegisterMetrics()
	return gradingRecordedTotal
}

// FinalGradeRecomputations exposes the recomputation counter.
func FinalGradeRecomputations() prometheus.Counter {
	RegisterMetrics()
	return finalGradeRecomputation
}

// ReportCacheLookups exposes the report cache hit/miss counter.
func ReportCacheLookups() *prometheus.CounterVec {
	RegisterMetrics()
	return reportCacheLookups
}
