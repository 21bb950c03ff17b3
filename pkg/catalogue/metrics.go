package catalogue

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for catalogue requests.
var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cdli_requests_total",
		Help: "Total catalogue requests by method and status",
	}, []string{"method", "status"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "cdli_request_duration_seconds",
		Help:    "Catalogue request duration in seconds by method",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
	}, []string{"method"})

	retriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cdli_retries_total",
		Help: "Total number of retry attempts by error class",
	}, []string{"error_class"})

	retryExhaustedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cdli_retry_exhausted_total",
		Help: "Total number of times retry attempts were exhausted by error class",
	}, []string{"error_class"})

	pagesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cdli_pages_total",
		Help: "Total pages yielded by format",
	}, []string{"format"})

	pageBytesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cdli_page_bytes_total",
		Help: "Total page bytes yielded by format",
	}, []string{"format"})
)
