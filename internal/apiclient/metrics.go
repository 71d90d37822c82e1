package apiclient

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	backendRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "taskboard_backend_requests_total",
			Help: "Requests sent to the task backend",
		},
		[]string{"method", "status"},
	)

	backendDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "taskboard_backend_request_duration_seconds",
			Help:    "Latency of task backend requests in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.3, 1, 3},
		},
		[]string{"method"},
	)
)

func observe(method, status string, start time.Time) {
	backendRequests.WithLabelValues(method, status).Inc()
	backendDuration.WithLabelValues(method).Observe(time.Since(start).Seconds())
}
