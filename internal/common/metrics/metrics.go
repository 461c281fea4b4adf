// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	WorkerJobsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_completed_total",
			Help: "Total number of jobs completed by worker",
		},
		[]string{"task_type"},
	)

	WorkerJobsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_failed_total",
			Help: "Total number of jobs failed by worker",
		},
		[]string{"task_type", "error_code"},
	)

	WorkerJobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "worker_job_duration_seconds",
			Help: "Duration of job processing in seconds",
		},
		[]string{"task_type"},
	)

	WorkerJobsActive = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "worker_jobs_active",
			Help: "Number of active jobs per worker",
		},
		[]string{"task_type"},
	)

	RemnawaveRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "remnawave_requests_total",
			Help: "Remnawave API requests by route and outcome",
		},
		[]string{"route", "outcome"},
	)

	RemnawaveRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "remnawave_request_duration_seconds",
			Help:    "Remnawave API request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route"},
	)

	RemnawaveRecords = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "remnawave_records_total",
			Help: "Batch records processed by outcome error code (ok on success)",
		},
		[]string{"code"},
	)
)

// Request outcomes.
const (
	OutcomeSuccess  = "success"
	OutcomeNotFound = "not_found"
	OutcomeError    = "error"
)
