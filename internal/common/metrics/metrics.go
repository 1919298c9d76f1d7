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

	MatchingRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "matching_runs_total",
			Help: "Total number of matching runs by outcome",
		},
		[]string{"status", "dry_run"},
	)

	MatchingRunDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "matching_run_duration_seconds",
			Help:    "End to end duration of a matching run in seconds",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 14),
		},
		[]string{"status"},
	)

	MatchingMatchesPerRun = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "matching_matches_per_run",
			Help:    "Number of matches produced by a single run",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12),
		},
	)

	MatchingUnmatchedPerRun = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "matching_unmatched_per_run",
			Help:    "Number of participants left unmatched by a single run",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12),
		},
	)
)
