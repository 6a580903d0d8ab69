package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// JobsTotal counts finished jobs by operation and terminal status.
	JobsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "esphomed_jobs_total",
			Help: "Total number of finished esphome jobs",
		},
		[]string{"operation", "status"},
	)

	// JobDuration tracks job wall-clock duration in seconds.
	JobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "esphomed_job_duration_seconds",
			Help:    "Duration of esphome jobs in seconds",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 13), // 100ms to ~13m
		},
		[]string{"operation"},
	)

	// WorkersActive tracks the number of workers currently running a job.
	WorkersActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "esphomed_workers_active",
			Help: "Number of worker goroutines currently executing a job",
		},
	)

	// QueueDepth tracks the number of jobs waiting in the runner queue.
	QueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "esphomed_queue_depth",
			Help: "Number of jobs waiting in the runner queue",
		},
	)
)
