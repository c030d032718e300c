package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SubmissionsTotal counts submissions to the colorization service by outcome.
	SubmissionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chroma_submissions_total",
			Help: "Total number of submissions to the colorization service",
		},
		[]string{"outcome"},
	)

	// PollAttemptsTotal counts progress queries by outcome (ok, transient).
	PollAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chroma_poll_attempts_total",
			Help: "Total number of progress queries issued",
		},
		[]string{"outcome"},
	)

	// JobsFinishedTotal counts jobs by terminal status.
	JobsFinishedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chroma_jobs_finished_total",
			Help: "Total number of jobs that reached a terminal state",
		},
		[]string{"status"},
	)

	// ErrorEventsTotal counts notification events by error kind.
	ErrorEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chroma_error_events_total",
			Help: "Total number of classified error events reported",
		},
		[]string{"kind"},
	)

	// JobDuration tracks time from submission to terminal state in seconds.
	JobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "chroma_job_duration_seconds",
			Help:    "Time from submission to terminal state in seconds",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 10), // 500ms to ~4m
		},
		[]string{"status"},
	)

	// PollsActive tracks the number of polling loops currently running.
	PollsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "chroma_polls_active",
			Help: "Number of polling loops currently running",
		},
	)

	// QueueDepth tracks jobs waiting for a pool worker.
	QueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "chroma_queue_depth",
			Help: "Number of submitted jobs waiting for a polling worker",
		},
	)
)
