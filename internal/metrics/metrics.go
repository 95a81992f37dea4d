package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SubmissionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crucible_submissions_total",
			Help: "Total number of candidate submissions executed",
		},
		[]string{"language", "status"},
	)

	SubmissionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "crucible_submission_duration_ms",
			Help:    "End-to-end submission duration in milliseconds",
			Buckets: []float64{50, 100, 250, 500, 1000, 2500, 5000, 10000, 30000},
		},
		[]string{"language"},
	)

	TestCasesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crucible_test_cases_total",
			Help: "Total number of test cases evaluated",
		},
		[]string{"language", "verdict"}, // verdict: "passed", "failed"
	)

	QueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "crucible_queue_depth",
			Help: "Current number of jobs in the queue",
		},
	)

	ActiveWorkers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "crucible_active_workers",
			Help: "Number of workers currently processing jobs",
		},
	)

	UnitCreationTime = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "crucible_unit_creation_ms",
			Help:    "Time to create and start an isolated execution unit",
			Buckets: []float64{50, 100, 200, 500, 1000, 2000},
		},
	)

	DegradedExecutions = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "crucible_degraded_executions_total",
			Help: "Submissions executed through the insecure fallback path",
		},
	)

	RateLimitHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "crucible_rate_limit_hits_total",
			Help: "Total number of requests rejected by rate limiter",
		},
	)
)
