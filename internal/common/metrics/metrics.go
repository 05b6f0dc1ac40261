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

	ReceiptStatusTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "receipt_status_transitions_total",
			Help: "Receipt request status changes by target status and actor role",
		},
		[]string{"status", "role"},
	)

	FastRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "receipt_fast_requests_total",
			Help: "Fast requests by outcome (created, reminder)",
		},
		[]string{"outcome"},
	)

	NotificationsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifications_sent_total",
			Help: "Notification deliveries by channel and result",
		},
		[]string{"channel", "result"},
	)

	PushBatchSize = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "push_batch_recipients",
			Help:    "Number of device ids per push gateway call",
			Buckets: []float64{1, 10, 100, 1000, 5000, 15000},
		},
	)

	RealtimePublishes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "realtime_publishes_total",
			Help: "Realtime events published by event name and result",
		},
		[]string{"event", "result"},
	)

	SubscriptionCacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "subscription_cache_lookups_total",
			Help: "School subscription cache lookups by result (hit, miss)",
		},
		[]string{"result"},
	)
)
