package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HttpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	ResponseTimeHistogram = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_response_time_seconds",
			Help:    "Histogram of response times",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	TasksStarted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tasks_started_total",
			Help: "Task assignments started",
		},
	)

	VerificationsResolved = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "verifications_resolved_total",
			Help: "Verifications resolved by admins",
		},
		[]string{"result"},
	)

	BonusesGranted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bonuses_granted_total",
			Help: "One-time bonuses paid out",
		},
		[]string{"kind"},
	)

	WithdrawalsRequested = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "withdrawals_requested_total",
			Help: "Withdrawal requests created",
		},
	)
)
