package metrics

import (
	"regexp"
	"strconv"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// RequestDuration tracks HTTP request duration in seconds by method, path, status.
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	// RequestTotal counts HTTP requests by method, path, status.
	RequestTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// ScansTriggered counts scan triggers by provider and outcome (success, failed).
	ScansTriggered = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scheduled_scans_triggered_total",
			Help: "Total number of scan triggers by provider and outcome",
		},
		[]string{"provider", "outcome"},
	)

	// SchedulerTicks counts scheduler tick executions.
	SchedulerTicks = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "scheduler_ticks_total",
			Help: "Total number of scheduler ticks executed",
		},
	)

	// DueAccounts counts accounts found due, by provider.
	DueAccounts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scheduler_due_accounts_total",
			Help: "Total number of due accounts processed by provider",
		},
		[]string{"provider"},
	)

	// NotificationsSent counts channel sends by channel and outcome (sent, failed, skipped).
	NotificationsSent = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifications_total",
			Help: "Total number of notification channel sends by channel and outcome",
		},
		[]string{"channel", "outcome"},
	)
)

var (
	numericPathSegment = regexp.MustCompile(`/[0-9]+(/|$)`)
	initOnce           sync.Once
)

func init() {
	initOnce.Do(func() {
		prometheus.MustRegister(RequestDuration, RequestTotal,
			ScansTriggered, SchedulerTicks, DueAccounts, NotificationsSent)
	})
}

// NormalizePath reduces cardinality by replacing numeric path segments with {id}.
// E.g. /v1/accounts/aws/123 -> /v1/accounts/aws/{id}.
func NormalizePath(path string) string {
	return numericPathSegment.ReplaceAllString(path, "/{id}$1")
}

// RecordRequest records duration and count for an HTTP request. Call from middleware with method, path, statusCode, duration.
func RecordRequest(method, path string, statusCode int, durationSeconds float64) {
	path = NormalizePath(path)
	status := strconv.Itoa(statusCode)
	RequestDuration.WithLabelValues(method, path, status).Observe(durationSeconds)
	RequestTotal.WithLabelValues(method, path, status).Inc()
}

// IncScansTriggered increments the scan trigger counter.
func IncScansTriggered(provider, outcome string) {
	ScansTriggered.WithLabelValues(provider, outcome).Inc()
}

// IncSchedulerTick increments the tick counter.
func IncSchedulerTick() {
	SchedulerTicks.Inc()
}

// IncDueAccounts adds n due accounts for a provider.
func IncDueAccounts(provider string, n int) {
	DueAccounts.WithLabelValues(provider).Add(float64(n))
}

// IncNotification increments the notification counter for a channel and outcome.
func IncNotification(channel, outcome string) {
	NotificationsSent.WithLabelValues(channel, outcome).Inc()
}
