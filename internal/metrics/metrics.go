// Package metrics provides Prometheus metrics for HeartPath.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	namespace = "heartpath"
)

// HTTP metrics
var (
	// HTTPRequestsTotal counts HTTP requests by method, route, and status.
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// HTTPRequestDuration tracks HTTP request latency.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency in seconds",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path"},
	)

	// HTTPRequestsInFlight tracks concurrent HTTP requests.
	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_in_flight",
			Help:      "Number of HTTP requests currently being processed",
		},
	)
)

// Wearable ingestion metrics
var (
	// WebhookEventsTotal counts wearable webhook deliveries by event type and outcome.
	WebhookEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "wearable",
			Name:      "webhook_events_total",
			Help:      "Wearable webhook events by type and outcome",
		},
		[]string{"type", "outcome"},
	)

	// MetricsUpsertedTotal counts daily metric rows written from wearable data.
	MetricsUpsertedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "wearable",
			Name:      "metrics_upserted_total",
			Help:      "Daily metric rows upserted from wearable syncs",
		},
	)

	// BloodPressureInsertedTotal counts blood-pressure rows inserted from wearable data.
	BloodPressureInsertedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "wearable",
			Name:      "blood_pressure_inserted_total",
			Help:      "Blood-pressure rows inserted from wearable syncs",
		},
	)

	// EntriesSkippedTotal counts payload entries skipped during normalization.
	EntriesSkippedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "wearable",
			Name:      "entries_skipped_total",
			Help:      "Wearable payload entries skipped, by reason",
		},
		[]string{"reason"},
	)

	// ConnectRequestsTotal counts wearable auth-initiation requests by outcome.
	ConnectRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "wearable",
			Name:      "connect_requests_total",
			Help:      "Wearable connection requests by outcome",
		},
		[]string{"outcome"},
	)

	// ConnectWaiters tracks callers waiting for a connection to complete.
	ConnectWaiters = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "wearable",
			Name:      "connect_waiters",
			Help:      "Callers waiting for a wearable connection to complete",
		},
	)
)

// Alert metrics
var (
	// ActiveAlerts tracks unresolved alerts by type as of the last build.
	ActiveAlerts = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "alerts",
			Name:      "active",
			Help:      "Unresolved alerts by type at the last alert build",
		},
		[]string{"type"},
	)

	// AlertBuildDuration tracks alert list rebuild latency.
	AlertBuildDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "alerts",
			Name:      "build_duration_seconds",
			Help:      "Time to fetch sources and build the alert list",
			Buckets:   prometheus.DefBuckets,
		},
	)

	// RuleErrorsTotal counts custom rule evaluation failures.
	RuleErrorsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "alerts",
			Name:      "rule_errors_total",
			Help:      "Custom alert rule evaluation errors",
		},
	)

	// RuleReloadsTotal counts rules file reloads by outcome.
	RuleReloadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "alerts",
			Name:      "rule_reloads_total",
			Help:      "Custom rules file reloads by outcome",
		},
		[]string{"outcome"},
	)
)

// Notification metrics
var (
	// NotificationsSentTotal counts care-team notifications sent by channel.
	NotificationsSentTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "notify",
			Name:      "sent_total",
			Help:      "Care-team notifications sent by channel",
		},
		[]string{"channel"},
	)

	// NotificationsFailedTotal counts failed notifications by channel.
	NotificationsFailedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "notify",
			Name:      "failed_total",
			Help:      "Care-team notifications that failed by channel",
		},
		[]string{"channel"},
	)

	// NotificationsRateLimitedTotal counts notifications dropped by the rate limiter.
	NotificationsRateLimitedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "notify",
			Name:      "rate_limited_total",
			Help:      "Care-team notifications dropped by the rate limiter",
		},
	)
)

// Realtime metrics
var (
	// RealtimeClients tracks connected websocket clients.
	RealtimeClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "realtime",
			Name:      "clients",
			Help:      "Connected realtime websocket clients",
		},
	)

	// RealtimeEventsTotal counts events pushed to clients by event type.
	RealtimeEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "realtime",
			Name:      "events_total",
			Help:      "Realtime events delivered by type",
		},
		[]string{"event"},
	)
)

// Auth metrics
var (
	// LoginAttemptsTotal counts login attempts by outcome.
	LoginAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "auth",
			Name:      "login_attempts_total",
			Help:      "Login attempts by outcome",
		},
		[]string{"outcome"},
	)
)
