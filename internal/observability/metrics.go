// Package observability provides metrics and tracing.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ModerationTransitions counts state changes by entity, action and outcome.
	ModerationTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "marketplace_moderation_transitions_total",
		Help: "Moderation actions by entity, action and outcome",
	}, []string{"entity", "action", "outcome"})

	// BulkBatchSize records the number of ids per bulk request.
	BulkBatchSize = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "marketplace_bulk_batch_size",
		Help:    "Number of ids submitted per bulk moderation request",
		Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500},
	}, []string{"entity", "action"})

	// NotificationFailures counts side-effect deliveries that failed, by channel.
	NotificationFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "marketplace_notification_failures_total",
		Help: "Failed notification deliveries by channel",
	}, []string{"channel"})

	// NotificationsSent counts successful deliveries by channel.
	NotificationsSent = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "marketplace_notifications_sent_total",
		Help: "Successful notification deliveries by channel",
	}, []string{"channel"})

	// CaptchaVerifications counts captcha outcomes.
	CaptchaVerifications = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "marketplace_captcha_verifications_total",
		Help: "Captcha verifications by outcome",
	}, []string{"outcome"})

	// WebSocketConnectionsTotal is the gauge of open notification sockets.
	WebSocketConnectionsTotal = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "marketplace_websocket_connections",
		Help: "Number of active notification WebSocket connections",
	})

	// WebSocketBackpressureDrops counts messages dropped due to backpressure by reason.
	WebSocketBackpressureDrops = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "marketplace_websocket_backpressure_drops_total",
		Help: "Total number of WebSocket messages dropped due to backpressure",
	}, []string{"reason"})
)

// Outcome labels shared by counters.
const (
	OutcomeSuccess  = "success"
	OutcomeConflict = "conflict"
	OutcomeRejected = "rejected"
	OutcomeError    = "error"
)
