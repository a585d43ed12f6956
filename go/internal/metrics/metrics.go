// Package metrics exposes Prometheus instruments for the field-of-play engine
// and its adapters.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Command outcomes.
const (
	OutcomeAccepted  = "accepted"
	OutcomeDenied    = "denied"
	OutcomeDebounced = "debounced"
	OutcomeIgnored   = "ignored"
)

var (
	CommandsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "barbell_fop_commands_total",
		Help: "Commands processed by a field of play, by outcome",
	}, []string{"platform", "kind", "outcome"})

	NotificationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "barbell_fop_notifications_total",
		Help: "Notifications broadcast by a field of play",
	}, []string{"platform", "kind"})

	Subscribers = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "barbell_fop_subscribers",
		Help: "Currently attached subscribers per field of play",
	}, []string{"platform"})

	EvictionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "barbell_fop_subscriber_evictions_total",
		Help: "Subscribers dropped because their delivery queue stayed full",
	}, []string{"platform"})

	ExpiriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "barbell_fop_timer_expiries_total",
		Help: "Clocks that reached zero while running",
	}, []string{"platform", "timer"})

	GatewayConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "barbell_gateway_connections",
		Help: "Open WebSocket connections",
	})

	RelayPublishedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "barbell_relay_published_total",
		Help: "Notifications mirrored to the message bus, by result",
	}, []string{"platform", "result"})
)

// IncCommand records the outcome of a command.
func IncCommand(platform, kind, outcome string) {
	if kind == "" {
		kind = "unknown"
	}
	CommandsTotal.WithLabelValues(platform, kind, outcome).Inc()
}

// IncNotification records a broadcast notification.
func IncNotification(platform, kind string) {
	NotificationsTotal.WithLabelValues(platform, kind).Inc()
}

// SetSubscribers records the number of attached subscribers.
func SetSubscribers(platform string, n int) {
	Subscribers.WithLabelValues(platform).Set(float64(n))
}

// IncEviction records a slow subscriber being dropped.
func IncEviction(platform string) {
	EvictionsTotal.WithLabelValues(platform).Inc()
}

// IncExpiry records a clock reaching zero.
func IncExpiry(platform, timer string) {
	ExpiriesTotal.WithLabelValues(platform, timer).Inc()
}

// IncRelayPublished records a relay publish attempt.
func IncRelayPublished(platform string, ok bool) {
	result := "ok"
	if !ok {
		result = "error"
	}
	RelayPublishedTotal.WithLabelValues(platform, result).Inc()
}
