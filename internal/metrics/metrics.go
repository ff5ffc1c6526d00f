package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/splits-network/notifier/internal/domain"
)

// Metrics groups all Prometheus instruments used across the application.
// Registered once at startup via New(); passed by pointer wherever needed.
type Metrics struct {
	EventsConsumed      *prometheus.CounterVec
	EventsDropped       *prometheus.CounterVec
	NotificationsSent   *prometheus.CounterVec
	NotificationsFailed *prometheus.CounterVec
	DeliveryLatency     *prometheus.HistogramVec
	BrokerReconnects    prometheus.Counter
}

// New registers all instruments with the given Prometheus registerer and
// returns the populated Metrics struct.
// Using a custom registry (instead of prometheus.DefaultRegisterer) keeps
// tests isolated and avoids global state.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		EventsConsumed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "events_consumed_total",
			Help: "Total number of events received from the broker.",
		}, []string{"event_type"}),

		EventsDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "events_dropped_total",
			Help: "Total number of events permanently dropped after handler failure.",
		}, []string{"event_type"}),

		NotificationsSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "notifications_sent_total",
			Help: "Total number of notifications that reached sent status.",
		}, []string{"channel"}),

		NotificationsFailed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "notifications_failed_total",
			Help: "Total number of notifications that reached failed status.",
		}, []string{"channel"}),

		DeliveryLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "notification_delivery_seconds",
			Help:    "Latency from delivery start to provider acknowledgement.",
			Buckets: prometheus.DefBuckets,
		}, []string{"channel"}),

		BrokerReconnects: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "broker_reconnects_total",
			Help: "Total number of scheduled broker reconnect attempts.",
		}),
	}

	reg.MustRegister(
		m.EventsConsumed,
		m.EventsDropped,
		m.NotificationsSent,
		m.NotificationsFailed,
		m.DeliveryLatency,
		m.BrokerReconnects,
	)

	return m
}

// DeliveryHooks returns the callbacks expected by delivery.Hooks.
// Centralises the prometheus observation calls so the delivery channels
// stay import-free.
func (m *Metrics) DeliveryHooks() (
	onSent func(domain.Channel, time.Duration),
	onFailed func(domain.Channel),
) {
	onSent = func(ch domain.Channel, latency time.Duration) {
		m.NotificationsSent.WithLabelValues(string(ch)).Inc()
		m.DeliveryLatency.WithLabelValues(string(ch)).Observe(latency.Seconds())
	}
	onFailed = func(ch domain.Channel) {
		m.NotificationsFailed.WithLabelValues(string(ch)).Inc()
	}
	return
}

// RouterHooks returns the callbacks expected by events.Hooks.
func (m *Metrics) RouterHooks() (onConsumed, onDropped func(eventType string)) {
	onConsumed = func(eventType string) {
		m.EventsConsumed.WithLabelValues(eventType).Inc()
	}
	onDropped = func(eventType string) {
		m.EventsDropped.WithLabelValues(eventType).Inc()
	}
	return
}
