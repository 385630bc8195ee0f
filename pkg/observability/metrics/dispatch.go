package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Delivery outcomes recorded in the outcome label.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomeSkipped = "skipped"
)

// DispatchMetrics records per-backend delivery results. A nil *DispatchMetrics
// records nothing.
type DispatchMetrics struct {
	deliveries *prometheus.CounterVec
	duration   *prometheus.HistogramVec
}

func newDispatchMetrics() *DispatchMetrics {
	return &DispatchMetrics{
		deliveries: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "notify_deliveries_total",
				Help: "Notification deliveries by backend, event type and outcome",
			},
			[]string{"service", "event_type", "outcome"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "notify_delivery_duration_seconds",
				Help:    "Notification delivery latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"service"},
		),
	}
}

func (m *DispatchMetrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{m.deliveries, m.duration}
}

// ObserveDelivery records one attempted delivery.
func (m *DispatchMetrics) ObserveDelivery(service, eventType string, elapsed time.Duration, err error) {
	if m == nil {
		return
	}
	outcome := OutcomeSuccess
	if err != nil {
		outcome = OutcomeFailure
	}
	m.deliveries.WithLabelValues(service, eventType, outcome).Inc()
	m.duration.WithLabelValues(service).Observe(elapsed.Seconds())
}

// ObserveSkipped records an entry that is not subscribed to the event type.
func (m *DispatchMetrics) ObserveSkipped(service, eventType string) {
	if m == nil {
		return
	}
	m.deliveries.WithLabelValues(service, eventType, OutcomeSkipped).Inc()
}
