package worker

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus metrics for the outbox relay.
type Metrics struct {
	Published   prometheus.Counter
	Failures    prometheus.Counter
	Exhausted   prometheus.Counter
	BreakerOpen prometheus.Gauge
}

// NewMetrics registers the relay collectors on reg. A nil reg uses the default registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)
	return &Metrics{
		Published: factory.NewCounter(prometheus.CounterOpts{
			Name: "customer_outbox_published_total",
			Help: "Outbox entries published to the event stream",
		}),
		Failures: factory.NewCounter(prometheus.CounterOpts{
			Name: "customer_outbox_publish_failures_total",
			Help: "Failed outbox publish attempts",
		}),
		Exhausted: factory.NewCounter(prometheus.CounterOpts{
			Name: "customer_outbox_exhausted_total",
			Help: "Outbox entries that reached the retry limit",
		}),
		BreakerOpen: factory.NewGauge(prometheus.GaugeOpts{
			Name: "customer_outbox_circuit_open",
			Help: "Relay circuit breaker state (0=closed, 1=open)",
		}),
	}
}
