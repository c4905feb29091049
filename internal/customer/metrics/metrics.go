package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the customer lifecycle.
// Rule rejections are business outcomes and are counted per violation code.
type Metrics struct {
	RuleRejections    *prometheus.CounterVec
	Transitions       *prometheus.CounterVec
	OperationDuration *prometheus.HistogramVec
}

// New registers the customer collectors on reg. A nil reg uses the default registerer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)
	return &Metrics{
		RuleRejections: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "customer_rule_rejections_total",
			Help: "Lifecycle operations rejected by a business rule, by violation code",
		}, []string{"code"}),
		Transitions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "customer_transitions_total",
			Help: "Effective lifecycle transitions, by event type",
		}, []string{"event"}),
		OperationDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "customer_operation_duration_seconds",
			Help:    "Duration of customer use cases including persistence",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"operation"}),
	}
}

// IncRuleRejection records a business rejection.
func (m *Metrics) IncRuleRejection(code string) {
	m.RuleRejections.WithLabelValues(code).Inc()
}

// IncTransition records an effective transition.
func (m *Metrics) IncTransition(event string) {
	m.Transitions.WithLabelValues(event).Inc()
}

// ObserveOperation records the duration of a use case.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveOperation(operation string, start time.Time) {
	m.OperationDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}
