package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the contact module.
type Metrics struct {
	// Store operation latency by operation and outcome
	OperationDuration *prometheus.HistogramVec

	// Rejected submissions by field
	ValidationFailures *prometheus.CounterVec

	// Writes by action (created, updated, deleted)
	Mutations *prometheus.CounterVec

	// Size of the most recent unfiltered list
	ContactsListed prometheus.Gauge

	// Change events that could not be queued or delivered
	EventsDropped *prometheus.CounterVec
}

// New creates the contact module metrics and registers them with reg.
// A nil reg registers with the default Prometheus registry.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)
	return &Metrics{
		OperationDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "contactbook_contact_operation_duration_seconds",
			Help:    "Duration of contact operations by operation and outcome",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"operation", "outcome"}), // outcome: "ok", "invalid", "not_found", "error"

		ValidationFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "contactbook_contact_validation_failures_total",
			Help: "Total field validation failures on submit",
		}, []string{"field"}),

		Mutations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "contactbook_contact_mutations_total",
			Help: "Total successful contact writes by action",
		}, []string{"action"}),

		ContactsListed: factory.NewGauge(prometheus.GaugeOpts{
			Name: "contactbook_contacts_listed",
			Help: "Number of contacts in the collection at the last list",
		}),

		EventsDropped: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "contactbook_contact_events_dropped_total",
			Help: "Change events dropped by reason",
		}, []string{"reason"}), // reason: "queue_full", "sink_error"
	}
}

// ObserveOperation records how long an operation took and how it ended.
func (m *Metrics) ObserveOperation(operation, outcome string, start time.Time) {
	if m != nil {
		m.OperationDuration.WithLabelValues(operation, outcome).Observe(time.Since(start).Seconds())
	}
}

// IncrementValidationFailure records a rejected field.
func (m *Metrics) IncrementValidationFailure(field string) {
	if m != nil {
		m.ValidationFailures.WithLabelValues(field).Inc()
	}
}

// IncrementMutation records a successful write.
func (m *Metrics) IncrementMutation(action string) {
	if m != nil {
		m.Mutations.WithLabelValues(action).Inc()
	}
}

// SetListed records the collection size seen by List.
func (m *Metrics) SetListed(n int) {
	if m != nil {
		m.ContactsListed.Set(float64(n))
	}
}

// IncrementEventDropped records a change event that was not delivered.
func (m *Metrics) IncrementEventDropped(reason string) {
	if m != nil {
		m.EventsDropped.WithLabelValues(reason).Inc()
	}
}
