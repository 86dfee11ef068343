package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registry aggregates the collectors the service exports on /metrics.
type Registry struct {
	HTTPRequestDuration *prometheus.HistogramVec
	ReservationOutcomes *prometheus.CounterVec
	RecordTransitions   *prometheus.CounterVec
}

// NewRegistry registers the service collectors against reg (or the default
// registerer when nil).
func NewRegistry(reg prometheus.Registerer) *Registry {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Registry{
		HTTPRequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "evw",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Latency of HTTP requests by route and status.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
		ReservationOutcomes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "evw",
			Subsystem: "ledger",
			Name:      "reservation_outcomes_total",
			Help:      "Stock reservation attempts by purpose and outcome.",
		}, []string{"purpose", "outcome"}),
		RecordTransitions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "evw",
			Subsystem: "records",
			Name:      "status_transitions_total",
			Help:      "Processing record state machine transitions.",
		}, []string{"from", "to"}),
	}
}

// ObserveReservation records one reservation attempt outcome.
func (r *Registry) ObserveReservation(purpose, outcome string) {
	if r == nil {
		return
	}
	r.ReservationOutcomes.WithLabelValues(purpose, outcome).Inc()
}

// ObserveTransition records one record status transition.
func (r *Registry) ObserveTransition(from, to string) {
	if r == nil {
		return
	}
	r.RecordTransitions.WithLabelValues(from, to).Inc()
}
