// Package metrics holds the Prometheus collectors of the signup service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Signup outcomes.
const (
	OutcomeCreated    = "created"
	OutcomeInvalid    = "invalid"
	OutcomeDuplicate  = "duplicate"
	OutcomeStoreError = "store_error"
)

// ID lookup results.
const (
	LookupTaken     = "taken"
	LookupAvailable = "available"
	LookupRejected  = "rejected"
	LookupError     = "error"
)

// Metrics holds all Prometheus metrics for the application.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	Signups     *prometheus.CounterVec
	IDLookups   *prometheus.CounterVec
	RateLimited prometheus.Counter
}

// New creates the metrics and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Signups: f.NewCounterVec(prometheus.CounterOpts{
			Name: "signup_submissions_total",
			Help: "Signup form submissions by outcome",
		}, []string{"outcome"}),
		IDLookups: f.NewCounterVec(prometheus.CounterOpts{
			Name: "signup_id_lookups_total",
			Help: "ID number uniqueness lookups by result",
		}, []string{"result"}),
		RateLimited: f.NewCounter(prometheus.CounterOpts{
			Name: "signup_rate_limited_total",
			Help: "Requests rejected by the rate limiter",
		}),
	}
}

// ObserveSignup counts one submission with the given outcome.
func (m *Metrics) ObserveSignup(outcome string) {
	if m == nil {
		return
	}
	m.Signups.WithLabelValues(outcome).Inc()
}

// ObserveIDLookup counts one uniqueness lookup with the given result.
func (m *Metrics) ObserveIDLookup(result string) {
	if m == nil {
		return
	}
	m.IDLookups.WithLabelValues(result).Inc()
}

// IncrementRateLimited counts one rate-limited request.
func (m *Metrics) IncrementRateLimited() {
	if m == nil {
		return
	}
	m.RateLimited.Inc()
}
