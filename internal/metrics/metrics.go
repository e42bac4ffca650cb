// Package metrics exposes Prometheus counters for claim activity.
package metrics

import "github.com/prometheus/client_golang/prometheus"

const namespace = "splitclaim"

// Recorder holds the claim counters. A nil *Recorder is a no-op.
type Recorder struct {
	claims             *prometheus.CounterVec
	validationFailures *prometheus.CounterVec
	imageFailures      prometheus.Counter
}

// New creates the counters and registers them with reg.
func New(reg prometheus.Registerer) *Recorder {
	r := &Recorder{
		claims: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "claims_submitted_total",
			Help:      "Claim writes attempted, by settle mode and outcome.",
		}, []string{"mode", "outcome"}),
		validationFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "claim_validation_failures_total",
			Help:      "Claims rejected before any write, by field.",
		}, []string{"field"}),
		imageFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "image_sign_failures_total",
			Help:      "Payment QR images omitted because signing failed.",
		}),
	}
	reg.MustRegister(r.claims, r.validationFailures, r.imageFailures)
	return r
}

// ClaimSubmitted counts one write attempt.
func (r *Recorder) ClaimSubmitted(mode, outcome string) {
	if r == nil {
		return
	}
	r.claims.WithLabelValues(mode, outcome).Inc()
}

// ValidationFailed counts one rejected field.
func (r *Recorder) ValidationFailed(field string) {
	if r == nil {
		return
	}
	r.validationFailures.WithLabelValues(field).Inc()
}

// ImageSignFailed counts one omitted image.
func (r *Recorder) ImageSignFailed() {
	if r == nil {
		return
	}
	r.imageFailures.Inc()
}
