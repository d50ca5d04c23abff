// Package observability exposes the service's Prometheus instruments.
package observability

import "github.com/prometheus/client_golang/prometheus"

// Per-item provisioning outcomes.
const (
	OutcomeCreated = "created"
	OutcomeSkipped = "skipped"
	OutcomeFailed  = "failed"
)

// Metrics captures provisioning health signals.
type Metrics struct {
	items *prometheus.CounterVec
}

// New creates the instruments and registers them on reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		items: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "domjudge_provision_items_total",
			Help: "Provisioning items processed, by outcome.",
		}, []string{"outcome"}),
	}
	reg.MustRegister(m.items)
	return m
}

// ItemProcessed records n items with the given outcome. Safe on a nil
// receiver so wiring metrics stays optional in tests.
func (m *Metrics) ItemProcessed(outcome string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.items.WithLabelValues(outcome).Add(float64(n))
}
