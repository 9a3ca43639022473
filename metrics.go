package darlin

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/eon-protocol/darlin/errs"
)

// Metrics of the verifier. A zero-configured verifier uses an unregistered
// set, so counting is always safe.
type Metrics struct {
	Proofs         *prometheus.CounterVec
	HardPartChecks *prometheus.CounterVec
	BatchDuration  prometheus.Histogram
}

func newMetrics() *Metrics {
	return &Metrics{
		Proofs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "darlin",
			Name:      "proofs_total",
			Help:      "Succinct verifications by proof kind and result.",
		}, []string{"kind", "result"}),
		HardPartChecks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "darlin",
			Name:      "hard_part_checks_total",
			Help:      "Hard-part multi-scalar multiplications run, by curve.",
		}, []string{"curve"}),
		BatchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "darlin",
			Name:      "batch_duration_seconds",
			Help:      "Wall time of batch verifications.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12),
		}),
	}
}

// NewMetrics creates the verifier metrics and registers them on reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := newMetrics()
	for _, c := range []prometheus.Collector{m.Proofs, m.HardPartChecks, m.BatchDuration} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) observeProof(kind string, err error) {
	result := "ok"
	switch {
	case err == nil:
	case errs.Rejected(err):
		result = "rejected"
	default:
		result = "error"
	}
	m.Proofs.WithLabelValues(kind, result).Inc()
}
