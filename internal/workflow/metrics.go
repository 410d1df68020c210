package workflow

import "github.com/prometheus/client_golang/prometheus"

type Metrics struct {
	advances *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		advances: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "workflow_advances_total",
				Help: "Workflow step advances by trigger (approve, auto).",
			},
			[]string{"trigger"},
		),
	}
	reg.MustRegister(m.advances)
	return m
}

func (m *Metrics) observe(trigger string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.advances.WithLabelValues(trigger).Add(float64(n))
}
