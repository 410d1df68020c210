package order

import "github.com/prometheus/client_golang/prometheus"

type Metrics struct {
	transitions *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		transitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "orders_status_transitions_total",
				Help: "Order status changes by source and target status.",
			},
			[]string{"from", "to"},
		),
	}
	reg.MustRegister(m.transitions)
	return m
}

func (m *Metrics) observe(from, to Status) {
	if m == nil || from == to {
		return
	}
	m.transitions.WithLabelValues(string(from), string(to)).Inc()
}
