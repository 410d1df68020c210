package auth

import "github.com/prometheus/client_golang/prometheus"

type Metrics struct {
	attempts *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		attempts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "login_attempts_total",
				Help: "Login attempts by result (success, invalid, bad_request, error).",
			},
			[]string{"result"},
		),
	}
	reg.MustRegister(m.attempts)
	return m
}

func (m *Metrics) observe(result string) {
	if m == nil {
		return
	}
	m.attempts.WithLabelValues(result).Inc()
}
