package outbox

import "github.com/prometheus/client_golang/prometheus"

type Metrics struct {
	PollsTotal     prometheus.Counter
	ClaimedTotal   prometheus.Counter
	PublishedTotal *prometheus.CounterVec
	FailedTotal    *prometheus.CounterVec
	RequeuedTotal  prometheus.Counter
	ErrorsTotal    *prometheus.CounterVec
	LagSeconds     prometheus.Gauge
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		PollsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{Name: "outbox_relay_polls_total", Help: "Outbox polling ticks."},
		),
		ClaimedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{Name: "outbox_relay_claimed_total", Help: "Claimed outbox rows."},
		),
		PublishedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "outbox_published_total", Help: "Published outbox events."},
			[]string{"event_type"},
		),
		FailedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "outbox_failed_total", Help: "Failed outbox publish attempts."},
			[]string{"event_type"},
		),
		RequeuedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{Name: "outbox_relay_requeued_total", Help: "Stuck outbox rows returned to pending."},
		),
		ErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "outbox_relay_errors_total", Help: "Relay database errors by operation."},
			[]string{"op"},
		),
		LagSeconds: prometheus.NewGauge(
			prometheus.GaugeOpts{Name: "outbox_lag_seconds", Help: "Age in seconds of the oldest pending outbox event."},
		),
	}
	reg.MustRegister(m.PollsTotal, m.ClaimedTotal, m.PublishedTotal, m.FailedTotal, m.RequeuedTotal, m.ErrorsTotal, m.LagSeconds)
	return m
}
