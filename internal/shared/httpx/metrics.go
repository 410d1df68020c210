package httpx

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type ctxKeyRoute struct{}

type routeHolder struct {
	route string
}

// WithRoute labels requests served by next with route instead of the raw path,
// so metrics stay bounded when paths carry ids.
func WithRoute(route string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h, ok := r.Context().Value(ctxKeyRoute{}).(*routeHolder); ok && h != nil {
			h.route = route
			next.ServeHTTP(w, r)
			return
		}

		ctx := context.WithValue(r.Context(), ctxKeyRoute{}, &routeHolder{route: route})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

type Metrics struct {
	reqTotal    *prometheus.CounterVec
	reqLatency  *prometheus.HistogramVec
	req5xxTotal prometheus.Counter
	inFlight    prometheus.Gauge
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		reqTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests.",
			},
			[]string{"route", "method", "status"},
		),
		req5xxTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "http_requests_5xx_total",
				Help: "Total number of HTTP 5xx responses.",
			},
		),
		reqLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency in seconds.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"route", "method"},
		),
		inFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_requests_in_flight",
				Help: "Requests currently being served.",
			},
		),
	}

	reg.MustRegister(m.reqTotal, m.reqLatency, m.req5xxTotal, m.inFlight)
	return m
}

func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/metrics" {
			next.ServeHTTP(w, r)
			return
		}

		// Unmatched paths share one label.
		holder := &routeHolder{route: "unmatched"}
		r = r.WithContext(context.WithValue(r.Context(), ctxKeyRoute{}, holder))

		m.inFlight.Inc()
		defer m.inFlight.Dec()

		start := time.Now()
		sw := newStatusRecorder(w)

		next.ServeHTTP(sw, r)

		m.reqTotal.WithLabelValues(holder.route, r.Method, strconv.Itoa(sw.status)).Inc()
		m.reqLatency.WithLabelValues(holder.route, r.Method).Observe(time.Since(start).Seconds())
		if sw.status >= 500 {
			m.req5xxTotal.Inc()
		}
	})
}
