package httpx

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Mounter registers a group of routes on the shared mux.
type Mounter interface {
	Mount(mux *http.ServeMux)
}

type RouterOptions struct {
	// Gatherer backs /metrics; nil serves an empty registry.
	Gatherer prometheus.Gatherer
	// Metrics instruments every request when set.
	Metrics *Metrics
	// Ready is checked by /readyz; nil means always ready.
	Ready func(ctx context.Context) error
}

// Handle registers h under pattern and labels its metrics with the pattern.
func Handle(mux *http.ServeMux, pattern string, h http.HandlerFunc) {
	mux.Handle(pattern, WithRoute(pattern, h))
}

func NewRouter(log *slog.Logger, opts RouterOptions, mounts ...Mounter) http.Handler {
	mux := http.NewServeMux()

	Handle(mux, "GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	Handle(mux, "GET /readyz", func(w http.ResponseWriter, r *http.Request) {
		if opts.Ready != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := opts.Ready(ctx); err != nil {
				log.Warn("readiness_failed", slog.String("err", err.Error()))
				w.WriteHeader(http.StatusServiceUnavailable)
				_, _ = w.Write([]byte("not ready"))
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	gatherer := opts.Gatherer
	if gatherer == nil {
		gatherer = prometheus.NewRegistry()
	}
	mux.Handle("GET /metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	for _, m := range mounts {
		m.Mount(mux)
	}

	var h http.Handler = mux
	h = AccessLog(log)(h)
	h = RequestID(h)
	if opts.Metrics != nil {
		h = opts.Metrics.Middleware(h)
	}

	return h
}
