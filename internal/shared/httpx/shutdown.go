package httpx

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

// Shutdown drains every server within a shared timeout.
func Shutdown(log *slog.Logger, timeout time.Duration, servers ...*http.Server) {
	log.Info("shutdown_start")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	for _, srv := range servers {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("shutdown_failed", slog.String("addr", srv.Addr), slog.String("err", err.Error()))
		}
	}

	log.Info("shutdown_done")
}
