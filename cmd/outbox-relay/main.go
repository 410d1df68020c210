package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/k1networth/techdesk/internal/outbox"
	"github.com/k1networth/techdesk/internal/shared/config"
	"github.com/k1networth/techdesk/internal/shared/db"
	"github.com/k1networth/techdesk/internal/shared/httpx"
	"github.com/k1networth/techdesk/internal/shared/kafkax"
	"github.com/k1networth/techdesk/internal/shared/logger"
)

const appName = "outbox-relay"

func main() {
	cfg := config.Load()
	log := logger.NewWithLevel(appName, cfg.AppEnv, cfg.LogLevel)

	if cfg.DatabaseURL == "" {
		log.Error("config_error", slog.String("err", "DATABASE_URL is empty"))
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pg, err := db.OpenPostgres(ctx, cfg.Postgres())
	if err != nil {
		log.Error("db_open_failed", slog.String("err", err.Error()))
		os.Exit(1)
	}
	defer func() {
		if err := pg.Close(); err != nil {
			log.Error("db_close_failed", slog.String("err", err.Error()))
		}
	}()

	producer := kafkax.NewProducer(kafkax.ProducerConfig{Brokers: cfg.KafkaBrokers, Topic: cfg.KafkaTopic, ClientID: appName})
	defer func() { _ = producer.Close() }()

	reg := prometheus.NewRegistry()
	relay := &outbox.Relay{
		Log:               log,
		Source:            outbox.NewStore(pg),
		Publisher:         producer,
		Metrics:           outbox.NewMetrics(reg),
		BatchSize:         cfg.OutboxBatchSize,
		ProcessingTimeout: cfg.OutboxProcessingTimeout,
		MaxBackoff:        cfg.OutboxMaxBackoff,
	}

	metricsSrv := &http.Server{
		Addr:              cfg.MetricsAddr,
		Handler:           httpx.NewRouter(log, httpx.RouterOptions{Gatherer: reg, Ready: pg.PingContext}),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		log.Info("metrics_listen", slog.String("addr", metricsSrv.Addr))
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("metrics_server_error", slog.String("err", err.Error()))
		}
	}()

	log.Info("relay_start",
		slog.Int("batch_size", cfg.OutboxBatchSize),
		slog.String("poll_interval", cfg.OutboxPollInterval.String()),
		slog.String("processing_timeout", cfg.OutboxProcessingTimeout.String()),
		slog.String("max_backoff", cfg.OutboxMaxBackoff.String()),
		slog.String("topic", cfg.KafkaTopic),
	)

	relay.Run(ctx, cfg.OutboxPollInterval)

	log.Info("relay_shutdown")
	httpx.Shutdown(log, 5*time.Second, metricsSrv)
}
