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

	"github.com/k1networth/techdesk/internal/notify"
	"github.com/k1networth/techdesk/internal/shared/config"
	"github.com/k1networth/techdesk/internal/shared/db"
	"github.com/k1networth/techdesk/internal/shared/httpx"
	"github.com/k1networth/techdesk/internal/shared/kafkax"
	"github.com/k1networth/techdesk/internal/shared/logger"
)

const (
	appName = "notification-service"

	// Consecutive fetch failures before the reader is rebuilt.
	reopenAfter = 5
)

func main() {
	cfg := config.Load()
	log := logger.NewWithLevel(appName, cfg.AppEnv, cfg.LogLevel)

	if cfg.DatabaseURL == "" {
		log.Error("config_error", slog.String("err", "DATABASE_URL is empty"))
		os.Exit(2)
	}
	groupID := cfg.KafkaGroupID
	if groupID == "" {
		groupID = appName
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pg, err := db.OpenPostgres(ctx, cfg.Postgres())
	if err != nil {
		log.Error("db_open_failed", slog.String("err", err.Error()))
		os.Exit(1)
	}
	defer func() { _ = pg.Close() }()

	reg := prometheus.NewRegistry()
	proc := &notify.Processor{Log: log, Dedupe: notify.NewStore(pg), Metrics: notify.NewMetrics(reg)}

	consumer := kafkax.NewConsumer(kafkax.ConsumerConfig{Brokers: cfg.KafkaBrokers, Topic: cfg.KafkaTopic, GroupID: groupID})
	defer func() { _ = consumer.Close() }()

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

	log.Info("consumer_start", slog.String("topic", cfg.KafkaTopic), slog.String("group_id", groupID))

	failures := 0
	for ctx.Err() == nil {
		msg, err := consumer.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			failures++
			log.Error("kafka_fetch_failed", slog.String("err", err.Error()), slog.Int("failures", failures))
			if failures >= reopenAfter {
				log.Warn("kafka_reader_reopen")
				consumer.Reopen()
				failures = 0
			}
			sleep(ctx, 300*time.Millisecond)
			continue
		}
		failures = 0
		log.Debug("kafka_message",
			slog.String("event_type", kafkax.Header(msg, "event_type")),
			slog.Int("partition", msg.Partition),
			slog.Int64("offset", msg.Offset),
		)

		if err := proc.Handle(ctx, msg.Value); err != nil {
			// Not committed: the message is redelivered.
			continue
		}
		if err := consumer.CommitMessages(ctx, msg); err != nil {
			log.Error("kafka_commit_failed", slog.String("err", err.Error()))
		}
	}

	log.Info("consumer_shutdown")
	httpx.Shutdown(log, 5*time.Second, metricsSrv)
}

func sleep(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
