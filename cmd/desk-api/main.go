package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/k1networth/techdesk/internal/auth"
	"github.com/k1networth/techdesk/internal/chat"
	"github.com/k1networth/techdesk/internal/order"
	"github.com/k1networth/techdesk/internal/profile"
	"github.com/k1networth/techdesk/internal/report"
	"github.com/k1networth/techdesk/internal/shared/config"
	"github.com/k1networth/techdesk/internal/shared/db"
	"github.com/k1networth/techdesk/internal/shared/httpx"
	"github.com/k1networth/techdesk/internal/shared/logger"
	"github.com/k1networth/techdesk/internal/shared/telemetry"
	"github.com/k1networth/techdesk/internal/workflow"
)

const appName = "desk-api"

func main() {
	cfg := config.Load()
	log := logger.NewWithLevel(appName, cfg.AppEnv, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing := telemetry.Setup(ctx, log, appName)
	defer func() {
		c, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(c); err != nil {
			log.Warn("otel_shutdown_failed", slog.String("err", err.Error()))
		}
	}()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	identity := auth.Identity{ID: cfg.AuthUserID, Name: cfg.AuthUserName, Email: cfg.AuthEmail}
	authenticator, err := auth.NewStaticAuthenticator(identity, cfg.AuthPassword)
	if err != nil {
		log.Error("config_error", slog.String("err", err.Error()))
		os.Exit(2)
	}

	var (
		orders   order.Store
		profiles profile.Store
		ready    func(context.Context) error
		pg       *sql.DB
	)
	if cfg.DatabaseURL != "" {
		pg, err = db.OpenPostgres(ctx, cfg.Postgres())
		if err != nil {
			log.Error("db_open_failed", slog.String("err", err.Error()))
			os.Exit(1)
		}
		defer func() { _ = pg.Close() }()
		orders = order.NewPostgresStore(pg)
		profiles = profile.NewPostgresStore(pg)
		ready = pg.PingContext
		log.Info("storage_postgres")
	} else {
		orders = order.NewInMemoryStore()
		profiles = profile.NewInMemoryStore(profile.Profile{ID: identity.ID, Name: identity.Name, Email: identity.Email})
		log.Info("storage_memory")
	}

	var chatStore chat.Store = chat.NewMemoryStore()
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer func() { _ = rdb.Close() }()
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Error("redis_unavailable", slog.String("addr", cfg.RedisAddr), slog.String("err", err.Error()))
			os.Exit(1)
		}
		chatStore = chat.NewRedisStore(rdb, cfg.ChatSessionTTL)
		ready = withRedis(ready, rdb)
		log.Info("chat_redis", slog.String("addr", cfg.RedisAddr), slog.Duration("ttl", cfg.ChatSessionTTL))
	}

	loginLimiter := httpx.NewIPRateLimiter(cfg.LoginRatePerSec, cfg.LoginBurst)
	if err := loginLimiter.TrustProxies(cfg.TrustedProxies); err != nil {
		log.Error("config_error", slog.String("err", err.Error()))
		os.Exit(2)
	}

	workflows := workflow.NewStore()
	workflowMetrics := workflow.NewMetrics(reg)

	handler := httpx.NewRouter(log,
		httpx.RouterOptions{Gatherer: reg, Metrics: httpx.NewMetrics(reg), Ready: ready},
		&order.Handler{Log: log, Store: orders, Metrics: order.NewMetrics(reg)},
		&report.Handler{Log: log, Orders: orders},
		&auth.Handler{
			Log:     log,
			Auth:    authenticator,
			Metrics: auth.NewMetrics(reg),
			Limiter: loginLimiter,
		},
		&profile.Handler{Log: log, Store: profiles},
		&chat.Handler{Log: log, Chat: &chat.Service{Store: chatStore, Responder: chat.DefaultResponder()}},
		&workflow.Handler{Log: log, Store: workflows, Metrics: workflowMetrics},
	)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           otelhttp.NewHandler(handler, appName),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	runner := &workflow.Runner{Log: log, Store: workflows, Interval: cfg.WorkflowAdvanceInterval, Metrics: workflowMetrics}
	go runner.Run(ctx)

	log.Info("http_listen", slog.String("addr", srv.Addr))
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http_server_error", slog.String("err", err.Error()))
			stop()
		}
	}()

	<-ctx.Done()
	httpx.Shutdown(log, 10*time.Second, srv)
}

func withRedis(next func(context.Context) error, rdb *redis.Client) func(context.Context) error {
	return func(ctx context.Context) error {
		if next != nil {
			if err := next(ctx); err != nil {
				return err
			}
		}
		return rdb.Ping(ctx).Err()
	}
}
