package config

import (
	"time"

	"github.com/k1networth/techdesk/internal/shared/db"
	"github.com/k1networth/techdesk/internal/shared/env"
)

type Config struct {
	AppEnv      string
	HTTPAddr    string
	MetricsAddr string
	LogLevel    string

	DatabaseURL       string
	DBMaxOpenConns    int
	DBConnMaxLifetime time.Duration

	RedisAddr      string
	ChatSessionTTL time.Duration

	KafkaBrokers []string
	KafkaTopic   string
	KafkaGroupID string

	OutboxBatchSize         int
	OutboxPollInterval      time.Duration
	OutboxProcessingTimeout time.Duration
	OutboxMaxBackoff        time.Duration

	AuthUserID   int64
	AuthUserName string
	AuthEmail    string
	AuthPassword string

	LoginRatePerSec float64
	LoginBurst      int
	TrustedProxies  []string

	WorkflowAdvanceInterval time.Duration
}

// Load reads ./.env (when present) and then the process environment.
func Load() Config {
	return LoadFrom(".env")
}

// LoadFrom is Load with an explicit dotenv path. Real environment variables win
// over the file.
func LoadFrom(dotenv string) Config {
	loadDotEnv(dotenv)

	return Config{
		AppEnv:      env.String("APP_ENV", "dev"),
		HTTPAddr:    env.String("HTTP_ADDR", ":8080"),
		MetricsAddr: env.String("METRICS_ADDR", ":9091"),
		LogLevel:    env.String("LOG_LEVEL", "info"),

		DatabaseURL:       env.String("DATABASE_URL", ""),
		DBMaxOpenConns:    env.Int("DB_MAX_OPEN_CONNS", 10),
		DBConnMaxLifetime: env.Duration("DB_CONN_MAX_LIFETIME", 30*time.Minute),

		RedisAddr:      env.String("REDIS_ADDR", ""),
		ChatSessionTTL: env.Duration("CHAT_SESSION_TTL", 24*time.Hour),

		KafkaBrokers: env.StringsCSV("KAFKA_BROKERS", []string{"localhost:9092"}),
		KafkaTopic:   env.String("KAFKA_TOPIC", "techdesk.events"),
		KafkaGroupID: env.String("KAFKA_GROUP_ID", ""),

		OutboxBatchSize:         env.Int("OUTBOX_BATCH_SIZE", 50),
		OutboxPollInterval:      env.Duration("OUTBOX_POLL_INTERVAL", time.Second),
		OutboxProcessingTimeout: env.Duration("OUTBOX_PROCESSING_TIMEOUT", 30*time.Second),
		OutboxMaxBackoff:        env.Duration("OUTBOX_MAX_BACKOFF", 5*time.Minute),

		AuthUserID:   env.Int64("AUTH_USER_ID", 1),
		AuthUserName: env.String("AUTH_USER_NAME", "Cauã Sousa"),
		AuthEmail:    env.String("AUTH_EMAIL", "sousa@gmail.com"),
		AuthPassword: env.String("AUTH_PASSWORD", "123456"),

		LoginRatePerSec: env.Float("LOGIN_RATE_PER_SEC", 1),
		LoginBurst:      env.Int("LOGIN_BURST", 5),
		TrustedProxies:  env.StringsCSV("TRUSTED_PROXIES", nil),

		WorkflowAdvanceInterval: env.Duration("WORKFLOW_ADVANCE_INTERVAL", 0),
	}
}

func (c Config) Postgres() db.PostgresConfig {
	return db.PostgresConfig{
		DatabaseURL:     c.DatabaseURL,
		MaxOpenConns:    c.DBMaxOpenConns,
		ConnMaxLifetime: c.DBConnMaxLifetime,
	}
}
