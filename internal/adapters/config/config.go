package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"optiflow/pkg/errors"
)

type Config struct {
	App           AppConfig
	Postgres      PostgresConfig
	ClickHouse    ClickHouseConfig
	Redis         RedisConfig
	Kafka         KafkaConfig
	Telegram      TelegramConfig
	Fyers         FyersConfig
	API           APIConfig
	ErrorTracking ErrorTrackingConfig
	Workers       WorkerConfig
}

type AppConfig struct {
	Name     string `envconfig:"APP_NAME" default:"optiflow"`
	Env      string `envconfig:"APP_ENV" default:"development"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
}

type PostgresConfig struct {
	Host     string `envconfig:"POSTGRES_HOST" required:"true"`
	Port     int    `envconfig:"POSTGRES_PORT" default:"5432"`
	User     string `envconfig:"POSTGRES_USER" required:"true"`
	Password string `envconfig:"POSTGRES_PASSWORD" required:"true"`
	Database string `envconfig:"POSTGRES_DB" required:"true"`
	SSLMode  string `envconfig:"POSTGRES_SSL_MODE" default:"disable"`
	MaxConns int    `envconfig:"POSTGRES_MAX_CONNS" default:"10"`
}

func (c PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

type ClickHouseConfig struct {
	Host     string `envconfig:"CLICKHOUSE_HOST" required:"true"`
	Port     int    `envconfig:"CLICKHOUSE_PORT" default:"9000"`
	User     string `envconfig:"CLICKHOUSE_USER" default:"default"`
	Password string `envconfig:"CLICKHOUSE_PASSWORD"`
	Database string `envconfig:"CLICKHOUSE_DB" default:"optiflow"`
}

type RedisConfig struct {
	Host     string `envconfig:"REDIS_HOST" required:"true"`
	Port     int    `envconfig:"REDIS_PORT" default:"6379"`
	Password string `envconfig:"REDIS_PASSWORD"`
	DB       int    `envconfig:"REDIS_DB" default:"0"`
}

func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

type KafkaConfig struct {
	Enabled bool     `envconfig:"KAFKA_ENABLED" default:"false"`
	Brokers []string `envconfig:"KAFKA_BROKERS"`
}

type TelegramConfig struct {
	BotToken string `envconfig:"TELEGRAM_BOT_TOKEN"`
	ChatID   int64  `envconfig:"TELEGRAM_ALERT_CHAT_ID"`
}

// Enabled reports whether alert delivery is configured
func (c TelegramConfig) Enabled() bool {
	return c.BotToken != "" && c.ChatID != 0
}

type FyersConfig struct {
	BaseURL        string        `envconfig:"FYERS_BASE_URL" default:"https://api-t1.fyers.in/data"`
	TokenFile      string        `envconfig:"FYERS_TOKEN_FILE" default:"token.json"`
	StrikeCount    int           `envconfig:"FYERS_STRIKE_COUNT" default:"100"`
	RequestTimeout time.Duration `envconfig:"FYERS_REQUEST_TIMEOUT" default:"15s"`
	// RequestsPerSecond bounds calls to the broker API across quotes and
	// chain fetches within a cycle
	RequestsPerSecond float64 `envconfig:"FYERS_REQUESTS_PER_SECOND" default:"1"`
}

type APIConfig struct {
	Host string `envconfig:"API_HOST" default:"0.0.0.0"`
	Port int    `envconfig:"API_PORT" default:"5000"`
}

func (c APIConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

type ErrorTrackingConfig struct {
	Enabled     bool   `envconfig:"ERROR_TRACKING_ENABLED" default:"false"`
	SentryDSN   string `envconfig:"SENTRY_DSN"`
	Environment string `envconfig:"SENTRY_ENVIRONMENT" default:"production"`
}

// WorkerConfig contains intervals for the background workers.
// The collector cadence of 60s matches the minute resolution of persisted
// snapshots; the suspend delay is the recheck period while no broker token
// is available.
type WorkerConfig struct {
	ChainCollectorInterval time.Duration `envconfig:"WORKER_CHAIN_COLLECTOR_INTERVAL" default:"60s"`
	SuspendDelay           time.Duration `envconfig:"WORKER_SUSPEND_DELAY" default:"3s"`
	CleanupInterval        time.Duration `envconfig:"WORKER_CLEANUP_INTERVAL" default:"24h"`
	Retention              time.Duration `envconfig:"WORKER_RETENTION" default:"168h"`
	NotifyCooldown         time.Duration `envconfig:"WORKER_NOTIFY_COOLDOWN" default:"15m"`
}

// Load reads configuration from environment variables.
// It first tries to load a .env file (useful for local development).
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, errors.Wrap(err, "failed to process env config")
	}

	if cfg.Kafka.Enabled && len(cfg.Kafka.Brokers) == 0 {
		return nil, errors.New("KAFKA_BROKERS must be set when KAFKA_ENABLED is true")
	}

	return &cfg, nil
}
