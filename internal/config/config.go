package config

import (
	"fmt"
	"net/url"
	"time"

	pkgconfig "github.com/miska12345/OpenMarket-sub000/pkg/config"
)

// Config holds all configuration for the marketplace server.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// HTTP server
	HTTPPort int `env:"HTTP_PORT" envDefault:"8080"`

	// PostgreSQL
	PostgresHost string `env:"POSTGRES_HOST" envDefault:"localhost"`
	PostgresPort int    `env:"POSTGRES_PORT" envDefault:"5432"`
	PostgresUser string `env:"POSTGRES_USER" envDefault:"openmarket"`
	PostgresPass string `env:"POSTGRES_PASSWORD" envDefault:"openmarket_secret"`
	PostgresDB   string `env:"POSTGRES_DB_NAME" envDefault:"openmarket_db"`
	PostgresSSL  string `env:"POSTGRES_SSL_MODE" envDefault:"disable"`

	// Database pool
	DBMaxConns            int32 `env:"DB_MAX_CONNS" envDefault:"25"`
	DBMinConns            int32 `env:"DB_MIN_CONNS" envDefault:"5"`
	DBMaxConnLifetimeMins int   `env:"DB_MAX_CONN_LIFETIME_MINUTES" envDefault:"60"`
	DBMaxConnIdleTimeMins int   `env:"DB_MAX_CONN_IDLE_TIME_MINUTES" envDefault:"30"`

	// Redis (saved carts)
	RedisHost    string `env:"REDIS_HOST" envDefault:"localhost"`
	RedisPort    int    `env:"REDIS_PORT" envDefault:"6379"`
	RedisPass    string `env:"REDIS_PASSWORD" envDefault:""`
	RedisDB      int    `env:"REDIS_DB" envDefault:"0"`
	CartTTLHours int    `env:"CART_TTL_HOURS" envDefault:"168"`

	// Kafka
	KafkaBrokers []string `env:"KAFKA_BROKERS" envDefault:"localhost:9092" envSeparator:","`

	// JWT auth for buyer endpoints
	JWTSecret string `env:"JWT_SECRET" envDefault:"dev-secret-change-me"`

	// Settlement provider: "mock" or "clearinghouse"
	SettlementProvider string `env:"SETTLEMENT_PROVIDER" envDefault:"mock"`
	ClearinghouseURL   string `env:"CLEARINGHOUSE_URL" envDefault:"http://localhost:8200"`
	ClearinghouseKey   string `env:"CLEARINGHOUSE_API_KEY" envDefault:""`

	// OpenTelemetry
	OTELEnabled    bool    `env:"OTEL_ENABLED" envDefault:"false"`
	OTELEndpoint   string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:"localhost:4318"`
	OTELSampleRate float64 `env:"OTEL_SAMPLE_RATE" envDefault:"1.0"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// validate checks configuration invariants.
func (c *Config) validate() error {
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.HTTPPort)
	}
	if c.PostgresHost == "" {
		return fmt.Errorf("POSTGRES_HOST is required")
	}
	if c.PostgresUser == "" {
		return fmt.Errorf("POSTGRES_USER is required")
	}
	if len(c.KafkaBrokers) == 0 {
		return fmt.Errorf("KAFKA_BROKERS is required")
	}
	if c.OTELSampleRate < 0 || c.OTELSampleRate > 1.0 {
		return fmt.Errorf("OTEL_SAMPLE_RATE must be between 0.0 and 1.0, got %f", c.OTELSampleRate)
	}
	if c.CartTTLHours < 1 {
		return fmt.Errorf("CART_TTL_HOURS must be positive, got %d", c.CartTTLHours)
	}
	switch c.SettlementProvider {
	case "mock":
	case "clearinghouse":
		if c.ClearinghouseURL == "" {
			return fmt.Errorf("CLEARINGHOUSE_URL is required")
		}
		if _, err := url.ParseRequestURI(c.ClearinghouseURL); err != nil {
			return fmt.Errorf("invalid CLEARINGHOUSE_URL %q: %w", c.ClearinghouseURL, err)
		}
		if c.ClearinghouseKey == "" {
			return fmt.Errorf("CLEARINGHOUSE_API_KEY is required when SETTLEMENT_PROVIDER=clearinghouse")
		}
	default:
		return fmt.Errorf("unknown SETTLEMENT_PROVIDER %q", c.SettlementProvider)
	}
	return nil
}

// PostgresDSN returns the PostgreSQL connection string.
func (c *Config) PostgresDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.PostgresUser, c.PostgresPass, c.PostgresHost, c.PostgresPort, c.PostgresDB, c.PostgresSSL,
	)
}

// RedisAddr returns the Redis host:port address.
func (c *Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.RedisHost, c.RedisPort)
}

// CartTTL returns the saved-cart expiry as a duration.
func (c *Config) CartTTL() time.Duration {
	return time.Duration(c.CartTTLHours) * time.Hour
}
