// Package config provides configuration structures and validation for the admin API
// and the sync worker. Values are layered from defaults, an optional .env file and
// the process environment.
package config

import (
	"errors"
	"strings"
	"time"
)

// Config holds the complete application configuration.
type Config struct {
	Application  ApplicationConfig
	Logging      LoggingConfig
	Server       ServerConfig
	Kafka        KafkaConfig
	Postgres     PostgresConfig
	MongoDB      MongoDBConfig
	Redis        RedisConfig
	Outbox       OutboxConfig
	WorkerPool   WorkerPoolConfig
	Auth         AuthConfig
	ExchangeRate ExchangeRateConfig
	Shopify      ShopifyConfig
	Mercury      MercuryConfig
}

// ApplicationConfig contains general application configuration
type ApplicationConfig struct {
	Env  string
	Name string
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level string
}

// ServerConfig contains HTTP server configuration settings
type ServerConfig struct {
	Port            int           // Port to listen on
	ShutdownTimeout time.Duration // Grace period for server shutdown
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	MaxUploadBytes  int64 // Upper bound for CSV import bodies
}

// KafkaConfig contains Kafka configuration
type KafkaConfig struct {
	Brokers           string
	SyncTopic         string // Topic carrying Shopify and Mercury sync requests
	NumPartitions     int
	ReplicationFactor int
	ConsumerGroup     string
	MinBytes          int
	MaxBytes          int
	MaxWait           time.Duration
	StartOffset       int64
	DLQTopic          string
}

// PostgresConfig contains PostgreSQL configuration
type PostgresConfig struct {
	URL             string
	MaxConns        int32
	MinConns        int32
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	MigrationsPath  string
}

// MongoDBConfig contains MongoDB configuration
type MongoDBConfig struct {
	URI             string
	Database        string
	Timeout         time.Duration
	MaxPoolSize     uint64
	MinPoolSize     uint64
	MaxConnIdleTime time.Duration
}

// RedisConfig contains the Redis connection and the order-number lock settings.
type RedisConfig struct {
	Addr         string
	Password     string
	DB           int
	PoolSize     int
	LockTTL      time.Duration // How long an allocation lock is held before it expires
	LockWait     time.Duration // How long to keep retrying to obtain the lock
	LockInterval time.Duration // Backoff between lock attempts
}

// OutboxConfig contains outbox pattern configuration
type OutboxConfig struct {
	PollingInterval  time.Duration
	BatchSize        int
	MaxRetryAttempts int
}

// WorkerPoolConfig contains worker pool configuration
type WorkerPoolConfig struct {
	Size int
}

// AuthConfig contains session token verification settings
type AuthConfig struct {
	JWTSecret string
	Issuer    string
}

// ExchangeRateConfig contains the rate provider and cache settings
type ExchangeRateConfig struct {
	ProviderURL    string
	RequestTimeout time.Duration
	CacheTTL       time.Duration
	BaseCurrency   string  // Orders are totalled in this currency
	LocalCurrency  string  // Venue-side currency of original amounts
	DefaultRate    float64 // Last-resort rate when no live or cached value exists
}

// ShopifyConfig contains Shopify Admin REST API settings
type ShopifyConfig struct {
	APIVersion     string
	PageSize       int
	RequestTimeout time.Duration
}

// MercuryConfig contains banking API settings
type MercuryConfig struct {
	BaseURL        string
	APIToken       string
	RequestTimeout time.Duration
}

// validate collects every violation into a single error
func (c *Config) validate() error {
	var validationErrors []string

	// Server
	if c.Server.Port <= 0 {
		validationErrors = append(validationErrors, "SERVER_PORT must be greater than 0")
	}
	if c.Server.ShutdownTimeout <= 0 {
		validationErrors = append(validationErrors, "SERVER_SHUTDOWN_TIMEOUT must be greater than 0")
	}
	if c.Server.ReadTimeout <= 0 {
		validationErrors = append(validationErrors, "SERVER_READ_TIMEOUT must be greater than 0")
	}
	if c.Server.WriteTimeout <= 0 {
		validationErrors = append(validationErrors, "SERVER_WRITE_TIMEOUT must be greater than 0")
	}
	if c.Server.IdleTimeout <= 0 {
		validationErrors = append(validationErrors, "SERVER_IDLE_TIMEOUT must be greater than 0")
	}
	if c.Server.MaxUploadBytes <= 0 {
		validationErrors = append(validationErrors, "SERVER_MAX_UPLOAD_BYTES must be greater than 0")
	}

	// Kafka
	if len(c.Kafka.Brokers) == 0 {
		validationErrors = append(validationErrors, "KAFKA_BROKERS is required")
	}
	if c.Kafka.SyncTopic == "" {
		validationErrors = append(validationErrors, "KAFKA_SYNC_TOPIC is required")
	}
	if c.Kafka.ConsumerGroup == "" {
		validationErrors = append(validationErrors, "KAFKA_CONSUMER_GROUP is required")
	}
	if c.Kafka.MinBytes <= 0 {
		validationErrors = append(validationErrors, "KAFKA_CONSUMER_MIN_BYTES must be greater than 0")
	}
	if c.Kafka.MaxBytes <= 0 {
		validationErrors = append(validationErrors, "KAFKA_CONSUMER_MAX_BYTES must be greater than 0")
	}
	if c.Kafka.MaxWait <= 0 {
		validationErrors = append(validationErrors, "KAFKA_CONSUMER_MAX_WAIT must be greater than 0")
	}
	if c.Kafka.DLQTopic == "" {
		validationErrors = append(validationErrors, "KAFKA_DLQ_TOPIC is required")
	}

	// PostgreSQL
	if c.Postgres.URL == "" {
		validationErrors = append(validationErrors, "POSTGRES_URL is required")
	}
	if c.Postgres.MaxConns <= 0 {
		validationErrors = append(validationErrors, "POSTGRES_MAX_CONNS must be greater than 0")
	}
	if c.Postgres.MinConns <= 0 {
		validationErrors = append(validationErrors, "POSTGRES_MIN_CONNS must be greater than 0")
	}
	if c.Postgres.ConnMaxLifetime <= 0 {
		validationErrors = append(validationErrors, "POSTGRES_MAX_CONN_LIFETIME must be greater than 0")
	}
	if c.Postgres.ConnMaxIdleTime <= 0 {
		validationErrors = append(validationErrors, "POSTGRES_MAX_CONN_IDLE_TIME must be greater than 0")
	}

	// MongoDB
	if c.MongoDB.URI == "" {
		validationErrors = append(validationErrors, "MONGO_URI is required")
	}
	if c.MongoDB.Database == "" {
		validationErrors = append(validationErrors, "MONGO_DATABASE is required")
	}
	if c.MongoDB.Timeout <= 0 {
		validationErrors = append(validationErrors, "MONGO_TIMEOUT must be greater than 0")
	}
	if c.MongoDB.MaxPoolSize <= 0 {
		validationErrors = append(validationErrors, "MONGO_MAX_POOL_SIZE must be greater than 0")
	}

	// Redis
	if c.Redis.Addr == "" {
		validationErrors = append(validationErrors, "REDIS_ADDR is required")
	}
	if c.Redis.LockTTL <= 0 {
		validationErrors = append(validationErrors, "REDIS_LOCK_TTL must be greater than 0")
	}
	if c.Redis.LockWait < 0 {
		validationErrors = append(validationErrors, "REDIS_LOCK_WAIT must not be negative")
	}

	// Outbox
	if c.Outbox.PollingInterval <= 0 {
		validationErrors = append(validationErrors, "OUTBOX_POLLING_INTERVAL must be greater than 0")
	}
	if c.Outbox.BatchSize <= 0 {
		validationErrors = append(validationErrors, "OUTBOX_BATCH_SIZE must be greater than 0")
	}
	if c.Outbox.MaxRetryAttempts <= 0 {
		validationErrors = append(validationErrors, "OUTBOX_MAX_RETRY_ATTEMPTS must be greater than 0")
	}

	if c.WorkerPool.Size <= 0 {
		validationErrors = append(validationErrors, "WORKER_POOL_SIZE must be greater than 0")
	}

	if c.Auth.JWTSecret == "" {
		validationErrors = append(validationErrors, "AUTH_JWT_SECRET is required")
	}

	// Exchange rates
	if c.ExchangeRate.CacheTTL <= 0 {
		validationErrors = append(validationErrors, "EXCHANGE_RATE_CACHE_TTL must be greater than 0")
	}
	if c.ExchangeRate.DefaultRate <= 0 {
		validationErrors = append(validationErrors, "EXCHANGE_RATE_DEFAULT_RATE must be greater than 0")
	}
	if len(c.ExchangeRate.BaseCurrency) != 3 || len(c.ExchangeRate.LocalCurrency) != 3 {
		validationErrors = append(validationErrors, "EXCHANGE_RATE_BASE_CURRENCY and EXCHANGE_RATE_LOCAL_CURRENCY must be 3-letter codes")
	}

	if c.Shopify.PageSize <= 0 || c.Shopify.PageSize > 250 {
		validationErrors = append(validationErrors, "SHOPIFY_PAGE_SIZE must be between 1 and 250")
	}

	if len(validationErrors) > 0 {
		return errors.New(strings.Join(validationErrors, ", "))
	}

	return nil
}
