// Package config provides centralized configuration management for the application.
// It loads configuration from environment variables with sensible defaults and
// validates all settings on startup to fail fast on misconfiguration.
package config

import "time"

// Config holds all application configuration.
// All settings can be configured via environment variables.
type Config struct {
	Server   ServerConfig
	Postgres PostgresConfig
	Mongo    MongoConfig
	Blob     BlobConfig
	Upload   UploadConfig
	Insight  InsightConfig
	Auth     AuthConfig
	Rate     RateLimitConfig
	Logging  LoggingConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`

	// Port is the port to listen on (default: 8001)
	Port int `env:"SERVER_PORT" default:"8001"`

	// ReadTimeout is the maximum duration for reading request body.
	// Zero disables it so multi-hundred-megabyte uploads are not cut off.
	ReadTimeout time.Duration `env:"SERVER_READ_TIMEOUT" default:"0s"`

	// WriteTimeout is the maximum duration for writing response.
	// Ingestion responses wait on the full pipeline, so this stays generous.
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"15m"`

	// IdleTimeout is the keep-alive timeout (default: 60s)
	IdleTimeout time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown (default: 30s)
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// TrustedProxies is a comma-separated list of proxy CIDRs whose
	// forwarding headers may be believed
	TrustedProxies []string `env:"TRUSTED_PROXIES"`
}

// PostgresConfig holds relational database settings for users and organizations.
type PostgresConfig struct {
	// URL is the PostgreSQL connection string (required)
	// Supports both DATABASE_URL and DB_URL env vars for compatibility
	URL string `env:"DATABASE_URL" envAlt:"DB_URL" required:"true"`

	// MaxConns is the maximum number of connections in the pool (default: 20)
	MaxConns int `env:"DB_MAX_CONNS" default:"20"`

	// MinConns is the minimum number of connections to keep open (default: 4)
	MinConns int `env:"DB_MIN_CONNS" default:"4"`

	// MaxConnLifetime is the maximum lifetime of a connection (default: 1h)
	MaxConnLifetime time.Duration `env:"DB_MAX_CONN_LIFETIME" default:"1h"`

	// MaxConnIdleTime is the maximum idle time before a connection is closed (default: 30m)
	MaxConnIdleTime time.Duration `env:"DB_MAX_CONN_IDLE_TIME" default:"30m"`
}

// MongoConfig holds document store settings for ingested CSV records.
type MongoConfig struct {
	// URI is the MongoDB connection string (required)
	URI string `env:"MONGO_URI" required:"true"`

	// Database is the database name (default: csvhub)
	Database string `env:"MONGO_DATABASE" default:"csvhub"`

	// Collection is the records collection name (default: csv_records)
	Collection string `env:"MONGO_COLLECTION" default:"csv_records"`

	// ConnectTimeout bounds the initial connection attempt (default: 10s)
	ConnectTimeout time.Duration `env:"MONGO_CONNECT_TIMEOUT" default:"10s"`
}

// BlobConfig holds uploaded-file storage settings.
type BlobConfig struct {
	// Backend selects the blob store: "local" or "s3" (default: local)
	Backend string `env:"BLOB_BACKEND" default:"local"`

	// Dir is the storage directory for the local backend (default: uploads)
	Dir string `env:"BLOB_DIR" default:"uploads"`

	// S3Bucket is the bucket name, required when Backend is "s3"
	S3Bucket string `env:"BLOB_S3_BUCKET"`

	// S3Region is the bucket region
	S3Region string `env:"BLOB_S3_REGION"`

	// S3Prefix is the key prefix for stored objects (default: uploads)
	S3Prefix string `env:"BLOB_S3_PREFIX" default:"uploads"`

	// S3Endpoint overrides the S3 endpoint, for S3-compatible stores
	S3Endpoint string `env:"BLOB_S3_ENDPOINT"`
}

// UploadConfig holds CSV ingestion settings.
type UploadConfig struct {
	// MaxFileSize is the maximum allowed file size in bytes (default: 350MB)
	MaxFileSize int64 `env:"UPLOAD_MAX_FILE_SIZE" default:"367001600"`

	// MaxConcurrent is the maximum number of parallel ingestions (default: 5)
	MaxConcurrent int `env:"UPLOAD_MAX_CONCURRENT" default:"5"`

	// MaxWaitTime is how long to wait for an ingestion slot (default: 30s)
	MaxWaitTime time.Duration `env:"UPLOAD_MAX_WAIT_TIME" default:"30s"`

	// BatchSize is the number of records per bulk insert (default: 1000)
	BatchSize int `env:"UPLOAD_BATCH_SIZE" default:"1000"`

	// SampleSize is how many leading records are kept for summarization (default: 10)
	SampleSize int `env:"UPLOAD_SAMPLE_SIZE" default:"10"`

	// RepairColumns lists columns holding embedded Python-style list literals (default: crew)
	RepairColumns []string `env:"UPLOAD_REPAIR_COLUMNS" default:"crew"`

	// Timeout is the maximum duration for a single ingestion (default: 10m)
	Timeout time.Duration `env:"UPLOAD_TIMEOUT" default:"10m"`
}

// InsightConfig holds AI summarization settings.
type InsightConfig struct {
	// Enabled controls whether ingestion responses include an AI summary (default: true)
	// Summarization is skipped regardless when no API key is configured.
	Enabled bool `env:"INSIGHT_ENABLED" default:"true"`

	// OpenAIKey is the OpenAI API key. Empty disables summarization.
	OpenAIKey string `env:"OPENAI_API_KEY"`

	// Model is the chat model to use (default: gpt-3.5-turbo)
	Model string `env:"INSIGHT_MODEL" default:"gpt-3.5-turbo"`
}

// AuthConfig holds session token settings.
type AuthConfig struct {
	// JWTSecret signs session tokens (required)
	JWTSecret string `env:"JWT_SECRET" required:"true"`

	// TokenTTL is how long a session token stays valid (default: 1h)
	TokenTTL time.Duration `env:"AUTH_TOKEN_TTL" default:"1h"`
}

// RateLimitConfig holds rate limiting settings per time window.
type RateLimitConfig struct {
	// Enabled controls whether rate limiting is active (default: true)
	Enabled bool `env:"RATE_LIMIT_ENABLED" default:"true"`

	// RequestsPerMinute is the default rate limit per IP (default: 100)
	RequestsPerMinute int `env:"RATE_LIMIT_REQUESTS_PER_MINUTE" default:"100"`

	// UploadLimit is requests per minute for upload endpoints (default: 10)
	UploadLimit int `env:"RATE_LIMIT_UPLOAD" default:"10"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	if c.Host == "" {
		return ":" + itoa(c.Port)
	}
	return c.Host + ":" + itoa(c.Port)
}

// itoa converts an int to string without importing strconv in this file.
func itoa(i int) string {
	if i == 0 {
		return "0"
	}
	var b [20]byte
	n := len(b)
	neg := i < 0
	if neg {
		i = -i
	}
	for i > 0 {
		n--
		b[n] = byte('0' + i%10)
		i /= 10
	}
	if neg {
		n--
		b[n] = '-'
	}
	return string(b[n:])
}
