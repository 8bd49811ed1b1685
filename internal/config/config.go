// Package config provides centralized configuration management for the application.
// It loads configuration from environment variables with sensible defaults and
// validates all settings on startup to fail fast on misconfiguration.
package config

import (
	"strconv"
	"time"
)

// Config holds all application configuration.
// All settings can be configured via environment variables.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Parser   ParserConfig
	Source   SourceConfig
	Upload   UploadConfig
	Security SecurityConfig
	Logging  LoggingConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`

	// Port is the port to listen on (default: 8080)
	Port int `env:"SERVER_PORT" default:"8080"`

	// ReadTimeout is the maximum duration for reading request body (default: 15s)
	ReadTimeout time.Duration `env:"SERVER_READ_TIMEOUT" default:"15s"`

	// WriteTimeout is the maximum duration for writing a response (default: 0, unlimited)
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"0s"`

	// IdleTimeout is the keep-alive timeout (default: 60s)
	IdleTimeout time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown (default: 30s)
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// RequestTimeout is the middleware timeout for requests (default: 60s)
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"60s"`
}

// DatabaseConfig holds database connection settings.
// The database is optional: without a URL, parsing works and imports are disabled.
type DatabaseConfig struct {
	// URL is the PostgreSQL connection string.
	// Supports both DATABASE_URL and DB_URL env vars for compatibility
	URL string `env:"DATABASE_URL" envAlt:"DB_URL"`

	// MaxConns is the maximum number of connections in the pool (default: 20)
	MaxConns int `env:"DB_MAX_CONNS" default:"20"`

	// MinConns is the minimum number of connections to keep open (default: 4)
	MinConns int `env:"DB_MIN_CONNS" default:"4"`

	// MaxConnLifetime is the maximum lifetime of a connection (default: 1h)
	MaxConnLifetime time.Duration `env:"DB_MAX_CONN_LIFETIME" default:"1h"`

	// MaxConnIdleTime is the maximum idle time before a connection is closed (default: 30m)
	MaxConnIdleTime time.Duration `env:"DB_MAX_CONN_IDLE_TIME" default:"30m"`
}

// Enabled reports whether a database URL is configured.
func (c DatabaseConfig) Enabled() bool {
	return c.URL != ""
}

// ParserConfig holds the defaults used to split and filter CSV lines.
type ParserConfig struct {
	// Separator splits a line into fields (default: ",")
	Separator string `env:"CSV_SEPARATOR" default:","`

	// Quoted enables double-quote handling around fields (default: true)
	Quoted bool `env:"CSV_QUOTED" default:"true"`

	// Quote is the quote character when Quoted is set (default: ")
	Quote string `env:"CSV_QUOTE" default:"\""`

	// Trim removes surrounding whitespace from every field (default: true)
	Trim bool `env:"CSV_TRIM" default:"true"`

	// SkipBlank drops lines containing only whitespace (default: true)
	SkipBlank bool `env:"CSV_SKIP_BLANK" default:"true"`

	// CommentPrefix drops lines starting with this text; empty disables it
	CommentPrefix string `env:"CSV_COMMENT_PREFIX"`

	// SkipHeader drops the first line of every input (default: true)
	SkipHeader bool `env:"CSV_SKIP_HEADER" default:"true"`

	// Parallelism is the number of mapping workers (default: 1)
	Parallelism int `env:"CSV_PARALLELISM" default:"1"`

	// Unordered lets parallel results arrive in completion order (default: false)
	Unordered bool `env:"CSV_UNORDERED" default:"false"`

	// BufferSize bounds rows in flight; 0 derives it from Parallelism
	BufferSize int `env:"CSV_BUFFER_SIZE" default:"0"`
}

// SourceConfig holds settings for decoding input bytes into lines.
type SourceConfig struct {
	// Encoding is the IANA or MIME name of the input charset (default: utf-8)
	Encoding string `env:"SOURCE_ENCODING" default:"utf-8"`

	// MaxLineSize is the longest accepted line in bytes (default: 1MB)
	MaxLineSize int `env:"SOURCE_MAX_LINE_SIZE" default:"1048576"`

	// Sanitize replaces invalid UTF-8 instead of passing it through (default: true)
	Sanitize bool `env:"SOURCE_SANITIZE" default:"true"`
}

// UploadConfig holds CSV upload processing settings.
type UploadConfig struct {
	// MaxFileSize is the maximum allowed file size in bytes (default: 100MB)
	MaxFileSize int64 `env:"UPLOAD_MAX_FILE_SIZE" default:"104857600"`

	// MaxConcurrent is the maximum number of parallel parse jobs (default: 5)
	MaxConcurrent int `env:"UPLOAD_MAX_CONCURRENT" default:"5"`

	// MaxWaitTime is how long to wait for a job slot (default: 30s)
	MaxWaitTime time.Duration `env:"UPLOAD_MAX_WAIT_TIME" default:"30s"`

	// Timeout is the maximum duration for a single parse or import (default: 10m)
	Timeout time.Duration `env:"UPLOAD_TIMEOUT" default:"10m"`

	// MaxReportItems caps the mapped items returned in a report; 0 keeps all (default: 1000)
	MaxReportItems int `env:"UPLOAD_MAX_REPORT_ITEMS" default:"1000"`

	// MaxFailedRows caps the failed rows kept in a report; 0 keeps all (default: 1000)
	MaxFailedRows int `env:"UPLOAD_MAX_FAILED_ROWS" default:"1000"`
}

// SecurityConfig holds security-related settings.
type SecurityConfig struct {
	// TrustedProxies is a comma-separated list of trusted proxy CIDRs
	TrustedProxies []string `env:"TRUSTED_PROXIES"`

	// RequireAPIKey enables X-API-Key authentication on /api routes (default: false)
	RequireAPIKey bool `env:"REQUIRE_API_KEY" default:"false"`

	// APIKeys is a comma-separated list of accepted keys
	APIKeys []string `env:"API_KEYS"`
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
	return c.Host + ":" + strconv.Itoa(c.Port)
}
