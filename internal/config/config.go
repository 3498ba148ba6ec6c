// Package config provides centralized configuration for the importer
// binaries. It loads settings from environment variables with sensible
// defaults and validates everything on startup to fail fast on
// misconfiguration.
package config

import (
	"strconv"
	"time"

	"github.com/agbanzy/pollingunits/internal/core"
)

// Config holds all application configuration.
// All settings can be configured via environment variables.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Store    StoreConfig
	Import   ImportConfig
	Security SecurityConfig
	Logging  LoggingConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`

	// Port is the port to listen on (default: 8080)
	Port int `env:"SERVER_PORT" default:"8080"`

	// ReadTimeout bounds reading a request, including an uploaded registry (default: 60s)
	ReadTimeout time.Duration `env:"SERVER_READ_TIMEOUT" default:"60s"`

	// WriteTimeout is 0 so SSE progress streams stay open
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"0s"`

	// IdleTimeout is the keep-alive timeout (default: 60s)
	IdleTimeout time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`

	// ShutdownTimeout is how long shutdown waits for a running import (default: 2m)
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"2m"`

	// RequestTimeout is the middleware timeout for non-streaming requests (default: 60s)
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"60s"`
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	// URL is the PostgreSQL connection string, required for the postgres backend.
	// Supports both DATABASE_URL and DB_URL env vars for compatibility
	URL string `env:"DATABASE_URL" envAlt:"DB_URL"`

	// MaxConns is the maximum number of connections in the pool (default: 4).
	// Imports write serially, so a small pool is enough.
	MaxConns int `env:"DB_MAX_CONNS" default:"4"`

	// MinConns is the minimum number of connections to keep open (default: 1)
	MinConns int `env:"DB_MIN_CONNS" default:"1"`

	// MaxConnLifetime is the maximum lifetime of a connection (default: 1h)
	MaxConnLifetime time.Duration `env:"DB_MAX_CONN_LIFETIME" default:"1h"`

	// MaxConnIdleTime is the maximum idle time before a connection is closed (default: 30m)
	MaxConnIdleTime time.Duration `env:"DB_MAX_CONN_IDLE_TIME" default:"30m"`
}

// StoreConfig selects the persistence backend.
type StoreConfig struct {
	// Backend is one of postgres, sqlite, memory (default: postgres)
	Backend string `env:"STORE_BACKEND" default:"postgres"`

	// SQLitePath is the database file for the sqlite backend (default: pollingunits.db)
	SQLitePath string `env:"SQLITE_PATH" default:"pollingunits.db"`

	// AutoMigrate applies migrations and seeds states on startup (default: true)
	AutoMigrate bool `env:"STORE_AUTO_MIGRATE" default:"true"`
}

// ImportConfig holds import run settings.
type ImportConfig struct {
	// ChunkSize is the number of rows per store write (default: 500)
	ChunkSize int `env:"IMPORT_CHUNK_SIZE" default:"500"`

	// SourceFile is the registry file used when none is given on the command line
	SourceFile string `env:"IMPORT_SOURCE_FILE"`

	// ClearExisting deletes all polling units before loading (default: false)
	ClearExisting bool `env:"IMPORT_CLEAR_EXISTING" default:"false"`

	// MaxFileSize is the largest accepted upload in bytes (default: 64MB)
	MaxFileSize int64 `env:"IMPORT_MAX_FILE_SIZE" default:"67108864"`

	// MaxWaitTime is how long a new run waits for a running one (default: 5s)
	MaxWaitTime time.Duration `env:"IMPORT_MAX_WAIT_TIME" default:"5s"`

	// Bounding box for coordinate gating, approximating Nigeria.
	MinLat float64 `env:"IMPORT_BBOX_MIN_LAT" default:"4.0"`
	MaxLat float64 `env:"IMPORT_BBOX_MAX_LAT" default:"14.0"`
	MinLng float64 `env:"IMPORT_BBOX_MIN_LNG" default:"2.5"`
	MaxLng float64 `env:"IMPORT_BBOX_MAX_LNG" default:"15.0"`
}

// SecurityConfig holds access control settings for the HTTP service.
type SecurityConfig struct {
	// RequireAPIKey guards import submission with X-API-Key (default: false)
	RequireAPIKey bool `env:"REQUIRE_API_KEY" default:"false"`

	// APIKeys is a comma-separated list of accepted keys
	APIKeys []string `env:"API_KEYS"`

	// TrustedProxies is a comma-separated list of CIDRs whose X-Real-IP and
	// X-Forwarded-For headers are honored
	TrustedProxies []string `env:"TRUSTED_PROXIES"`

	// RequestsPerMinute is the per-IP rate limit, 0 disables it (default: 120)
	RequestsPerMinute int `env:"RATE_LIMIT_RPM" default:"120"`
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

// Bounds returns the coordinate gate box.
func (c *ImportConfig) Bounds() core.Bounds {
	return core.Bounds{
		MinLat: c.MinLat, MaxLat: c.MaxLat,
		MinLng: c.MinLng, MaxLng: c.MaxLng,
	}
}
