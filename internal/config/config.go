// Package config provides configuration management for the pedido tracker.
//
// Configuration is loaded from:
// 1. config.yaml file (optional)
// 2. Environment variables (standard names like SHEET_SPREADSHEET_ID, SERVER_PORT)
// 3. Default values
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the root configuration structure.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Sheet     SheetConfig     `mapstructure:"sheet"`
	Blob      BlobConfig      `mapstructure:"blob"`
	Engine    EngineConfig    `mapstructure:"engine"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Log       LogConfig       `mapstructure:"log"`
	Security  SecurityConfig  `mapstructure:"security"`
	Worker    WorkerConfig    `mapstructure:"worker"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	CORSOrigins     []string      `mapstructure:"cors_origins"`
}

// SheetConfig contains tabular store (Google Sheets) settings.
type SheetConfig struct {
	SpreadsheetID   string        `mapstructure:"spreadsheet_id"`
	SheetName       string        `mapstructure:"sheet_name"`
	CredentialsFile string        `mapstructure:"credentials_file"`

	// CacheTTL bounds how long a fetched snapshot may be served without a
	// re-read. Successful writes invalidate the cache regardless.
	CacheTTL         time.Duration `mapstructure:"cache_ttl"`
	OperationTimeout time.Duration `mapstructure:"operation_timeout"`
}

// BlobConfig contains object store (S3) settings.
type BlobConfig struct {
	Bucket   string `mapstructure:"bucket"`
	Region   string `mapstructure:"region"`
	Endpoint string `mapstructure:"endpoint"` // optional, for S3-compatible stores

	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`

	// BasePath is the known prefix under which order folders live, e.g. "orders/".
	BasePath string `mapstructure:"base_path"`

	// ListCap bounds a per-prefix listing; ScanCap bounds the full-bucket
	// fallback scan during prefix resolution.
	ListCap int `mapstructure:"list_cap"`
	ScanCap int `mapstructure:"scan_cap"`

	OperationTimeout time.Duration `mapstructure:"operation_timeout"`
}

// EngineConfig contains lifecycle engine settings.
type EngineConfig struct {
	// EscalationAfter is how long an order may sit Pending before the sweep
	// promotes it to Delayed.
	EscalationAfter time.Duration `mapstructure:"escalation_after"`

	// Timezone is the fixed civil time zone all staleness math is done in,
	// regardless of the offset embedded in stored timestamps.
	Timezone string `mapstructure:"timezone"`
}

// SchedulerConfig contains reconciliation loop settings.
type SchedulerConfig struct {
	Interval time.Duration `mapstructure:"interval"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // json or console
}

// SecurityConfig contains security-related settings.
// Token issuance is external; the tracker only verifies bearer tokens.
type SecurityConfig struct {
	JWTSigningKey string `mapstructure:"jwt_signing_key"`
	AuthDisabled  bool   `mapstructure:"auth_disabled"`
}

// WorkerConfig contains worker pool settings.
type WorkerConfig struct {
	GeneralPoolSize int `mapstructure:"general_pool_size"`
	BlobPoolSize    int `mapstructure:"blob_pool_size"`
}

// Load reads configuration from file and environment variables.
// Standard environment variables without prefix (SHEET_SPREADSHEET_ID, LOG_LEVEL, etc.).
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/pedido-tracker")

	// Maps nested config: sheet.spreadsheet_id → SHEET_SPREADSHEET_ID
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config: %w", err)
		}
		// Config file is optional, use defaults and env vars
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

// Validate checks for critical configuration errors.
func (c *Config) Validate() error {
	if c.Sheet.SpreadsheetID == "" {
		return fmt.Errorf("sheet.spreadsheet_id must not be empty")
	}
	if c.Sheet.SheetName == "" {
		return fmt.Errorf("sheet.sheet_name must not be empty")
	}
	if c.Engine.EscalationAfter <= 0 {
		return fmt.Errorf("engine.escalation_after must be positive")
	}
	if _, err := time.LoadLocation(c.Engine.Timezone); err != nil {
		return fmt.Errorf("engine.timezone %q: %w", c.Engine.Timezone, err)
	}
	if !c.Security.AuthDisabled && c.Security.JWTSigningKey == "" {
		return fmt.Errorf("security.jwt_signing_key must be set unless security.auth_disabled is true")
	}
	return nil
}

// Location returns the engine's civil time zone. Validate() guarantees the
// name loads; an unvalidated config falls back to UTC.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Engine.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// setDefaults registers every config key. AutomaticEnv only resolves keys
// viper already knows about, so env-only keys (ids, credentials, secrets)
// get an explicit empty default.
func setDefaults(v *viper.Viper) {
	// Server
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.shutdown_timeout", "30s")
	v.SetDefault("server.cors_origins", []string{"*"})

	// Sheet
	v.SetDefault("sheet.spreadsheet_id", "")
	v.SetDefault("sheet.sheet_name", "Orders")
	v.SetDefault("sheet.credentials_file", "")
	v.SetDefault("sheet.cache_ttl", "60s")
	v.SetDefault("sheet.operation_timeout", "30s")

	// Blob
	v.SetDefault("blob.bucket", "")
	v.SetDefault("blob.region", "us-east-1")
	v.SetDefault("blob.endpoint", "")
	v.SetDefault("blob.access_key_id", "")
	v.SetDefault("blob.secret_access_key", "")
	v.SetDefault("blob.base_path", "orders/")
	v.SetDefault("blob.list_cap", 100)
	v.SetDefault("blob.scan_cap", 1000)
	v.SetDefault("blob.operation_timeout", "15s")

	// Engine
	v.SetDefault("engine.escalation_after", "1h")
	v.SetDefault("engine.timezone", "America/Monterrey")

	// Scheduler
	v.SetDefault("scheduler.interval", "60s")

	// Log
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Security
	v.SetDefault("security.jwt_signing_key", "")
	v.SetDefault("security.auth_disabled", false)

	// Worker pools
	v.SetDefault("worker.general_pool_size", 50)
	v.SetDefault("worker.blob_pool_size", 20)
}
