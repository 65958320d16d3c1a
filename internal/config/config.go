// Package config provides configuration management for ringi.
//
// Configuration is loaded from:
// 1. config.yaml file (optional)
// 2. Environment variables (standard names like DATABASE_URL, SERVER_PORT)
// 3. Default values
package config

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// Config is the root configuration structure.
type Config struct {
	Server       ServerConfig       `mapstructure:"server"`
	Database     DatabaseConfig     `mapstructure:"database"`
	Session      SessionConfig      `mapstructure:"session"`
	Log          LogConfig          `mapstructure:"log"`
	River        RiverConfig        `mapstructure:"river"`
	Security     SecurityConfig     `mapstructure:"security"`
	EventBus     EventBusConfig     `mapstructure:"eventbus"`
	Notification NotificationConfig `mapstructure:"notification"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`

	// CORS. AllowedOrigins is ignored when UnsafeAllowAllOrigins is true.
	AllowedOrigins        []string `mapstructure:"allowed_origins"`
	AllowCredentials      bool     `mapstructure:"allow_credentials"`
	UnsafeAllowAllOrigins bool     `mapstructure:"unsafe_allow_all_origins"`
}

// DatabaseConfig contains PostgreSQL connection settings, shared by the
// store/audit layer, River's durable outbox, and migrations.
type DatabaseConfig struct {
	URL string `mapstructure:"url"`

	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Database string `mapstructure:"database"`
	SSLMode  string `mapstructure:"sslmode"`

	// Pool configuration (shared by the store/audit layer and River)
	MaxConns        int32         `mapstructure:"max_conns"`
	MinConns        int32         `mapstructure:"min_conns"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
	MaxConnIdleTime time.Duration `mapstructure:"max_conn_idle_time"`

	AutoMigrate bool `mapstructure:"auto_migrate"`
}

// DSN returns the PostgreSQL connection string.
// Priority: DATABASE_URL > constructed from individual fields.
func (c DatabaseConfig) DSN() string {
	if c.URL != "" {
		return c.URL
	}
	sslmode := c.SSLMode
	if sslmode == "" {
		sslmode = "disable"
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Database, sslmode,
	)
}

// SessionConfig contains session settings. There is no server-side session
// store; Lifetime is used as the expiry of issued JWTs.
type SessionConfig struct {
	Lifetime    time.Duration `mapstructure:"lifetime"`
	IdleTimeout time.Duration `mapstructure:"idle_timeout"`
	Cookie      string        `mapstructure:"cookie"`
	Secure      bool          `mapstructure:"secure"`
	HttpOnly    bool          `mapstructure:"http_only"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // json or console
}

// RiverConfig contains River Queue settings, used only when EventBus.Outbox
// selects the durable outbox.Bus implementation over the in-process one.
type RiverConfig struct {
	MaxWorkers                  int           `mapstructure:"max_workers"`
	CompletedJobRetentionPeriod time.Duration `mapstructure:"completed_job_retention_period"`
}

// SecurityConfig contains security-related settings.
// Secrets are auto-generated on first boot if missing (see ensureSecrets).
type SecurityConfig struct {
	EncryptionKey       string   `mapstructure:"encryption_key"`
	SessionSecret       string   `mapstructure:"session_secret"`
	JWTVerificationKeys []string `mapstructure:"jwt_verification_keys"`

	// PasswordHashCost is the bcrypt cost internal/directory's demo/reference
	// UserDirectory hashes seeded account passwords at.
	PasswordHashCost int `mapstructure:"password_hash_cost"`
}

// EventBusConfig sizes the dispatch pool behind C6 (internal/eventbus) and
// selects which EventBus implementation is wired: the default in-process
// ants-backed bus, or the durable River-backed outbox.
type EventBusConfig struct {
	Outbox        bool          `mapstructure:"outbox"`
	Core          int           `mapstructure:"core"`
	Max           int           `mapstructure:"max"`
	QueueCapacity int           `mapstructure:"queue_capacity"`
	TaskTimeout   time.Duration `mapstructure:"task_timeout"`
}

// NotificationConfig controls the mail-shaped listener's inbox retention job.
type NotificationConfig struct {
	RetentionPeriod time.Duration `mapstructure:"retention_period"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
}

var (
	bootstrapLoggerOnce sync.Once
	bootstrapLogger     *zap.Logger
)

// Load reads configuration from file and environment variables.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/ringi")

	// No prefix: uses standard names like DATABASE_URL, SERVER_PORT, LOG_LEVEL.
	// Maps nested config: database.max_conns → DATABASE_MAX_CONNS
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

	// Auto-generate secrets on first boot if missing.
	if err := cfg.ensureSecrets(); err != nil {
		return nil, fmt.Errorf("ensure secrets: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

// Validate checks for critical configuration errors.
func (c *Config) Validate() error {
	if c.Security.SessionSecret == "" {
		return fmt.Errorf("security.session_secret must not be empty")
	}
	if len(c.Security.SessionSecret) < 32 {
		return fmt.Errorf("security.session_secret must be at least 32 characters")
	}
	return nil
}

// ensureSecrets auto-generates missing secrets on first boot.
func (c *Config) ensureSecrets() error {
	if c.Security.SessionSecret == "" {
		secret, err := generateSecureRandomHex(32)
		if err != nil {
			return fmt.Errorf("auto-generate session secret: %w", err)
		}
		c.Security.SessionSecret = secret
		logBootstrapWarn(
			"auto-generated session_secret; set SECURITY_SESSION_SECRET env var for persistence",
			zap.Int("length", len(secret)),
		)
	}
	if c.Security.EncryptionKey == "" {
		key, err := generateSecureRandomHex(32)
		if err != nil {
			return fmt.Errorf("auto-generate encryption key: %w", err)
		}
		c.Security.EncryptionKey = key
		logBootstrapWarn(
			"auto-generated encryption_key; set SECURITY_ENCRYPTION_KEY env var for persistence",
			zap.Int("length", len(key)),
		)
	}
	return nil
}

func logBootstrapWarn(msg string, fields ...zap.Field) {
	bootstrapLoggerOnce.Do(func() {
		cfg := zap.NewProductionConfig()
		cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)

		l, err := cfg.Build()
		if err != nil {
			bootstrapLogger = zap.NewNop()
			return
		}
		bootstrapLogger = l
	})

	bootstrapLogger.Warn(msg, fields...)
}

// generateSecureRandomHex produces a hex-encoded string of n random bytes.
func generateSecureRandomHex(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("crypto/rand: %w", err)
	}
	return hex.EncodeToString(b), nil
}

func setDefaults(v *viper.Viper) {
	// Server
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.shutdown_timeout", "30s")
	v.SetDefault("server.allowed_origins", []string{})
	v.SetDefault("server.allow_credentials", true)
	v.SetDefault("server.unsafe_allow_all_origins", false)

	// Database
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "ringi")
	v.SetDefault("database.password", "")
	v.SetDefault("database.database", "ringi")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_conns", 20)
	v.SetDefault("database.min_conns", 2)
	v.SetDefault("database.max_conn_lifetime", "1h")
	v.SetDefault("database.max_conn_idle_time", "10m")
	v.SetDefault("database.auto_migrate", false)

	// Session
	v.SetDefault("session.lifetime", "24h")
	v.SetDefault("session.idle_timeout", "30m")
	v.SetDefault("session.cookie", "session_id")
	v.SetDefault("session.secure", true)
	v.SetDefault("session.http_only", true)

	// Log
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// River (used only when eventbus.outbox is true)
	v.SetDefault("river.max_workers", 10)
	v.SetDefault("river.completed_job_retention_period", "24h")

	// Security
	v.SetDefault("security.jwt_verification_keys", []string{})
	v.SetDefault("security.password_hash_cost", 10)

	// EventBus (C6) — spec.md's "core=5, max=10, queue=100" defaults.
	v.SetDefault("eventbus.outbox", false)
	v.SetDefault("eventbus.core", 5)
	v.SetDefault("eventbus.max", 10)
	v.SetDefault("eventbus.queue_capacity", 100)
	v.SetDefault("eventbus.task_timeout", "10s")

	// Notification inbox retention job.
	v.SetDefault("notification.retention_period", "720h")
	v.SetDefault("notification.cleanup_interval", "1h")
}
