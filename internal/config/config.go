package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	Store    string // StoreMemory or StorePostgres
	Database DatabaseConfig
	Redis    RedisConfig
	JWT      JWTConfig
	Server   ServerConfig
	Audit    AuditConfig
	Slack    SlackConfig
	Log      LogConfig
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string //nolint:gosec // G117: DB connection config
	DBName   string
	SSLMode  string
	MaxConns int
}

// RedisConfig holds Redis connection settings. Live timelines are only
// served when Enabled is true.
type RedisConfig struct {
	Enabled  bool
	Addr     string
	Password string //nolint:gosec // G117: Redis connection config
	DB       int
}

// JWTConfig holds JWT authentication settings.
type JWTConfig struct {
	Secret     string //nolint:gosec // G117: JWT signing secret config
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	CORSOrigins  []string

	// Per authenticated user.
	RateLimitRPS   float64
	RateLimitBurst int

	// Per client IP on /auth/*.
	AuthRateLimitRPS   float64
	AuthRateLimitBurst int
}

type AuditConfig struct {
	MaxAppendAttempts int
}

// SlackConfig holds integrity alert settings. Alerts are only logged when
// BotToken is empty.
type SlackConfig struct {
	BotToken     string
	AlertChannel string
}

type LogConfig struct {
	Level  string
	Format string // "json" or "text"
}

// Load reads configuration from environment variables.
// Defaults are safe for local development only. In production,
// sensitive values (JWT secret, DB password) must be set explicitly.
func Load() (*Config, error) {
	dbPort, err := getEnvInt("ASSETLEDGER_DB_PORT", 5432)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	dbMaxConns, err := getEnvInt("ASSETLEDGER_DB_MAX_CONNS", 25)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	redisEnabled, err := getEnvBool("ASSETLEDGER_REDIS_ENABLED", false)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	redisDB, err := getEnvInt("ASSETLEDGER_REDIS_DB", 0)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	accessTTL, err := getEnvDuration("ASSETLEDGER_JWT_ACCESS_TTL", 15*time.Minute)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	refreshTTL, err := getEnvDuration("ASSETLEDGER_JWT_REFRESH_TTL", 7*24*time.Hour)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	readTimeout, err := getEnvDuration("ASSETLEDGER_SERVER_READ_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	writeTimeout, err := getEnvDuration("ASSETLEDGER_SERVER_WRITE_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	rateRPS, err := getEnvFloat("ASSETLEDGER_RATE_LIMIT_RPS", 100)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	rateBurst, err := getEnvInt("ASSETLEDGER_RATE_LIMIT_BURST", 200)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	authRPS, err := getEnvFloat("ASSETLEDGER_AUTH_RATE_LIMIT_RPS", 5)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	authBurst, err := getEnvInt("ASSETLEDGER_AUTH_RATE_LIMIT_BURST", 10)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	maxAttempts, err := getEnvInt("ASSETLEDGER_AUDIT_MAX_APPEND_ATTEMPTS", 5)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	corsOrigins := getEnvList("ASSETLEDGER_CORS_ORIGINS", []string{"http://localhost:5173"})

	cfg := &Config{
		Store: getEnv("ASSETLEDGER_STORE", StorePostgres),
		Database: DatabaseConfig{
			Host:     getEnv("ASSETLEDGER_DB_HOST", "localhost"),
			Port:     dbPort,
			User:     getEnv("ASSETLEDGER_DB_USER", "assetledger"),
			Password: getEnv("ASSETLEDGER_DB_PASSWORD", ""),
			DBName:   getEnv("ASSETLEDGER_DB_NAME", "assetledger_dev"),
			SSLMode:  getEnv("ASSETLEDGER_DB_SSLMODE", "disable"),
			MaxConns: dbMaxConns,
		},
		Redis: RedisConfig{
			Enabled:  redisEnabled,
			Addr:     getEnv("ASSETLEDGER_REDIS_ADDR", "localhost:6379"),
			Password: getEnv("ASSETLEDGER_REDIS_PASSWORD", ""),
			DB:       redisDB,
		},
		JWT: JWTConfig{
			Secret:     getEnv("ASSETLEDGER_JWT_SECRET", ""),
			AccessTTL:  accessTTL,
			RefreshTTL: refreshTTL,
		},
		Server: ServerConfig{
			Addr:               getEnv("ASSETLEDGER_SERVER_ADDR", ":8080"),
			ReadTimeout:        readTimeout,
			WriteTimeout:       writeTimeout,
			CORSOrigins:        corsOrigins,
			RateLimitRPS:       rateRPS,
			RateLimitBurst:     rateBurst,
			AuthRateLimitRPS:   authRPS,
			AuthRateLimitBurst: authBurst,
		},
		Audit: AuditConfig{
			MaxAppendAttempts: maxAttempts,
		},
		Slack: SlackConfig{
			BotToken:     getEnv("ASSETLEDGER_SLACK_BOT_TOKEN", ""),
			AlertChannel: getEnv("ASSETLEDGER_SLACK_ALERT_CHANNEL", ""),
		},
		Log: LogConfig{
			Level:  getEnv("ASSETLEDGER_LOG_LEVEL", "info"),
			Format: getEnv("ASSETLEDGER_LOG_FORMAT", "json"),
		},
	}

	err = cfg.Validate()
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	return cfg, nil
}

// Validate checks required fields and value bounds. Call it again after
// overriding fields from command-line flags.
func (c *Config) Validate() error {
	// JWT secret is required (no insecure default).
	if c.JWT.Secret == "" {
		return errors.New("ASSETLEDGER_JWT_SECRET is required")
	}
	if len(c.JWT.Secret) < 32 {
		return errors.New("ASSETLEDGER_JWT_SECRET must be at least 32 characters")
	}

	switch c.Store {
	case StoreMemory, StorePostgres:
	default:
		return fmt.Errorf("ASSETLEDGER_STORE must be %q or %q, got %q", StoreMemory, StorePostgres, c.Store)
	}

	if c.Store == StorePostgres && c.Database.SSLMode == "disable" {
		log.Warn().Msg("ASSETLEDGER_DB_SSLMODE=disable is insecure for production; set to 'require' or 'verify-full'")
	}

	// Bounds checks.
	if c.Database.Port < 1 || c.Database.Port > 65535 {
		return fmt.Errorf("ASSETLEDGER_DB_PORT must be 1-65535, got %d", c.Database.Port)
	}
	if c.Database.MaxConns < 1 {
		return fmt.Errorf("ASSETLEDGER_DB_MAX_CONNS must be >= 1, got %d", c.Database.MaxConns)
	}
	if c.JWT.AccessTTL <= 0 {
		return fmt.Errorf("ASSETLEDGER_JWT_ACCESS_TTL must be positive, got %s", c.JWT.AccessTTL)
	}
	if c.JWT.RefreshTTL <= 0 {
		return fmt.Errorf("ASSETLEDGER_JWT_REFRESH_TTL must be positive, got %s", c.JWT.RefreshTTL)
	}
	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("ASSETLEDGER_SERVER_READ_TIMEOUT must be positive, got %s", c.Server.ReadTimeout)
	}
	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("ASSETLEDGER_SERVER_WRITE_TIMEOUT must be positive, got %s", c.Server.WriteTimeout)
	}
	if c.Server.RateLimitRPS <= 0 || c.Server.RateLimitBurst < 1 {
		return fmt.Errorf("ASSETLEDGER_RATE_LIMIT_RPS and _BURST must be positive, got %g/%d", c.Server.RateLimitRPS, c.Server.RateLimitBurst)
	}
	if c.Server.AuthRateLimitRPS <= 0 || c.Server.AuthRateLimitBurst < 1 {
		return fmt.Errorf("ASSETLEDGER_AUTH_RATE_LIMIT_RPS and _BURST must be positive, got %g/%d", c.Server.AuthRateLimitRPS, c.Server.AuthRateLimitBurst)
	}
	if c.Audit.MaxAppendAttempts < 1 {
		return fmt.Errorf("ASSETLEDGER_AUDIT_MAX_APPEND_ATTEMPTS must be >= 1, got %d", c.Audit.MaxAppendAttempts)
	}
	if c.Slack.BotToken != "" && c.Slack.AlertChannel == "" {
		return errors.New("ASSETLEDGER_SLACK_ALERT_CHANNEL is required when ASSETLEDGER_SLACK_BOT_TOKEN is set")
	}
	if c.Log.Format != "json" && c.Log.Format != "text" {
		return fmt.Errorf("ASSETLEDGER_LOG_FORMAT must be json or text, got %q", c.Log.Format)
	}

	return nil
}

// DSN returns the PostgreSQL connection string.
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

// MigrateURL returns the pgx5:// URL used by the schema migrator.
func (c *DatabaseConfig) MigrateURL() string {
	u := url.URL{
		Scheme:   "pgx5",
		User:     url.UserPassword(c.User, c.Password),
		Host:     net.JoinHostPort(c.Host, strconv.Itoa(c.Port)),
		Path:     "/" + c.DBName,
		RawQuery: url.Values{"sslmode": []string{c.SSLMode}}.Encode(),
	}
	return u.String()
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("parsing %s=%q as int: %w", key, v, err)
	}
	return n, nil
}

func getEnvFloat(key string, fallback float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("parsing %s=%q as float: %w", key, v, err)
	}
	return f, nil
}

func getEnvBool(key string, fallback bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("parsing %s=%q as bool: %w", key, v, err)
	}
	return b, nil
}

func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("parsing %s=%q as duration: %w", key, v, err)
	}
	return d, nil
}

func getEnvList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parts := strings.Split(v, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}
