package internal

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Server        ServerConfig        `mapstructure:"http_server"`
	Database      DatabaseConfig      `mapstructure:"database"`
	Security      SecurityConfig      `mapstructure:"security"`
	Observability ObservabilityConfig `mapstructure:"observability"`
	Processor     ProcessorConfig     `mapstructure:"processor"`
	Fees          FeeScheduleConfig   `mapstructure:"fees"`
	Reconcile     ReconcileConfig     `mapstructure:"reconcile"`
}

type ServerConfig struct {
	Port              int           `mapstructure:"port"`
	BaseURL           string        `mapstructure:"base_url"`
	AllowedOrigins    string        `mapstructure:"allowed_origins"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout"`
	ReadTimeout       time.Duration `mapstructure:"read_timeout"`
	IdleTimeout       time.Duration `mapstructure:"idle_timeout"`
	WriteTimeout      time.Duration `mapstructure:"write_timeout"`
}

type DatabaseConfig struct {
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
	Source          string        `mapstructure:"source"`
}

type SecurityConfig struct {
	AccessTokenSecret    string        `mapstructure:"access_token_secret"`
	RefreshTokenSecret   string        `mapstructure:"refresh_token_secret"`
	AccessTokenDuration  time.Duration `mapstructure:"access_token_duration"`
	RefreshTokenDuration time.Duration `mapstructure:"refresh_token_duration"`
	BCryptCost           int           `mapstructure:"bcrypt_cost"`
}

// ProcessorConfig points at the external bank-debit processor.
type ProcessorConfig struct {
	BaseURL        string        `mapstructure:"base_url"`
	APIKey         string        `mapstructure:"api_key"`
	WebhookSecret  string        `mapstructure:"webhook_secret"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

// FeeScheduleConfig is the versioned fee schedule. PercentBps is the
// processor fee in basis points of the charged amount; floor and ceiling
// are in minor currency units. The resolved fee is persisted on every
// rent payment row, so changing these values never rewrites history.
type FeeScheduleConfig struct {
	Version    int   `mapstructure:"version"`
	PercentBps int64 `mapstructure:"percent_bps"`
	FloorMinor int64 `mapstructure:"floor_minor"`
	CeilMinor  int64 `mapstructure:"ceil_minor"`
}

// ReconcileConfig drives the sweep that resolves pending payments left
// ambiguous by a transport failure.
type ReconcileConfig struct {
	Interval   time.Duration `mapstructure:"interval"`
	PendingAge time.Duration `mapstructure:"pending_age"`
	BatchSize  int           `mapstructure:"batch_size"`
	MaxWorkers int           `mapstructure:"max_workers"`
}

type ObservabilityConfig struct {
	Metrics MetricsConfig `mapstructure:"metrics"`
	Logging LoggingConfig `mapstructure:"logging"`
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// ----------------- HELPERS -----------------

func getEnv(key, defaultVal string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvAsInt64(key string, defaultVal int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvAsDuration(key string, defaultVal time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultVal
}

// LoadConfigFromEnv builds a Config purely from environment variables,
// used for container deployments where no config file is mounted.
func LoadConfigFromEnv() *Config {
	return &Config{
		Server: ServerConfig{
			Port:              getEnvAsInt("SERVER_PORT", 8080),
			BaseURL:           getEnv("SERVER_BASE_URL", "http://localhost:8080"),
			AllowedOrigins:    getEnv("SERVER_ALLOWED_ORIGINS", "*"),
			ReadHeaderTimeout: getEnvAsDuration("SERVER_READ_HEADER_TIMEOUT", 5*time.Second),
			ReadTimeout:       getEnvAsDuration("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:      getEnvAsDuration("SERVER_WRITE_TIMEOUT", 15*time.Second),
			IdleTimeout:       getEnvAsDuration("SERVER_IDLE_TIMEOUT", 60*time.Second),
		},
		Database: DatabaseConfig{
			Source:          getEnv("DATABASE_URL", ""),
			MaxOpenConns:    getEnvAsInt("DATABASE_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getEnvAsInt("DATABASE_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvAsDuration("DATABASE_CONN_MAX_LIFETIME", 30*time.Minute),
			ConnMaxIdleTime: getEnvAsDuration("DATABASE_CONN_MAX_IDLE_TIME", 5*time.Minute),
		},
		Security: SecurityConfig{
			AccessTokenSecret:    getEnv("ACCESS_TOKEN_SECRET", ""),
			RefreshTokenSecret:   getEnv("REFRESH_TOKEN_SECRET", ""),
			AccessTokenDuration:  getEnvAsDuration("ACCESS_TOKEN_DURATION", 15*time.Minute),
			RefreshTokenDuration: getEnvAsDuration("REFRESH_TOKEN_DURATION", 7*24*time.Hour),
			BCryptCost:           getEnvAsInt("BCRYPT_COST", 10),
		},
		Processor: ProcessorConfig{
			BaseURL:        getEnv("PROCESSOR_BASE_URL", ""),
			APIKey:         getEnv("PROCESSOR_API_KEY", ""),
			WebhookSecret:  getEnv("PROCESSOR_WEBHOOK_SECRET", ""),
			RequestTimeout: getEnvAsDuration("PROCESSOR_REQUEST_TIMEOUT", 30*time.Second),
		},
		Fees: FeeScheduleConfig{
			Version:    getEnvAsInt("FEE_SCHEDULE_VERSION", 1),
			PercentBps: getEnvAsInt64("FEE_PERCENT_BPS", 100),
			FloorMinor: getEnvAsInt64("FEE_FLOOR_MINOR", 100),
			CeilMinor:  getEnvAsInt64("FEE_CEIL_MINOR", 1500),
		},
		Reconcile: ReconcileConfig{
			Interval:   getEnvAsDuration("RECONCILE_INTERVAL", 15*time.Minute),
			PendingAge: getEnvAsDuration("RECONCILE_PENDING_AGE", time.Hour),
			BatchSize:  getEnvAsInt("RECONCILE_BATCH_SIZE", 100),
			MaxWorkers: getEnvAsInt("RECONCILE_MAX_WORKERS", 4),
		},
		Observability: ObservabilityConfig{
			Metrics: MetricsConfig{
				Enabled: getEnv("METRICS_ENABLED", "true") == "true",
				Path:    getEnv("METRICS_PATH", "/metrics"),
			},
			Logging: LoggingConfig{
				Level:  getEnv("LOG_LEVEL", "info"),
				Format: getEnv("LOG_FORMAT", "json"),
			},
		},
	}
}

// ----------------- VALIDATION -----------------

func (c *Config) Validate() error {
	var errs []string

	if err := c.Server.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("server config: %v", err))
	}

	if err := c.Database.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("database config: %v", err))
	}

	if err := c.Security.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("security config: %v", err))
	}

	if err := c.Processor.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("processor config: %v", err))
	}

	if err := c.Fees.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("fee schedule config: %v", err))
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}

	return nil
}

func (c *ServerConfig) Validate() error {
	if c.AllowedOrigins != "" {
		origins := strings.Split(c.AllowedOrigins, ",")
		for _, origin := range origins {
			origin = strings.TrimSpace(origin)
			if origin == "*" {
				continue
			}
			if _, err := url.Parse(origin); err != nil {
				return fmt.Errorf("invalid allowed origin %s: %w", origin, err)
			}
		}
	}
	if c.ReadTimeout < c.ReadHeaderTimeout {
		return errors.New("read_timeout must be >= read_header_timeout")
	}
	return nil
}

func (c *DatabaseConfig) Validate() error {
	if c.MaxIdleConns > c.MaxOpenConns {
		return errors.New("max_idle_conns cannot be greater than max_open_conns")
	}
	return nil
}

func (c *DatabaseConfig) GetDSN() string {
	return c.Source
}

func (c *SecurityConfig) Validate() error {
	if len(c.AccessTokenSecret) < 32 {
		return errors.New("access token secret must be at least 32 characters")
	}
	if len(c.RefreshTokenSecret) < 32 {
		return errors.New("refresh token secret must be at least 32 characters")
	}
	if c.BCryptCost < 10 || c.BCryptCost > 15 {
		return errors.New("bcrypt cost must be between 10 and 15")
	}
	return nil
}

func (c *ProcessorConfig) Validate() error {
	if c.BaseURL == "" {
		return errors.New("processor base_url is required")
	}
	if _, err := url.Parse(c.BaseURL); err != nil {
		return fmt.Errorf("invalid processor base_url: %w", err)
	}
	if c.WebhookSecret == "" {
		return errors.New("processor webhook_secret is required")
	}
	return nil
}

func (c *FeeScheduleConfig) Validate() error {
	if c.Version < 1 {
		return errors.New("fee schedule version must be >= 1")
	}
	if c.PercentBps < 0 {
		return errors.New("fee percent_bps cannot be negative")
	}
	if c.FloorMinor < 0 || c.CeilMinor < 0 {
		return errors.New("fee floor and ceiling cannot be negative")
	}
	if c.CeilMinor < c.FloorMinor {
		return errors.New("fee ceiling cannot be below the floor")
	}
	return nil
}
