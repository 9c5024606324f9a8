package config

import (
	"errors"
	"fmt"
	"net"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	DB        DatabaseConfig
	App       AppConfig
	Ops       OpsConfig
	Redis     RedisConfig
	RateLimit RateLimitConfig
	Metrics   MetricsConfig
	Logger    LoggerConfig
}

// DatabaseConfig holds configuration for the database
type DatabaseConfig struct {
	Driver   string
	URL      string
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string

	// Pool settings only apply when PoolEnabled is set; otherwise every
	// request opens and closes its own connection.
	PoolEnabled     bool
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int
	ConnMaxIdleTime int
}

// AppConfig holds configuration for the TCP listener
type AppConfig struct {
	ListenHost             string
	ListenPort             string
	ReadBufferSize         int
	ReadTimeoutSeconds     int
	WriteTimeoutSeconds    int
	ShutdownTimeoutSeconds int
}

// OpsConfig holds configuration for the health/readiness HTTP server
type OpsConfig struct {
	Enabled bool
	Port    string
}

// RedisConfig holds configuration for the Redis client used by the rate limiter
type RedisConfig struct {
	Host        string
	Port        string
	Password    string
	DB          int
	MaxRetries  int
	PoolSize    int
	MinIdleConn int
}

// RateLimitConfig holds configuration for per-client rate limiting
type RateLimitConfig struct {
	Enabled           bool
	RequestsPerSecond float64
	WindowSeconds     int
}

// MetricsConfig holds configuration for the periodic metrics export
type MetricsConfig struct {
	Enabled               bool
	OutputPath            string
	ExportIntervalSeconds int
}

// LoggerConfig holds configuration for the logger
type LoggerConfig struct {
	Level            string
	Format           string
	OutputPath       string
	SlowQuerySeconds float64
	EnableSampling   bool
	ServiceName      string
	ServiceVersion   string
}

// LoadConfig reads configuration from file or environment variables.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()

	// Env must be bound before defaults, which depend on APP_ENV.
	v.AutomaticEnv()
	setDefaults(v)

	v.AddConfigPath(path)
	v.SetConfigName("app") // Look for app.env
	v.SetConfigType("env")

	// Try to read config file
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found is okay if we have env vars
	}

	var config Config

	config.DB.Driver = v.GetString("DB_DRIVER")
	config.DB.URL = v.GetString("DB_URL")
	config.DB.Host = v.GetString("DB_HOST")
	config.DB.Port = v.GetString("DB_PORT")
	config.DB.User = v.GetString("DB_USER")
	config.DB.Password = v.GetString("DB_PASSWORD")
	config.DB.Name = v.GetString("DB_NAME")
	config.DB.SSLMode = v.GetString("DB_SSLMODE")
	config.DB.PoolEnabled = v.GetBool("DB_POOL_ENABLED")
	config.DB.MaxOpenConns = v.GetInt("DB_MAX_OPEN_CONNS")
	config.DB.MaxIdleConns = v.GetInt("DB_MAX_IDLE_CONNS")
	config.DB.ConnMaxLifetime = v.GetInt("DB_CONN_MAX_LIFETIME_SECONDS")
	config.DB.ConnMaxIdleTime = v.GetInt("DB_CONN_MAX_IDLE_TIME_SECONDS")

	config.App.ListenHost = v.GetString("LISTEN_HOST")
	config.App.ListenPort = v.GetString("LISTEN_PORT")
	config.App.ReadBufferSize = v.GetInt("READ_BUFFER_SIZE")
	config.App.ReadTimeoutSeconds = v.GetInt("CONN_READ_TIMEOUT_SECONDS")
	config.App.WriteTimeoutSeconds = v.GetInt("CONN_WRITE_TIMEOUT_SECONDS")
	config.App.ShutdownTimeoutSeconds = v.GetInt("SHUTDOWN_TIMEOUT_SECONDS")

	config.Ops.Enabled = v.GetBool("OPS_ENABLED")
	config.Ops.Port = v.GetString("OPS_PORT")

	config.Redis.Host = v.GetString("REDIS_HOST")
	config.Redis.Port = v.GetString("REDIS_PORT")
	config.Redis.Password = v.GetString("REDIS_PASSWORD")
	config.Redis.DB = v.GetInt("REDIS_DB")
	config.Redis.MaxRetries = v.GetInt("REDIS_MAX_RETRIES")
	config.Redis.PoolSize = v.GetInt("REDIS_POOL_SIZE")
	config.Redis.MinIdleConn = v.GetInt("REDIS_MIN_IDLE_CONN")

	config.RateLimit.Enabled = v.GetBool("RATE_LIMIT_ENABLED")
	config.RateLimit.RequestsPerSecond = v.GetFloat64("RATE_LIMIT_REQUESTS_PER_SECOND")
	config.RateLimit.WindowSeconds = v.GetInt("RATE_LIMIT_WINDOW_SECONDS")

	config.Metrics.Enabled = v.GetBool("METRICS_ENABLED")
	config.Metrics.OutputPath = v.GetString("METRICS_OUTPUT_PATH")
	config.Metrics.ExportIntervalSeconds = v.GetInt("METRICS_EXPORT_INTERVAL_SECONDS")

	config.Logger.Level = v.GetString("LOG_LEVEL")
	config.Logger.Format = v.GetString("LOG_FORMAT")
	config.Logger.OutputPath = v.GetString("LOG_OUTPUT_PATH")
	config.Logger.SlowQuerySeconds = v.GetFloat64("LOG_SLOW_QUERY_SECONDS")
	config.Logger.EnableSampling = v.GetBool("LOG_ENABLE_SAMPLING")
	config.Logger.ServiceName = v.GetString("SERVICE_NAME")
	config.Logger.ServiceVersion = v.GetString("SERVICE_VERSION")

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("DB_DRIVER", "postgres")
	v.SetDefault("DB_URL", "")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "users")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("DB_POOL_ENABLED", false)
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)
	v.SetDefault("DB_CONN_MAX_LIFETIME_SECONDS", 300)
	v.SetDefault("DB_CONN_MAX_IDLE_TIME_SECONDS", 60)

	v.SetDefault("LISTEN_HOST", "0.0.0.0")
	v.SetDefault("LISTEN_PORT", "8080")
	v.SetDefault("READ_BUFFER_SIZE", 1024)
	v.SetDefault("CONN_READ_TIMEOUT_SECONDS", 0)
	v.SetDefault("CONN_WRITE_TIMEOUT_SECONDS", 0)
	v.SetDefault("SHUTDOWN_TIMEOUT_SECONDS", 10)

	v.SetDefault("OPS_ENABLED", false)
	v.SetDefault("OPS_PORT", "8081")

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", "6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("REDIS_MAX_RETRIES", 3)
	v.SetDefault("REDIS_POOL_SIZE", 10)
	v.SetDefault("REDIS_MIN_IDLE_CONN", 2)

	v.SetDefault("RATE_LIMIT_ENABLED", false)
	v.SetDefault("RATE_LIMIT_REQUESTS_PER_SECOND", 10)
	v.SetDefault("RATE_LIMIT_WINDOW_SECONDS", 1)

	v.SetDefault("METRICS_ENABLED", false)
	v.SetDefault("METRICS_OUTPUT_PATH", "stdout")
	v.SetDefault("METRICS_EXPORT_INTERVAL_SECONDS", 60)

	// Logger defaults
	env := v.GetString("APP_ENV")
	if env == "production" {
		v.SetDefault("LOG_LEVEL", "info")
		v.SetDefault("LOG_FORMAT", "json")
		v.SetDefault("LOG_ENABLE_SAMPLING", true)
	} else {
		v.SetDefault("LOG_LEVEL", "debug")
		v.SetDefault("LOG_FORMAT", "console")
		v.SetDefault("LOG_ENABLE_SAMPLING", false)
	}
	v.SetDefault("LOG_OUTPUT_PATH", "stdout")
	v.SetDefault("LOG_SLOW_QUERY_SECONDS", 0.2)
	v.SetDefault("SERVICE_NAME", "tcp-user-service")
	v.SetDefault("SERVICE_VERSION", "1.0.0")
}

// Validate checks for values the service cannot start with.
func (c *Config) Validate() error {
	switch c.DB.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DB.Driver)
	}
	if c.DB.Driver == "sqlite" && c.DB.URL == "" {
		return errors.New("DB_URL is required for the sqlite driver")
	}
	if c.App.ListenPort == "" {
		return errors.New("LISTEN_PORT is required")
	}
	if c.App.ReadBufferSize <= 0 {
		return fmt.Errorf("READ_BUFFER_SIZE must be positive, got %d", c.App.ReadBufferSize)
	}
	if c.App.ReadTimeoutSeconds < 0 || c.App.WriteTimeoutSeconds < 0 {
		return errors.New("connection timeouts must not be negative")
	}
	if c.Ops.Enabled && c.Ops.Port == "" {
		return errors.New("OPS_PORT is required when OPS_ENABLED is set")
	}
	if c.RateLimit.Enabled {
		if c.RateLimit.RequestsPerSecond <= 0 {
			return errors.New("RATE_LIMIT_REQUESTS_PER_SECOND must be positive")
		}
		if c.RateLimit.WindowSeconds <= 0 {
			return errors.New("RATE_LIMIT_WINDOW_SECONDS must be positive")
		}
	}
	if c.Metrics.Enabled && c.Metrics.ExportIntervalSeconds <= 0 {
		return errors.New("METRICS_EXPORT_INTERVAL_SECONDS must be positive")
	}
	return nil
}

// DSN returns the connection string. DB_URL wins when set; otherwise a
// PostgreSQL DSN is assembled from the individual fields.
func (c *DatabaseConfig) DSN() string {
	if c.URL != "" {
		return c.URL
	}
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		c.Host, c.User, c.Password, c.Name, c.Port, c.SSLMode)
}

// ListenAddress returns the host:port the TCP listener binds to.
func (c *AppConfig) ListenAddress() string {
	return net.JoinHostPort(c.ListenHost, c.ListenPort)
}
