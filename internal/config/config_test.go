package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.DB.Driver)
	assert.False(t, cfg.DB.PoolEnabled)
	assert.Equal(t, "0.0.0.0:8080", cfg.App.ListenAddress())
	assert.Equal(t, 1024, cfg.App.ReadBufferSize)
	assert.Equal(t, 0, cfg.App.ReadTimeoutSeconds)
	assert.False(t, cfg.Ops.Enabled)
	assert.False(t, cfg.RateLimit.Enabled)
	assert.Equal(t, "tcp-user-service", cfg.Logger.ServiceName)
	assert.NoError(t, cfg.Validate())
}

func TestLoadConfig_ProductionLogDefaults(t *testing.T) {
	t.Setenv("APP_ENV", "production")

	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "json", cfg.Logger.Format)
	assert.Equal(t, "info", cfg.Logger.Level)
	assert.True(t, cfg.Logger.EnableSampling)
}

func TestLoadConfig_DevelopmentLogDefaults(t *testing.T) {
	t.Setenv("APP_ENV", "")

	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "console", cfg.Logger.Format)
	assert.Equal(t, "debug", cfg.Logger.Level)
	assert.False(t, cfg.Logger.EnableSampling)
	assert.False(t, cfg.Metrics.Enabled)
	assert.Equal(t, 60, cfg.Metrics.ExportIntervalSeconds)
}

func TestLoadConfig_EnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	content := "DB_DRIVER=sqlite\nDB_URL=file.db\nLISTEN_PORT=9090\nREAD_BUFFER_SIZE=2048\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "app.env"), []byte(content), 0o600))

	t.Setenv("LISTEN_PORT", "9191")

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.DB.Driver)
	assert.Equal(t, "file.db", cfg.DB.DSN())
	assert.Equal(t, "9191", cfg.App.ListenPort)
	assert.Equal(t, 2048, cfg.App.ReadBufferSize)
}

func TestDatabaseConfig_DSN(t *testing.T) {
	c := DatabaseConfig{
		Host:     "db",
		Port:     "5432",
		User:     "app",
		Password: "secret",
		Name:     "users",
		SSLMode:  "disable",
	}
	assert.Equal(t, "host=db user=app password=secret dbname=users port=5432 sslmode=disable", c.DSN())

	c.URL = "postgres://app:secret@db:5432/users"
	assert.Equal(t, "postgres://app:secret@db:5432/users", c.DSN())
}

func TestConfig_Validate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			DB:  DatabaseConfig{Driver: "postgres"},
			App: AppConfig{ListenPort: "8080", ReadBufferSize: 1024},
		}
	}

	tests := []struct {
		name   string
		mutate func(c *Config)
		errMsg string
	}{
		{"valid", func(c *Config) {}, ""},
		{"unknown driver", func(c *Config) { c.DB.Driver = "mysql" }, "unsupported DB_DRIVER"},
		{"sqlite without url", func(c *Config) { c.DB.Driver = "sqlite" }, "DB_URL is required"},
		{"zero buffer", func(c *Config) { c.App.ReadBufferSize = 0 }, "READ_BUFFER_SIZE"},
		{"negative timeout", func(c *Config) { c.App.WriteTimeoutSeconds = -1 }, "timeouts"},
		{"ops without port", func(c *Config) { c.Ops.Enabled = true }, "OPS_PORT"},
		{"rate limit without window", func(c *Config) {
			c.RateLimit = RateLimitConfig{Enabled: true, RequestsPerSecond: 5}
		}, "RATE_LIMIT_WINDOW_SECONDS"},
		{"metrics without interval", func(c *Config) { c.Metrics.Enabled = true }, "METRICS_EXPORT_INTERVAL_SECONDS"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			err := c.Validate()
			if tt.errMsg == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}
