package di

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.uber.org/zap"

	"tcp-user-service/cmd/api/infrastructure"
	ginhandler "tcp-user-service/internal/adapter/gin/handler"
	ginrouter "tcp-user-service/internal/adapter/gin/router"
	"tcp-user-service/internal/adapter/tcp"
	"tcp-user-service/internal/config"
	"tcp-user-service/internal/metrics"
	"tcp-user-service/internal/usecase/user"
	redisclient "tcp-user-service/pkg/redis"

	"github.com/gin-gonic/gin"
)

// Container holds all application dependencies
type Container struct {
	Config      *config.Config
	Logger      *zap.Logger
	Connector   user.Connector
	RedisClient *redisclient.Client
	UserUC      user.Usecase
	RateLimiter *tcp.RateLimiter
	Metrics     *metrics.Metrics
	Dispatcher  *tcp.Dispatcher
	OpsRouter   *gin.Engine

	closeConnector func() error
	meterProvider  *sdkmetric.MeterProvider
}

// NewContainer creates and initializes all application dependencies
func NewContainer(ctx context.Context, cfg *config.Config, l *zap.Logger) (*Container, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	c := &Container{Config: cfg, Logger: l}

	conn, closeConn, err := infrastructure.NewConnector(cfg, l)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	c.Connector = conn
	c.closeConnector = closeConn

	// Redis is only needed for rate limiting.
	if cfg.RateLimit.Enabled {
		rdb, err := infrastructure.NewRedisClient(ctx, cfg, l)
		if err != nil {
			_ = c.Close()
			return nil, fmt.Errorf("failed to initialize Redis: %w", err)
		}
		c.RedisClient = rdb
		c.RateLimiter = tcp.NewRateLimiter(rdb.Client, tcp.RateLimiterConfig{
			RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
			WindowSeconds:     cfg.RateLimit.WindowSeconds,
			Enabled:           true,
		}, l)
	}

	// Without a provider Metrics stays nil and recording is skipped.
	if cfg.Metrics.Enabled {
		mp, err := infrastructure.NewMeterProvider(cfg, l)
		if err != nil {
			_ = c.Close()
			return nil, fmt.Errorf("failed to initialize metrics: %w", err)
		}
		otel.SetMeterProvider(mp)
		c.meterProvider = mp

		m, err := metrics.New(mp.Meter(metrics.MeterName))
		if err != nil {
			_ = c.Close()
			return nil, fmt.Errorf("failed to initialize metrics: %w", err)
		}
		c.Metrics = m
	}

	c.UserUC = user.New(conn, l)
	c.Dispatcher = tcp.NewDispatcher(tcp.NewUserHandler(c.UserUC, l), tcp.Options{
		ReadBufferSize: cfg.App.ReadBufferSize,
		ReadTimeout:    time.Duration(cfg.App.ReadTimeoutSeconds) * time.Second,
		WriteTimeout:   time.Duration(cfg.App.WriteTimeoutSeconds) * time.Second,
		RateLimiter:    c.RateLimiter,
		Metrics:        c.Metrics,
	}, l)

	if cfg.Ops.Enabled {
		health := ginhandler.NewHealthHandler(conn, cfg.Logger.ServiceName, l.Named("ops"))
		c.OpsRouter = ginrouter.SetupRouter(health, l.Named("ops"))
	}

	return c, nil
}

// Close closes all resources held by the container
func (c *Container) Close() error {
	var errs []error

	if c.meterProvider != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := c.meterProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("failed to flush metrics: %w", err))
		}
	}

	if c.RedisClient != nil {
		if err := c.RedisClient.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close Redis: %w", err))
		}
	}

	if c.closeConnector != nil {
		if err := c.closeConnector(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close database: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("container close errors: %v", errs)
	}

	return nil
}
