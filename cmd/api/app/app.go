package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"syscall"

	"go.uber.org/zap"

	"tcp-user-service/cmd/api/di"
	"tcp-user-service/cmd/api/infrastructure"
	"tcp-user-service/cmd/api/server"
	"tcp-user-service/internal/config"
	"tcp-user-service/pkg/logger"
)

// App represents the application
type App struct {
	Config *config.Config
	Logger *zap.Logger
}

// New loads configuration from configPath and builds the logger
func New(configPath string) (*App, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	l, err := initLogger(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	return &App{Config: cfg, Logger: l}, nil
}

// Migrate creates the users table and exits
func (a *App) Migrate(ctx context.Context) error {
	defer a.syncLogger()
	return infrastructure.BootstrapSchema(ctx, a.Config, a.Logger)
}

// Run bootstraps the schema, then serves until ctx is cancelled
func (a *App) Run(ctx context.Context) (err error) {
	defer a.syncLogger()

	defer func() {
		if r := recover(); r != nil {
			a.Logger.Error("panic recovered in application",
				zap.Any("panic", r),
				zap.Stack("stack"),
			)
			err = fmt.Errorf("application panic: %v", r)
		}
	}()

	a.Logger.Info("starting application",
		zap.String("service", a.Config.Logger.ServiceName),
		zap.String("version", a.Config.Logger.ServiceVersion),
		zap.String("environment", getEnvironment()),
	)

	// The listener must not bind until the table exists.
	if err := infrastructure.BootstrapSchema(ctx, a.Config, a.Logger); err != nil {
		return err
	}

	container, err := di.NewContainer(ctx, a.Config, a.Logger)
	if err != nil {
		return fmt.Errorf("failed to create container: %w", err)
	}

	var ops http.Handler
	if container.OpsRouter != nil {
		ops = container.OpsRouter
	}
	srv := server.New(a.Config, a.Logger, container.Dispatcher, ops)

	serveErr := srv.Start(ctx)

	a.Logger.Info("shutting down application...")
	if cerr := container.Close(); cerr != nil {
		a.Logger.Error("failed to close container", zap.Error(cerr))
		serveErr = errors.Join(serveErr, fmt.Errorf("container close: %w", cerr))
	}

	if serveErr != nil {
		return serveErr
	}
	a.Logger.Info("application shutdown complete")
	return nil
}

// syncLogger flushes buffered entries. Sync on a terminal returns EINVAL,
// which is ignored.
func (a *App) syncLogger() {
	if err := a.Logger.Sync(); err != nil && !errors.Is(err, syscall.EINVAL) && !errors.Is(err, syscall.ENOTTY) {
		fmt.Fprintf(os.Stderr, "failed to sync logger: %v\n", err)
	}
}

// initLogger initializes the application logger
func initLogger(cfg *config.Config) (*zap.Logger, error) {
	return logger.NewWithConfig(logger.Config{
		Level:            cfg.Logger.Level,
		Format:           cfg.Logger.Format,
		OutputPath:       cfg.Logger.OutputPath,
		SlowQuerySeconds: cfg.Logger.SlowQuerySeconds,
		EnableSampling:   cfg.Logger.EnableSampling,
		ServiceName:      cfg.Logger.ServiceName,
		ServiceVersion:   cfg.Logger.ServiceVersion,
		Environment:      getEnvironment(),
	})
}

// getEnvironment returns the application environment
func getEnvironment() string {
	if env := os.Getenv("APP_ENV"); env != "" {
		return env
	}
	return "development"
}
