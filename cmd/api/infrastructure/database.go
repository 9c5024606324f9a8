package infrastructure

import (
	"context"
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"go.uber.org/zap"
	pgdriver "gorm.io/driver/postgres"
	"gorm.io/gorm"

	"tcp-user-service/internal/adapter/db/postgres"
	"tcp-user-service/internal/config"
	"tcp-user-service/internal/usecase/user"
	"tcp-user-service/pkg/logger"
)

// NewDialector picks the gorm driver for DB_DRIVER. Each call of the
// returned func yields a fresh dialector so connections never share state.
func NewDialector(cfg *config.DatabaseConfig) (postgres.DialectorFunc, error) {
	dsn := cfg.DSN()

	switch cfg.Driver {
	case "postgres":
		return func() gorm.Dialector { return pgdriver.Open(dsn) }, nil
	case "sqlite":
		return func() gorm.Dialector { return sqlite.Open(dsn) }, nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

// NewDialer builds the per-request Dialer with query logging routed to zap.
func NewDialer(cfg *config.Config, l *zap.Logger) (*postgres.Dialer, error) {
	open, err := NewDialector(&cfg.DB)
	if err != nil {
		return nil, err
	}

	gormLogger := logger.NewGormLogger(l, cfg.Logger.SlowQuerySeconds, cfg.Logger.Level)
	return postgres.NewDialer(open, gormLogger, l), nil
}

// NewConnector returns the Connector requests are served through. With
// pooling disabled every request dials its own connection; otherwise one
// pooled handle is opened now and shared. The returned close func releases
// the pool and is a no-op for the Dialer.
func NewConnector(cfg *config.Config, l *zap.Logger) (user.Connector, func() error, error) {
	dialer, err := NewDialer(cfg, l)
	if err != nil {
		return nil, nil, err
	}

	if !cfg.DB.PoolEnabled {
		l.Info("database connections opened per request", zap.String("driver", cfg.DB.Driver))
		return dialer, func() error { return nil }, nil
	}

	db, err := dialer.Connect()
	if err != nil {
		return nil, nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		_ = postgres.CloseDatabase(db)
		return nil, nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.DB.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.DB.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.DB.ConnMaxLifetime) * time.Second)
	sqlDB.SetConnMaxIdleTime(time.Duration(cfg.DB.ConnMaxIdleTime) * time.Second)

	l.Info("database pool opened",
		zap.String("driver", cfg.DB.Driver),
		zap.Int("max_open_conns", cfg.DB.MaxOpenConns),
		zap.Int("max_idle_conns", cfg.DB.MaxIdleConns),
		zap.Int("conn_max_lifetime_seconds", cfg.DB.ConnMaxLifetime),
		zap.Int("conn_max_idle_time_seconds", cfg.DB.ConnMaxIdleTime),
	)

	pool := postgres.NewPool(db, l)
	return pool, pool.Close, nil
}

// BootstrapSchema connects once, creates the users table if it is missing
// and disconnects.
func BootstrapSchema(ctx context.Context, cfg *config.Config, l *zap.Logger) error {
	dialer, err := NewDialer(cfg, l)
	if err != nil {
		return err
	}

	db, err := dialer.Connect()
	if err != nil {
		return fmt.Errorf("schema bootstrap: %w", err)
	}
	defer func() {
		if cerr := postgres.CloseDatabase(db); cerr != nil {
			l.Warn("failed to close bootstrap connection", zap.Error(cerr))
		}
	}()

	if err := postgres.EnsureSchema(ctx, db); err != nil {
		return fmt.Errorf("schema bootstrap: %w", err)
	}

	l.Info("schema ready", zap.String("driver", cfg.DB.Driver))
	return nil
}
