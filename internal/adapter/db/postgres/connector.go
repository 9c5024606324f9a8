package postgres

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"tcp-user-service/internal/usecase/user"
)

// DialectorFunc returns a new, uninitialised gorm dialector. It is called
// once per connection so that each one gets its own sql.DB.
type DialectorFunc func() gorm.Dialector

// Dialer opens a brand-new connection for every session and closes it when
// the session ends. Nothing is shared between requests.
type Dialer struct {
	open   DialectorFunc
	logger gormlogger.Interface
	log    *zap.Logger
}

// NewDialer creates a Dialer. gormLog may be nil to use gorm's default.
func NewDialer(open DialectorFunc, gormLog gormlogger.Interface, log *zap.Logger) *Dialer {
	return &Dialer{open: open, logger: gormLog, log: log}
}

// Open connects to the database. gorm pings on open, so an unreachable
// server or rejected credentials fail here.
func (d *Dialer) Open(ctx context.Context) (user.Session, error) {
	db, err := d.Connect()
	if err != nil {
		return nil, err
	}
	return NewUserRepoPG(db.WithContext(ctx), d.log, true), nil
}

// Connect returns a raw gorm handle the caller must close.
func (d *Dialer) Connect() (*gorm.DB, error) {
	cfg := &gorm.Config{}
	if d.logger != nil {
		cfg.Logger = d.logger
	}

	db, err := gorm.Open(d.open(), cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

// Pool hands out sessions backed by one shared, pooled connection. Closing
// a session leaves the pool open.
type Pool struct {
	db  *gorm.DB
	log *zap.Logger
}

// NewPool wraps an already configured gorm handle.
func NewPool(db *gorm.DB, log *zap.Logger) *Pool {
	return &Pool{db: db, log: log}
}

// Open returns a session on the shared pool.
func (p *Pool) Open(ctx context.Context) (user.Session, error) {
	return NewUserRepoPG(p.db.WithContext(ctx), p.log, false), nil
}

// Close shuts the pool down.
func (p *Pool) Close() error {
	return CloseDatabase(p.db)
}
