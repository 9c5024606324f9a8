package postgres

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"tcp-user-service/internal/domain/user"
)

// UserRepoPG runs user statements on one gorm connection. It is the
// session handed out by Dialer and Pool.
type UserRepoPG struct {
	db    *gorm.DB    // GORM database connection
	log   *zap.Logger // Structured logger for database operations
	owned bool        // close the underlying sql.DB on Close
}

// NewUserRepoPG creates a repository on db. When owned is true, Close
// releases the connection; otherwise it is left to the caller.
func NewUserRepoPG(db *gorm.DB, log *zap.Logger, owned bool) *UserRepoPG {
	return &UserRepoPG{db: db, log: log, owned: owned}
}

// UserSchema represents the database schema for the users table.
type UserSchema struct {
	ID    int64  `gorm:"primaryKey;autoIncrement"`
	Name  string `gorm:"not null"`
	Email string `gorm:"not null"`
}

// TableName specifies the table name for the UserSchema model.
func (UserSchema) TableName() string {
	return "users"
}

// Create inserts a new user and returns the id assigned by the store.
func (r *UserRepoPG) Create(ctx context.Context, u *user.User) (int64, error) {
	if u == nil {
		return 0, errors.New("user cannot be nil")
	}

	model := UserSchema{
		Name:  u.Name,
		Email: u.Email,
	}

	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		return 0, fmt.Errorf("failed to create user: %w", err)
	}

	r.log.Debug("user row inserted", zap.Int64("id", model.ID))
	return model.ID, nil
}

// Update overwrites name and email of the row with u.ID and returns the
// number of rows affected. A missing row is not an error here.
func (r *UserRepoPG) Update(ctx context.Context, u *user.User) (int64, error) {
	if u == nil {
		return 0, errors.New("user cannot be nil")
	}

	// A map keeps empty strings in the SET clause.
	res := r.db.WithContext(ctx).
		Model(&UserSchema{}).
		Where("id = ?", u.ID).
		Updates(map[string]any{"name": u.Name, "email": u.Email})
	if res.Error != nil {
		return 0, fmt.Errorf("failed to update user: %w", res.Error)
	}

	r.log.Debug("user row updated", zap.Int64("id", u.ID), zap.Int64("rows_affected", res.RowsAffected))
	return res.RowsAffected, nil
}

// Delete removes the row with id and returns the number of rows affected.
func (r *UserRepoPG) Delete(ctx context.Context, id int64) (int64, error) {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&UserSchema{})
	if res.Error != nil {
		return 0, fmt.Errorf("failed to delete user: %w", res.Error)
	}

	r.log.Debug("user row deleted", zap.Int64("id", id), zap.Int64("rows_affected", res.RowsAffected))
	return res.RowsAffected, nil
}

// Ping verifies the connection is usable.
func (r *UserRepoPG) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	return sqlDB.PingContext(ctx)
}

// Close releases the connection if this repository owns it.
func (r *UserRepoPG) Close() error {
	if !r.owned {
		return nil
	}
	return CloseDatabase(r.db)
}

// CloseDatabase closes the sql.DB behind a gorm handle.
func CloseDatabase(db *gorm.DB) error {
	if db == nil {
		return nil
	}

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	if err := sqlDB.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}

	return nil
}
