package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"
)

// createUsersTable holds the idempotent DDL per gorm dialect name.
var createUsersTable = map[string]string{
	"postgres": `CREATE TABLE IF NOT EXISTS users (
		id SERIAL PRIMARY KEY,
		name VARCHAR NOT NULL,
		email VARCHAR NOT NULL
	)`,
	// SQLite only auto-assigns ids for an INTEGER PRIMARY KEY column.
	"sqlite": `CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		email TEXT NOT NULL
	)`,
}

// EnsureSchema creates the users table if it does not exist. Running it
// against an initialised database is a no-op.
func EnsureSchema(ctx context.Context, db *gorm.DB) error {
	dialect := db.Dialector.Name()

	stmt, ok := createUsersTable[dialect]
	if !ok {
		return fmt.Errorf("no users table definition for dialect %q", dialect)
	}

	if err := db.WithContext(ctx).Exec(stmt).Error; err != nil {
		return fmt.Errorf("failed to create users table: %w", err)
	}
	return nil
}
