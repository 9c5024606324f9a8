package user

import (
	"context"

	domain "tcp-user-service/internal/domain/user"
)

// Usecase defines the interface for user business logic operations.
type Usecase interface {
	CreateUser(ctx context.Context, in CreateUserRequest) (*CreateUserResponse, error)
	UpdateUser(ctx context.Context, in UpdateUserRequest) (*UpdateUserResponse, error)
	DeleteUser(ctx context.Context, in DeleteUserRequest) (*DeleteUserResponse, error)
}

// Session runs statements on a single database connection.
type Session interface {
	Create(ctx context.Context, u *domain.User) (int64, error) // Insert and return the assigned id
	Update(ctx context.Context, u *domain.User) (int64, error) // Overwrite name/email, return rows affected
	Delete(ctx context.Context, id int64) (int64, error)       // Delete by id, return rows affected
	Ping(ctx context.Context) error                            // Check the connection is usable
	Close() error                                              // Release the connection
}

// Connector opens a Session. Implementations decide whether the connection
// behind it is fresh or pooled.
type Connector interface {
	Open(ctx context.Context) (Session, error)
}
