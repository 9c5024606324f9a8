package user

import (
	"context"

	"go.uber.org/zap"

	domain "tcp-user-service/internal/domain/user"
	pkgerrors "tcp-user-service/pkg/errors"
	"tcp-user-service/pkg/logger"
)

// Service implements Usecase. Every call opens its own session, runs one
// statement and closes the session again.
type Service struct {
	conn Connector   // Opens a session per call
	log  *zap.Logger // Logger for structured logging
}

// New creates a new Service backed by conn.
func New(conn Connector, log *zap.Logger) *Service {
	return &Service{conn: conn, log: log}
}

// CreateUser inserts a new user row.
func (s *Service) CreateUser(ctx context.Context, in CreateUserRequest) (*CreateUserResponse, error) {
	log := logger.WithContext(ctx, s.log)
	log.Debug("creating user", zap.String("name", in.Name), zap.String("email", in.Email))

	sess, err := s.open(ctx, log)
	if err != nil {
		return nil, err
	}
	defer s.close(sess, log)

	id, err := sess.Create(ctx, &domain.User{
		Name:  in.Name,
		Email: in.Email,
	})
	if err != nil {
		log.Error("failed to create user", zap.Error(err))
		return nil, pkgerrors.NewStatementError("insert", err)
	}

	log.Info("user created", zap.Int64("id", id))
	return &CreateUserResponse{ID: id}, nil
}

// UpdateUser overwrites name and email of an existing user. The row count
// is reported but not enforced: updating a missing id still succeeds.
func (s *Service) UpdateUser(ctx context.Context, in UpdateUserRequest) (*UpdateUserResponse, error) {
	log := logger.WithContext(ctx, s.log)
	log.Info("updating user", zap.Int64("id", in.ID))
	log.Debug("update values", zap.String("name", in.Name), zap.String("email", in.Email))

	sess, err := s.open(ctx, log)
	if err != nil {
		return nil, err
	}
	defer s.close(sess, log)

	rows, err := sess.Update(ctx, &domain.User{
		ID:    in.ID,
		Name:  in.Name,
		Email: in.Email,
	})
	if err != nil {
		log.Error("failed to update user", zap.Int64("id", in.ID), zap.Error(err))
		return nil, pkgerrors.NewStatementError("update", err)
	}

	if rows == 0 {
		log.Warn("update matched no rows, reporting success", zap.Int64("id", in.ID))
	}

	return &UpdateUserResponse{ID: in.ID, RowsAffected: rows}, nil
}

// DeleteUser removes a user. It returns a NotFoundError when no row matched.
func (s *Service) DeleteUser(ctx context.Context, in DeleteUserRequest) (*DeleteUserResponse, error) {
	log := logger.WithContext(ctx, s.log)
	log.Info("deleting user", zap.Int64("id", in.ID))

	sess, err := s.open(ctx, log)
	if err != nil {
		return nil, err
	}
	defer s.close(sess, log)

	rows, err := sess.Delete(ctx, in.ID)
	if err != nil {
		log.Error("failed to delete user", zap.Int64("id", in.ID), zap.Error(err))
		return nil, pkgerrors.NewStatementError("delete", err)
	}

	if rows == 0 {
		log.Info("delete target not found", zap.Int64("id", in.ID))
		return nil, pkgerrors.ErrNotFound
	}

	return &DeleteUserResponse{ID: in.ID}, nil
}

func (s *Service) open(ctx context.Context, log *zap.Logger) (Session, error) {
	sess, err := s.conn.Open(ctx)
	if err != nil {
		log.Error("failed to open database session", zap.Error(err))
		return nil, pkgerrors.NewConnectionError(err)
	}
	return sess, nil
}

func (s *Service) close(sess Session, log *zap.Logger) {
	if err := sess.Close(); err != nil {
		log.Warn("failed to close database session", zap.Error(err))
	}
}
