package user

// CreateUserRequest represents the request payload for creating a new user.
type CreateUserRequest struct {
	Name  string
	Email string
}

// CreateUserResponse represents the response payload after creating a user.
type CreateUserResponse struct {
	ID int64
}

// UpdateUserRequest represents the request payload for overwriting an existing user.
type UpdateUserRequest struct {
	ID    int64
	Name  string
	Email string
}

// UpdateUserResponse represents the response payload after updating a user.
// RowsAffected is zero when no row had the requested ID.
type UpdateUserResponse struct {
	ID           int64
	RowsAffected int64
}

// DeleteUserRequest represents the request payload for deleting a user.
type DeleteUserRequest struct {
	ID int64
}

// DeleteUserResponse represents the response payload after deleting a user.
type DeleteUserResponse struct {
	ID int64
}
