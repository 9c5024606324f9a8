package errors

import (
	"fmt"
	"net/http"
)

// Common application errors
var (
	ErrNotFound = NewNotFoundError("user", "user not found")
)

// MalformedBodyError represents a request body that is missing, is not valid JSON,
// or lacks a required field.
type MalformedBodyError struct {
	Field string
	Err   error
}

// NewMalformedBodyError creates a new malformed body error
func NewMalformedBodyError(field string, err error) *MalformedBodyError {
	return &MalformedBodyError{
		Field: field,
		Err:   err,
	}
}

// Error implements the error interface
func (e *MalformedBodyError) Error() string {
	switch {
	case e.Field != "" && e.Err != nil:
		return fmt.Sprintf("malformed body: %s: %v", e.Field, e.Err)
	case e.Field != "":
		return fmt.Sprintf("malformed body: %s is required", e.Field)
	case e.Err != nil:
		return fmt.Sprintf("malformed body: %v", e.Err)
	}
	return "malformed body"
}

// Unwrap returns the wrapped error
func (e *MalformedBodyError) Unwrap() error {
	return e.Err
}

// StatusCode returns the status this error maps to on the wire
func (e *MalformedBodyError) StatusCode() int {
	return http.StatusInternalServerError
}

// InvalidIDError represents a path id segment that is not an integer
type InvalidIDError struct {
	Value string
	Err   error
}

// NewInvalidIDError creates a new invalid id error
func NewInvalidIDError(value string, err error) *InvalidIDError {
	return &InvalidIDError{
		Value: value,
		Err:   err,
	}
}

// Error implements the error interface
func (e *InvalidIDError) Error() string {
	return fmt.Sprintf("invalid user id %q: %v", e.Value, e.Err)
}

// Unwrap returns the wrapped error
func (e *InvalidIDError) Unwrap() error {
	return e.Err
}

// StatusCode returns the status this error maps to on the wire
func (e *InvalidIDError) StatusCode() int {
	return http.StatusInternalServerError
}

// ConnectionError represents a failure to reach or authenticate against the database
type ConnectionError struct {
	Err error
}

// NewConnectionError creates a new connection error
func NewConnectionError(err error) *ConnectionError {
	return &ConnectionError{Err: err}
}

// Error implements the error interface
func (e *ConnectionError) Error() string {
	return fmt.Sprintf("database connection failed: %v", e.Err)
}

// Unwrap returns the wrapped error
func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// StatusCode returns the status this error maps to on the wire
func (e *ConnectionError) StatusCode() int {
	return http.StatusInternalServerError
}

// StatementError represents a SQL execution failure
type StatementError struct {
	Op  string
	Err error
}

// NewStatementError creates a new statement error
func NewStatementError(op string, err error) *StatementError {
	return &StatementError{
		Op:  op,
		Err: err,
	}
}

// Error implements the error interface
func (e *StatementError) Error() string {
	return fmt.Sprintf("%s statement failed: %v", e.Op, e.Err)
}

// Unwrap returns the wrapped error
func (e *StatementError) Unwrap() error {
	return e.Err
}

// StatusCode returns the status this error maps to on the wire
func (e *StatementError) StatusCode() int {
	return http.StatusInternalServerError
}

// NotFoundError represents a resource not found error
type NotFoundError struct {
	Resource string
	Message  string
}

// NewNotFoundError creates a new not found error
func NewNotFoundError(resource, message string) *NotFoundError {
	return &NotFoundError{
		Resource: resource,
		Message:  message,
	}
}

// Error implements the error interface
func (e *NotFoundError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("%s not found", e.Resource)
}

// StatusCode returns the status this error maps to on the wire
func (e *NotFoundError) StatusCode() int {
	return http.StatusNotFound
}

// StatusCoder is implemented by errors that know which wire status they map to
type StatusCoder interface {
	StatusCode() int
}
