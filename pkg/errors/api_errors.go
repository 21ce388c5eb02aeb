package errors

import (
	"fmt"
	"net/http"
)

// AppError is the base interface for all application errors
type AppError interface {
	error
	HTTPStatus() int
	Code() string
}

// ValidationError represents raw input that failed type coercion.
// Validation errors are recovered locally and never sent to the server.
type ValidationError struct {
	Field   string
	Message string
	Value   any
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation error on field '%s': %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation error: %s", e.Message)
}

func (e *ValidationError) HTTPStatus() int {
	return http.StatusBadRequest
}

func (e *ValidationError) Code() string {
	return "VALIDATION_ERROR"
}

// NewValidationError creates a new ValidationError
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// SyncError represents a commit request that failed at the network or
// server boundary. The optimistic value has already been rolled back by
// the time a SyncError reaches a caller; no automatic retry is attempted.
type SyncError struct {
	RecordID string
	ColumnID string
	Status   int
	Message  string
	Cause    error
}

func (e *SyncError) Error() string {
	if e.ColumnID != "" {
		return fmt.Sprintf("failed to sync cell (%s, %s): %s", e.RecordID, e.ColumnID, e.Message)
	}
	return fmt.Sprintf("failed to sync record %s: %s", e.RecordID, e.Message)
}

func (e *SyncError) HTTPStatus() int {
	if e.Status != 0 {
		return e.Status
	}
	return http.StatusBadGateway
}

func (e *SyncError) Code() string {
	return "SYNC_ERROR"
}

func (e *SyncError) Unwrap() error {
	return e.Cause
}

// NewSyncError creates a new SyncError
func NewSyncError(recordID, columnID string, status int, message string) *SyncError {
	return &SyncError{RecordID: recordID, ColumnID: columnID, Status: status, Message: message}
}

// UnauthorizedError represents authentication failures, including an
// expired session surfaced by a 401 response.
type UnauthorizedError struct {
	Reason string
}

func (e *UnauthorizedError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("unauthorized: %s", e.Reason)
	}
	return "unauthorized"
}

func (e *UnauthorizedError) HTTPStatus() int {
	return http.StatusUnauthorized
}

func (e *UnauthorizedError) Code() string {
	return "UNAUTHORIZED"
}

// NewUnauthorizedError creates a new UnauthorizedError
func NewUnauthorizedError(reason string) *UnauthorizedError {
	return &UnauthorizedError{Reason: reason}
}

// NotFoundError represents a resource that was not found
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("%s with ID '%s' not found", e.Resource, e.ID)
	}
	return fmt.Sprintf("%s not found", e.Resource)
}

func (e *NotFoundError) HTTPStatus() int {
	return http.StatusNotFound
}

func (e *NotFoundError) Code() string {
	return "NOT_FOUND"
}

// NewNotFoundError creates a new NotFoundError
func NewNotFoundError(resource, id string) *NotFoundError {
	return &NotFoundError{Resource: resource, ID: id}
}
