package errors

import (
	"errors"
	"fmt"
	"time"
)

// ErrorType represents the type of error
type ErrorType string

const (
	ErrNotFound     ErrorType = "NOT_FOUND"
	ErrRateLimit    ErrorType = "RATE_LIMIT"
	ErrInvalidInput ErrorType = "INVALID_INPUT"
	ErrInternal     ErrorType = "INTERNAL"
	ErrUnauthorized ErrorType = "UNAUTHORIZED"
	ErrConflict     ErrorType = "CONFLICT"
)

// AppError represents an application error
type AppError struct {
	Type      ErrorType
	Message   string
	Cause     error
	Timestamp time.Time
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// New creates a new AppError
func New(errType ErrorType, message string, cause error) *AppError {
	return &AppError{
		Type:      errType,
		Message:   message,
		Cause:     cause,
		Timestamp: time.Now(),
	}
}

// TypeOf returns the type of the first AppError in err's chain, or ErrInternal.
func TypeOf(err error) ErrorType {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type
	}
	var syncErr *SyncInProgressError
	if errors.As(err, &syncErr) {
		return ErrConflict
	}
	return ErrInternal
}

// IsNotFound checks if the error is a not found error
func IsNotFound(err error) bool {
	return err != nil && TypeOf(err) == ErrNotFound
}

// IsRateLimit checks if the error is a rate limit error
func IsRateLimit(err error) bool {
	return err != nil && TypeOf(err) == ErrRateLimit
}

// IsInvalidInput checks if the error is an invalid input error
func IsInvalidInput(err error) bool {
	return err != nil && TypeOf(err) == ErrInvalidInput
}

// IsConflict checks if the error is a conflict, including a sync in progress
func IsConflict(err error) bool {
	return err != nil && TypeOf(err) == ErrConflict
}

// NewNotFoundError creates a new not found error
func NewNotFoundError(message string, err error) *AppError {
	return New(ErrNotFound, message, err)
}

// NewValidationError creates a new validation error
func NewValidationError(message string, err error) *AppError {
	return New(ErrInvalidInput, message, err)
}

// NewRateLimitError creates a new rate limit error
func NewRateLimitError(message string, err error) *AppError {
	return New(ErrRateLimit, message, err)
}

// NewUnauthorizedError creates a new unauthorized error
func NewUnauthorizedError(message string, err error) *AppError {
	return New(ErrUnauthorized, message, err)
}

// NewInternalError creates a new internal error
func NewInternalError(message string, err error) *AppError {
	return New(ErrInternal, message, err)
}

// SyncInProgressError represents an error when a sync run is already active
type SyncInProgressError struct {
	RunID string
}

func (e *SyncInProgressError) Error() string {
	return fmt.Sprintf("sync already in progress: run %s", e.RunID)
}

// NewSyncInProgressError creates a new SyncInProgressError
func NewSyncInProgressError(runID string) error {
	return &SyncInProgressError{RunID: runID}
}
