package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrNotFound = errors.New("resource not found")

	ErrInvalidArgument = errors.New("invalid argument")

	ErrValidation = errors.New("validation failed")

	ErrAlreadyExists = errors.New("resource already exists")

	ErrConflict = errors.New("resource conflict")

	ErrDatabase = errors.New("database error")
)

// Kind is the transport-independent classification of an error.
type Kind string

const (
	KindNotFound         Kind = "NotFound"
	KindValidationFailed Kind = "ValidationFailed"
	KindConflict         Kind = "Conflict"
	KindInternal         Kind = "Internal"
)

type ValidationError struct {
	Field   string
	Message string
	Cause   error
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed for field '%s': %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

func (e *ValidationError) Unwrap() error {
	return e.Cause
}

func NewValidationError(field, message string) error {
	return fmt.Errorf("%w: %w", ErrValidation, &ValidationError{Field: field, Message: message})
}

type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("[%s] %s", e.Code, e.Message)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

const codeDatabase = "DB_ERROR"

// WrapDatabaseError keeps both ErrDatabase and cause in the chain.
func WrapDatabaseError(cause error, message string) error {
	return &AppError{
		Code:    codeDatabase,
		Message: fmt.Sprintf("%s: %v", message, cause),
		Cause:   fmt.Errorf("%w: %w", ErrDatabase, cause),
	}
}

// NewNotFoundError reports a lookup miss for the given identifier.
func NewNotFoundError(id int64) error {
	return fmt.Errorf("%w: ID %d", ErrNotFound, id)
}

// KindOf classifies err into one of the four error kinds. Nil maps to "".
func KindOf(err error) Kind {
	var validationError *ValidationError
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrInvalidArgument), errors.Is(err, ErrValidation), errors.As(err, &validationError):
		return KindValidationFailed
	case errors.Is(err, ErrAlreadyExists), errors.Is(err, ErrConflict):
		return KindConflict
	default:
		return KindInternal
	}
}

// HTTPStatus returns the status code the boundary uses for err.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindNotFound:
		return http.StatusNotFound
	case KindValidationFailed:
		return http.StatusBadRequest
	case KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
