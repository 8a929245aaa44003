package apperrors

import (
	"errors"
	"net/http"
)

// ErrNotFound indicates that a requested resource could not be found.
var ErrNotFound = errors.New("resource not found")

// ErrValidation indicates that input data failed validation checks.
var ErrValidation = errors.New("validation error")

// ErrDuplicate indicates that an attempt was made to create a resource that already exists.
var ErrDuplicate = errors.New("resource already exists")

// ErrUnauthorized indicates missing, invalid or expired credentials.
var ErrUnauthorized = errors.New("unauthorized")

// ErrForbidden indicates an authenticated caller lacks the required role.
var ErrForbidden = errors.New("forbidden")

// ErrTokenConsumed indicates a single-use token was presented a second time.
var ErrTokenConsumed = errors.New("token already consumed")

// AppError is an operational error: its Code and Message are safe to return to clients.
type AppError struct {
	Code    int    `json:"-"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError creates an AppError wrapping err.
func NewAppError(code int, message string, err error) *AppError {
	return &AppError{Code: code, Message: message, Err: err}
}

func NewBadRequestError(message string) *AppError {
	return NewAppError(http.StatusBadRequest, message, ErrValidation)
}

// NewConflictError reports a duplicate email or username. Conflicts are reported
// as 400 to match the rest of the validation failures.
func NewConflictError(message string) *AppError {
	return NewAppError(http.StatusBadRequest, message, ErrDuplicate)
}

func NewUnauthorizedError(message string) *AppError {
	return NewAppError(http.StatusUnauthorized, message, ErrUnauthorized)
}

func NewForbiddenError(message string) *AppError {
	return NewAppError(http.StatusForbidden, message, ErrForbidden)
}

func NewNotFoundError(message string) *AppError {
	return NewAppError(http.StatusNotFound, message, ErrNotFound)
}

func NewTooManyRequestsError(message string) *AppError {
	return NewAppError(http.StatusTooManyRequests, message, nil)
}

func NewInternalServerError(message string) *AppError {
	return NewAppError(http.StatusInternalServerError, message, nil)
}
