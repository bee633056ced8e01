package utils

import (
	"errors"
	"net/http"
)

// Error kinds shared by the client-side orchestration packages. Component
// errors wrap one of these so callers can branch with errors.Is.
var (
	ErrValidation    = errors.New("validation error")
	ErrAuthRequired  = errors.New("authentication required")
	ErrRemoteService = errors.New("remote service error")
	ErrConfiguration = errors.New("service not configured")
)

// Error codes carried in the "code" field of every error envelope.
const (
	CodeValidation    = "validation_error"
	CodeUnauthorized  = "unauthorized"
	CodeForbidden     = "forbidden"
	CodeNotFound      = "not_found"
	CodeNotConfigured = "not_configured"
	CodeRemote        = "remote_error"
	CodeInternal      = "internal_error"
)

type AppError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *AppError) Error() string {
	return e.Message
}

func NewBadRequestError(message string) *AppError {
	return &AppError{StatusCode: http.StatusBadRequest, Code: CodeValidation, Message: message}
}

func NewUnauthorizedError(message string) *AppError {
	return &AppError{StatusCode: http.StatusUnauthorized, Code: CodeUnauthorized, Message: message}
}

func NewForbiddenError(message string) *AppError {
	return &AppError{StatusCode: http.StatusForbidden, Code: CodeForbidden, Message: message}
}

func NewNotFoundError(message string) *AppError {
	return &AppError{StatusCode: http.StatusNotFound, Code: CodeNotFound, Message: message}
}

// NewNotConfiguredError marks a missing upstream credential. Clients show it
// as a persistent notice rather than a one-off error.
func NewNotConfiguredError(message string) *AppError {
	return &AppError{StatusCode: http.StatusServiceUnavailable, Code: CodeNotConfigured, Message: message}
}

func NewRemoteError(message string) *AppError {
	return &AppError{StatusCode: http.StatusBadGateway, Code: CodeRemote, Message: message}
}

func NewInternalError(message string) *AppError {
	return &AppError{StatusCode: http.StatusInternalServerError, Code: CodeInternal, Message: message}
}

// KindForCode maps an envelope error code back to the client-side error kind.
func KindForCode(code string, status int) error {
	switch code {
	case CodeValidation:
		return ErrValidation
	case CodeUnauthorized:
		return ErrAuthRequired
	case CodeNotConfigured:
		return ErrConfiguration
	}
	if status == http.StatusUnauthorized {
		return ErrAuthRequired
	}
	return ErrRemoteService
}
