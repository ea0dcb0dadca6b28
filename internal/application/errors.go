package application

import (
	"errors"
	"fmt"
	"net/http"
)

// APPLICATION-LEVEL ERRORS (Orchestration)

type ServiceError struct {
	Code       string
	Message    string
	HTTPStatus int
	Details    map[string]string
	Err        error
}

func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

const (
	ErrCodeInternal           = "INTERNAL_ERROR"
	ErrCodeInvalidInput       = "INVALID_INPUT"
	ErrCodeNotFound           = "NOT_FOUND"
	ErrCodeConflict           = "CONFLICT"
	ErrCodeGatewayUnavailable = "GATEWAY_UNAVAILABLE"
	ErrCodeTimeout            = "TIMEOUT"
	ErrCodeReferenceExhausted = "REFERENCE_EXHAUSTED"
)

func NewInternalError(err error) *ServiceError {
	return &ServiceError{
		Code:       ErrCodeInternal,
		Message:    "An internal error occurred",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

func NewInvalidInputError(err error) *ServiceError {
	return &ServiceError{
		Code:       ErrCodeInvalidInput,
		Message:    "Invalid input",
		HTTPStatus: http.StatusBadRequest,
		Err:        err,
	}
}

// NewFieldError is a 400 that names the offending request field.
func NewFieldError(code, field, message string) *ServiceError {
	return &ServiceError{
		Code:       code,
		Message:    message,
		HTTPStatus: http.StatusBadRequest,
		Details:    map[string]string{field: message},
	}
}

func NewNotFoundError(err error) *ServiceError {
	return &ServiceError{
		Code:       ErrCodeNotFound,
		Message:    "Resource not found",
		HTTPStatus: http.StatusNotFound,
		Err:        err,
	}
}

func NewConflictError(code string, err error) *ServiceError {
	return &ServiceError{
		Code:       code,
		Message:    "Conflicting state",
		HTTPStatus: http.StatusConflict,
		Err:        err,
	}
}

func NewGatewayUnavailableError(err error) *ServiceError {
	return &ServiceError{
		Code:       ErrCodeGatewayUnavailable,
		Message:    "Payment gateway is unavailable",
		HTTPStatus: http.StatusBadGateway,
		Err:        err,
	}
}

func NewTimeoutError() *ServiceError {
	return &ServiceError{
		Code:       ErrCodeTimeout,
		Message:    "Request timed out waiting for completion",
		HTTPStatus: http.StatusRequestTimeout,
	}
}

func IsServiceError(err error) (*ServiceError, bool) {
	var svcErr *ServiceError
	ok := errors.As(err, &svcErr)
	return svcErr, ok
}
