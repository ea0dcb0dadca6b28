package application

import (
	"context"
	"errors"
	"net/http"

	"github.com/DanielPopoola/jmw-payments/internal/domain"
)

// ErrorCategory represents the nature of an error for retry logic
type ErrorCategory string

const (
	CategoryTransient      ErrorCategory = "TRANSIENT"
	CategoryPermanent      ErrorCategory = "PERMANENT"
	CategoryBusinessRule   ErrorCategory = "BUSINESS_RULE"
	CategoryClientError    ErrorCategory = "CLIENT_ERROR"
	CategoryInfrastructure ErrorCategory = "INFRASTRUCTURE"
)

// RetryableError is implemented by adapter errors that know whether the
// remote side may succeed on a later attempt.
type RetryableError interface {
	error
	IsRetryable() bool
}

// CategorizeError determines error category for retry and logging purposes
func CategorizeError(err error) ErrorCategory {
	if err == nil {
		return ""
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return CategoryTransient
	}

	var malformed *domain.MalformedReferenceError
	if errors.As(err, &malformed) {
		return CategoryClientError
	}

	switch {
	case errors.Is(err, domain.ErrInvalidAmount),
		errors.Is(err, domain.ErrCouponAlreadyUsed),
		errors.Is(err, domain.ErrCouponInvalid),
		errors.Is(err, domain.ErrLinkExpired),
		errors.Is(err, domain.ErrOrderAlreadyPaid),
		errors.Is(err, domain.ErrInvalidTransition):
		return CategoryBusinessRule
	case errors.Is(err, domain.ErrRecordNotFound),
		errors.Is(err, domain.ErrMissingRequiredField),
		errors.Is(err, domain.ErrInvalidSize):
		return CategoryClientError
	}

	if svcErr, ok := IsServiceError(err); ok {
		switch svcErr.Code {
		case ErrCodeInvalidInput, ErrCodeNotFound:
			return CategoryClientError
		case ErrCodeConflict:
			return CategoryBusinessRule
		case ErrCodeInternal, ErrCodeReferenceExhausted:
			return CategoryInfrastructure
		case ErrCodeGatewayUnavailable, ErrCodeTimeout:
			return CategoryTransient
		}
	}

	var retryable RetryableError
	if errors.As(err, &retryable) {
		if retryable.IsRetryable() {
			return CategoryTransient
		}
		return CategoryPermanent
	}

	return CategoryTransient
}

// IsRetryable returns true if the error category suggests retry
func IsRetryable(err error) bool {
	category := CategorizeError(err)
	return category == CategoryTransient || category == CategoryInfrastructure
}

// ToHTTPStatus maps error to appropriate HTTP status code
func ToHTTPStatus(err error) int {
	if err == nil {
		return http.StatusOK
	}

	if svcErr, ok := IsServiceError(err); ok {
		return svcErr.HTTPStatus
	}

	var malformed *domain.MalformedReferenceError
	if errors.As(err, &malformed) {
		return http.StatusBadRequest
	}

	switch {
	case errors.Is(err, domain.ErrInvalidAmount),
		errors.Is(err, domain.ErrMissingRequiredField),
		errors.Is(err, domain.ErrInvalidSize),
		errors.Is(err, domain.ErrCouponAlreadyUsed),
		errors.Is(err, domain.ErrCouponInvalid):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrInvalidTransition),
		errors.Is(err, domain.ErrOrderAlreadyPaid):
		return http.StatusConflict
	case errors.Is(err, domain.ErrLinkExpired):
		return http.StatusGone
	case errors.Is(err, domain.ErrRecordNotFound):
		return http.StatusNotFound
	case errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, context.Canceled):
		return http.StatusRequestTimeout
	}

	var retryable RetryableError
	if errors.As(err, &retryable) {
		return http.StatusBadGateway
	}

	return http.StatusInternalServerError
}

// ToErrorCode clear error code for API responses
func ToErrorCode(err error) string {
	if svcErr, ok := IsServiceError(err); ok {
		return svcErr.Code
	}

	var malformed *domain.MalformedReferenceError
	if errors.As(err, &malformed) {
		return domain.ErrCodeMalformedReference
	}

	var domainErr *domain.DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Code
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return ErrCodeTimeout
	}

	var retryable RetryableError
	if errors.As(err, &retryable) {
		return ErrCodeGatewayUnavailable
	}

	return ErrCodeInternal
}
