package domain

import (
	"errors"
	"fmt"
)

// DomainError represents a business logic error
type DomainError struct {
	Code    string
	Message string
	Err     error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error for errors.Is/As support
func (e *DomainError) Unwrap() error {
	return e.Err
}

const (
	ErrCodeInvalidTransition    = "INVALID_TRANSITION"
	ErrCodeRecordNotFound       = "RECORD_NOT_FOUND"
	ErrCodeInvalidAmount        = "INVALID_AMOUNT"
	ErrCodeMissingRequiredField = "MISSING_REQUIRED_FIELD"
	ErrCodeMalformedReference   = "MALFORMED_REFERENCE"
	ErrCodeCouponAlreadyUsed    = "COUPON_ALREADY_USED"
	ErrCodeCouponInvalid        = "COUPON_INVALID"
	ErrCodeLinkExpired          = "LINK_EXPIRED"
	ErrCodeOrderAlreadyPaid     = "ORDER_ALREADY_PAID"
	ErrCodeInvalidSize          = "INVALID_SIZE"
)

var (
	ErrInvalidTransition    = &DomainError{Code: ErrCodeInvalidTransition, Message: "invalid status transition"}
	ErrRecordNotFound       = &DomainError{Code: ErrCodeRecordNotFound, Message: "record not found"}
	ErrInvalidAmount        = &DomainError{Code: ErrCodeInvalidAmount, Message: "invalid amount"}
	ErrMissingRequiredField = &DomainError{Code: ErrCodeMissingRequiredField, Message: "missing required field"}
	ErrCouponAlreadyUsed    = &DomainError{Code: ErrCodeCouponAlreadyUsed, Message: "coupon code has already been used"}
	ErrCouponInvalid        = &DomainError{Code: ErrCodeCouponInvalid, Message: "coupon code is not valid for this link"}
	ErrLinkExpired          = &DomainError{Code: ErrCodeLinkExpired, Message: "payment deadline has passed"}
	ErrOrderAlreadyPaid     = &DomainError{Code: ErrCodeOrderAlreadyPaid, Message: "order has already been paid"}
	ErrInvalidSize          = &DomainError{Code: ErrCodeInvalidSize, Message: "unsupported size"}
)

func NewMissingRequiredFieldError(field string) *DomainError {
	return &DomainError{
		Code:    ErrCodeMissingRequiredField,
		Message: fmt.Sprintf("%s is required", field),
		Err:     ErrMissingRequiredField,
	}
}

func NewInvalidTransitionError(from, to PaymentStatus) *DomainError {
	return &DomainError{
		Code:    ErrCodeInvalidTransition,
		Message: fmt.Sprintf("cannot transition from %s to %s", from, to),
		Err:     ErrInvalidTransition,
	}
}

func NewRecordNotFoundError(kind, key string) *DomainError {
	return &DomainError{
		Code:    ErrCodeRecordNotFound,
		Message: fmt.Sprintf("%s %s not found", kind, key),
		Err:     ErrRecordNotFound,
	}
}

func NewInvalidAmountError(amount Kobo) *DomainError {
	return &DomainError{
		Code:    ErrCodeInvalidAmount,
		Message: fmt.Sprintf("invalid amount %d", amount),
		Err:     ErrInvalidAmount,
	}
}

// IsErrorCode checks if an error is a DomainError with a specific code
func IsErrorCode(err error, code string) bool {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Code == code
	}
	return false
}
