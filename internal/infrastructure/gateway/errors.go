package gateway

import (
	"errors"
	"fmt"
	"net/http"
)

// GatewayError is a non-2xx or status=false answer from Paystack.
type GatewayError struct {
	Code       string
	Message    string
	StatusCode int
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("gateway error [%s]: %s (status: %d)", e.Code, e.Message, e.StatusCode)
}

func (e *GatewayError) IsRetryable() bool {
	return e.StatusCode >= http.StatusInternalServerError || e.StatusCode == http.StatusTooManyRequests
}

func IsGatewayError(err error) (*GatewayError, bool) {
	var gwErr *GatewayError
	ok := errors.As(err, &gwErr)
	return gwErr, ok
}

func codeForStatus(status int) string {
	switch {
	case status == http.StatusUnauthorized:
		return "unauthorized"
	case status == http.StatusNotFound:
		return "transaction_not_found"
	case status == http.StatusTooManyRequests:
		return "rate_limited"
	case status >= http.StatusInternalServerError:
		return "internal_error"
	case status >= http.StatusBadRequest:
		return "bad_request"
	default:
		return "rejected"
	}
}
