package rest

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/DanielPopoola/jmw-payments/internal/application"
)

type ErrorResponse struct {
	Success bool        `json:"success"`
	Error   ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
}

// BuildErrorResponse maps an application error to its status and body.
// Messages of server-side failures are replaced with a generic one.
func BuildErrorResponse(err error) (int, ErrorResponse) {
	statusCode := application.ToHTTPStatus(err)
	detail := ErrorDetail{
		Code:    application.ToErrorCode(err),
		Message: err.Error(),
	}

	if svcErr, ok := application.IsServiceError(err); ok {
		detail.Message = svcErr.Message
		detail.Details = svcErr.Details
	}
	if statusCode >= http.StatusInternalServerError && detail.Code == application.ErrCodeInternal {
		detail.Message = "An internal error occurred"
	}

	return statusCode, ErrorResponse{Success: false, Error: detail}
}

// WriteError maps application errors to HTTP responses
func WriteError(w http.ResponseWriter, err error, logger *slog.Logger) {
	statusCode, response := BuildErrorResponse(err)
	if statusCode >= http.StatusInternalServerError {
		logger.Error("request failed",
			"status", statusCode,
			"code", response.Error.Code,
			"error", err)
	}
	RespondJSON(w, statusCode, response)
}

// WriteErrorCode writes an error body for conditions that are results
// rather than Go errors, such as reconciliation outcomes.
func WriteErrorCode(w http.ResponseWriter, statusCode int, code, message string) {
	RespondJSON(w, statusCode, ErrorResponse{
		Success: false,
		Error:   ErrorDetail{Code: code, Message: message},
	})
}

func RespondJSON(w http.ResponseWriter, statusCode int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(body)
}
