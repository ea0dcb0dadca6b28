package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/DanielPopoola/jmw-payments/internal/application"
	"github.com/DanielPopoola/jmw-payments/internal/interfaces/rest"
)

// Timeout bounds request handling. The request context carries the same
// deadline so store and gateway calls are abandoned with it.
func Timeout(timeout time.Duration) func(http.Handler) http.Handler {
	body, _ := json.Marshal(rest.ErrorResponse{
		Error: rest.ErrorDetail{
			Code:    application.ErrCodeTimeout,
			Message: "Request timeout",
		},
	})

	return func(next http.Handler) http.Handler {
		timeoutHandler := http.TimeoutHandler(next, timeout, string(body))
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), timeout)
			defer cancel()

			w.Header().Set("Content-Type", "application/json")
			timeoutHandler.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
