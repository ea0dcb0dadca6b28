package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/DanielPopoola/jmw-payments/internal/application"
	"github.com/DanielPopoola/jmw-payments/internal/interfaces/rest"
	"github.com/getkin/kin-openapi/openapi2"
	"github.com/getkin/kin-openapi/openapi2conv"
	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/getkin/kin-openapi/routers"
	"github.com/getkin/kin-openapi/routers/legacy"
)

const apiPrefix = "/api/"

// LoadAPIDocument converts the swagger 2 document served at
// /swagger/doc.json into OpenAPI 3 for request validation.
func LoadAPIDocument(swaggerJSON string) (*openapi3.T, error) {
	var doc2 openapi2.T
	if err := json.Unmarshal([]byte(swaggerJSON), &doc2); err != nil {
		return nil, fmt.Errorf("parse swagger document: %w", err)
	}
	doc3, err := openapi2conv.ToV3(&doc2)
	if err != nil {
		return nil, fmt.Errorf("convert swagger document: %w", err)
	}
	return doc3, nil
}

// RequestValidation rejects client API requests that do not match the API
// document. Only paths under /api/ are checked; the webhook body must reach
// its handler untouched.
func RequestValidation(doc *openapi3.T, logger *slog.Logger) (func(http.Handler) http.Handler, error) {
	router, err := legacy.NewRouter(doc, openapi3.DisableExamplesValidation())
	if err != nil {
		return nil, fmt.Errorf("build openapi router: %w", err)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !strings.HasPrefix(r.URL.Path, apiPrefix) {
				next.ServeHTTP(w, r)
				return
			}

			err := validateRequest(r.Context(), router, r)
			if err != nil {
				logger.Debug("request rejected by schema", "path", r.URL.Path, "error", err)
				rest.WriteError(w, &application.ServiceError{
					Code:       application.ErrCodeInvalidInput,
					Message:    "Request does not match the API schema",
					HTTPStatus: http.StatusBadRequest,
					Details:    map[string]string{"reason": err.Error()},
					Err:        err,
				}, logger)
				return
			}

			next.ServeHTTP(w, r)
		})
	}, nil
}

// validateRequest returns nil for routes the document does not describe so
// the mux can answer 404 or 405 itself.
func validateRequest(ctx context.Context, router routers.Router, r *http.Request) error {
	route, pathParams, err := router.FindRoute(r)
	if err != nil {
		return nil
	}

	return openapi3filter.ValidateRequest(ctx, &openapi3filter.RequestValidationInput{
		Request:    r,
		PathParams: pathParams,
		Route:      route,
		Options: &openapi3filter.Options{
			AuthenticationFunc: openapi3filter.NoopAuthenticationFunc,
		},
	})
}
