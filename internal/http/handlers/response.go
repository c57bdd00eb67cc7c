// Package handlers provides HTTP handler implementations for the public API.
//
// This file defines the standard response utilities used across all endpoints,
// including structured error envelopes, consistent JSON serialization, and the
// mapping from result failure kinds to HTTP statuses. The goal is to guarantee
// uniform responses for both success and failure cases, making the API
// predictable and machine-friendly.
//
// Conventions:
//   - All error responses must return an ErrorResponse with a stable `code`.
//   - `fail()` centralizes error logging and formatting, ensuring 5xx responses
//     are logged with request context for observability.
//   - `failKind()` translates a result.Kind into the right status and code, so
//     every handler classifies failures the same way.
//
// Example error response:
//
//	HTTP/1.1 502 Bad Gateway
//	{
//	  "request_id": "123e4567-e89b-12d3-a456-426614174000",
//	  "code": "external_error",
//	  "message": "External API returned 503: busy"
//	}
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-integration-backend/internal/http/middleware"
	"github.com/tbourn/go-integration-backend/internal/result"
)

// ErrorResponse is the standard error envelope returned by all endpoints.
//
// Fields:
//   - RequestID: Optional correlation ID, echoed from X-Request-ID header, used
//     to correlate server logs with client-side errors.
//   - Code: A stable, machine-readable string (see errors.go constants).
//   - Message: A human-readable error description, safe for display to users.
//
// This struct is used in OpenAPI documentation via Swagger annotations.
type ErrorResponse struct {
	// Correlates server logs and client errors
	RequestID string `json:"request_id,omitempty" example:"123e4567-e89b-12d3-a456-426614174000"`
	// Stable, machine-readable code (see errors.go constants)
	Code string `json:"code" example:"external_error"`
	// Human-readable message (safe to show to users)
	Message string `json:"message" example:"External API returned 503: busy"`
}

// fail aborts the request with a structured error and logs server-side errors.
//
// It constructs an ErrorResponse, writes it as JSON with the given HTTP status,
// and calls gin.Context.AbortWithStatusJSON to stop further processing.
//
// Server errors (>=500) are logged using the request-scoped logger from middleware.
func fail(c *gin.Context, status int, code, msg string) {
	reqID := c.Writer.Header().Get("X-Request-ID")
	resp := ErrorResponse{
		RequestID: reqID,
		Code:      code,
		Message:   msg,
	}

	// Log 5xx (server-side) with request-scoped logger
	if status >= http.StatusInternalServerError {
		lg := middleware.LoggerFrom(c)
		lg.Error().
			Int("status", status).
			Str("code", code).
			Str("message", msg).
			Msg("api error")
	}

	c.AbortWithStatusJSON(status, resp)
}

// Fail is the exported variant of fail().
//
// External packages (e.g., router setup) should call Fail to return
// consistent error envelopes without directly depending on unexported helpers.
func Fail(c *gin.Context, status int, code, msg string) { fail(c, status, code, msg) }

// failKind converts a result failure kind into an HTTP error response.
//
// Mapping:
//   - validation       -> 400 validation_error
//   - not_found        -> 404 not_found
//   - external_service -> 502 external_error
//   - network          -> 502 network_error
//   - anything else    -> 500 internal_error
func failKind(c *gin.Context, kind result.Kind, msg string) {
	switch kind {
	case result.KindValidation:
		fail(c, http.StatusBadRequest, ErrCodeValidation, msg)
	case result.KindNotFound:
		fail(c, http.StatusNotFound, ErrCodeNotFound, msg)
	case result.KindExternal:
		fail(c, http.StatusBadGateway, ErrCodeExternal, msg)
	case result.KindNetwork:
		fail(c, http.StatusBadGateway, ErrCodeNetwork, msg)
	default:
		fail(c, http.StatusInternalServerError, ErrCodeInternal, msg)
	}
}

// ok writes a success JSON response.
//
// It serializes `body` as JSON with the given HTTP status code.
func ok(c *gin.Context, status int, body any) {
	c.JSON(status, body)
}
