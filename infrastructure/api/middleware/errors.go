package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/helixml/factual/application/service"
	"github.com/helixml/factual/domain/sentiment"
	"github.com/helixml/factual/infrastructure/api/jsonapi"
)

// ErrValidation marks a request the client must fix before retrying.
var ErrValidation = errors.New("validation failed")

// APIError carries an explicit HTTP status.
type APIError struct {
	code    int
	message string
	cause   error
}

// NewAPIError creates an APIError.
func NewAPIError(code int, message string, cause error) *APIError {
	return &APIError{code: code, message: message, cause: cause}
}

// Code returns the HTTP status code.
func (e *APIError) Code() int { return e.code }

// Message returns the client-facing message.
func (e *APIError) Message() string { return e.message }

func (e *APIError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("api error %d: %s: %v", e.code, e.message, e.cause)
	}
	return fmt.Sprintf("api error %d: %s", e.code, e.message)
}

// Unwrap returns the underlying cause.
func (e *APIError) Unwrap() error { return e.cause }

// NewValidationError wraps ErrValidation with a detail message.
func NewValidationError(detail string) error {
	return fmt.Errorf("%w: %s", ErrValidation, detail)
}

// StatusFor maps an error to its HTTP status and title.
func StatusFor(err error) (int, string) {
	var apiErr *APIError
	switch {
	case errors.As(err, &apiErr):
		return apiErr.Code(), http.StatusText(apiErr.Code())
	case errors.Is(err, ErrValidation), errors.Is(err, service.ErrEmptyQuery):
		return http.StatusBadRequest, "Validation Error"
	case errors.Is(err, sentiment.ErrUnavailable), errors.Is(err, service.ErrClientClosed):
		return http.StatusServiceUnavailable, "Service Unavailable"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "Timeout"
	case errors.Is(err, context.Canceled):
		return http.StatusRequestTimeout, "Request Cancelled"
	default:
		return http.StatusInternalServerError, "Internal Server Error"
	}
}

// WriteError writes a JSON:API formatted error response.
func WriteError(w http.ResponseWriter, r *http.Request, err error, logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	status, title := StatusFor(err)

	detail := err.Error()
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		detail = apiErr.Message()
	}
	if status == http.StatusInternalServerError {
		detail = "an unexpected error occurred"
	}

	level := slog.LevelWarn
	if status >= http.StatusInternalServerError {
		level = slog.LevelError
	}
	logger.LogAttrs(r.Context(), level, "request error",
		slog.Int("status", status),
		slog.String("path", r.URL.Path),
		slog.Any("error", err),
	)

	doc := jsonapi.NewErrorDocument(jsonapi.Error{
		ID:     GetCorrelationID(r.Context()),
		Status: fmt.Sprintf("%d", status),
		Title:  title,
		Detail: detail,
	})

	w.Header().Set("Content-Type", jsonapi.MediaType)
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(doc)
}

// WriteJSON writes a JSON response.
func WriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
