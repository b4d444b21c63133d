package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"powerbill/internal/auth"
	"powerbill/internal/core"
	"powerbill/internal/log"
)

// Response is the envelope every API endpoint answers with.
type Response[T any] struct {
	Success bool     `json:"success"`
	Message string   `json:"message"`
	Data    *T       `json:"data,omitempty"`
	Errors  []string `json:"errors,omitempty"`
}

func SuccessResponse[T any](message string, data T) Response[T] {
	return Response[T]{
		Success: true,
		Message: message,
		Data:    &data,
	}
}

func ErrorResponse(message string, errors ...string) Response[struct{}] {
	return Response[struct{}]{
		Success: false,
		Message: message,
		Errors:  errors,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

func writeOK[T any](w http.ResponseWriter, status int, message string, data T) {
	writeJSON(w, status, SuccessResponse(message, data))
}

func writeError(w http.ResponseWriter, status int, message string, errs ...string) {
	writeJSON(w, status, ErrorResponse(message, errs...))
}

// statusFor maps engine errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, core.ErrBillNotFound):
		return http.StatusNotFound
	case errors.Is(err, core.ErrInvalidAmount),
		errors.Is(err, core.ErrEmptyVendor),
		errors.Is(err, core.ErrInvalidStatus),
		errors.Is(err, core.ErrInvalidCategory),
		errors.Is(err, core.ErrInvalidUnits):
		return http.StatusUnprocessableEntity
	case errors.Is(err, auth.ErrInvalidCredentials):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// writeEngineError writes err with the matching status. Internal errors are
// logged and hidden from the client.
func writeEngineError(w http.ResponseWriter, r *http.Request, op, message string, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		log.NewStructuredLogger(log.FromContext(r.Context())).LogError(r.Context(), message, err,
			log.ComponentHTTP, op,
			log.NewFields().WithHTTPRequest(r.Method, r.URL.Path, r.URL.RawQuery, r.UserAgent()))
		writeError(w, status, message, "internal error")
		return
	}
	writeError(w, status, message, err.Error())
}
