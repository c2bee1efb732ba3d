package web

// errors.go provides unified error response handling for the API.
//
// Handlers call respondError with whatever a collaborator returned; the
// domain sentinel errors are mapped to HTTP status codes here so status
// decisions live in one place. The technical error is logged server-side
// with the request id for correlation, and the client receives a JSON
// body with a stable message.

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/csvhub/csvhub/internal/auth"
	"github.com/csvhub/csvhub/internal/blob"
	"github.com/csvhub/csvhub/internal/document"
	"github.com/csvhub/csvhub/internal/organization"
	"github.com/csvhub/csvhub/internal/upload"
)

// ErrorResponse is the JSON structure for API error responses.
type ErrorResponse struct {
	Error string `json:"error"`
}

// respondError maps a domain error to an HTTP status and writes the JSON
// error body.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)

	slog.Error("request error",
		"path", r.URL.Path,
		"method", r.Method,
		"status", status,
		"error", err.Error(),
		"request_id", middleware.GetReqID(r.Context()),
	)

	message := err.Error()
	if status == http.StatusInternalServerError {
		// Never leak internals to clients
		message = "internal server error"
	}
	writeErrorJSON(w, status, message)
}

// statusFor maps known domain errors to status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, auth.ErrValidation),
		errors.Is(err, document.ErrBadPattern):
		return http.StatusBadRequest
	case errors.Is(err, auth.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, auth.ErrEmailTaken):
		return http.StatusConflict
	case errors.Is(err, auth.ErrUserNotFound),
		errors.Is(err, organization.ErrNotFound),
		errors.Is(err, upload.ErrNotFound),
		errors.Is(err, blob.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, upload.ErrTooManyIngestions):
		return http.StatusTooManyRequests
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// writeError writes a JSON error response with an explicit status. Used
// for request-shape problems the handler diagnoses itself.
func writeError(w http.ResponseWriter, status int, message string) {
	slog.Warn("request rejected", "status", status, "error", message)
	writeErrorJSON(w, status, message)
}

func writeErrorJSON(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(ErrorResponse{Error: message})
}

// writeJSON encodes v as JSON with a 200 status.
func writeJSON(w http.ResponseWriter, v any) {
	writeJSONStatus(w, http.StatusOK, v)
}

// writeJSONStatus encodes v as JSON with the given status.
// Logs encoding errors since headers are already sent.
func writeJSONStatus(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode error", "error", err)
	}
}
