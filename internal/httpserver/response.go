package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	authdomain "catalog/backend/internal/domain/auth"
	"catalog/backend/internal/usecase/apperror"

	"go.uber.org/zap"
)

// StandardError is the body of every failed request.
type StandardError struct {
	Timestamp time.Time    `json:"timestamp"`
	Status    int          `json:"status"`
	Error     string       `json:"error"`
	Message   string       `json:"message"`
	Path      string       `json:"path"`
	Errors    []FieldError `json:"errors,omitempty"`
}

// FieldError describes one rejected input field.
type FieldError struct {
	FieldName string `json:"fieldName"`
	Message   string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, r *http.Request, status int, message string) {
	writeJSON(w, status, StandardError{
		Timestamp: time.Now().UTC(),
		Status:    status,
		Error:     http.StatusText(status),
		Message:   message,
		Path:      r.URL.Path,
	})
}

func writeValidationError(w http.ResponseWriter, r *http.Request, fields []FieldError) {
	status := http.StatusUnprocessableEntity
	writeJSON(w, status, StandardError{
		Timestamp: time.Now().UTC(),
		Status:    status,
		Error:     "Validation exception",
		Message:   "one or more fields are invalid",
		Path:      r.URL.Path,
		Errors:    fields,
	})
}

// writeServiceError maps a use case failure onto a status code. Unknown
// failures are logged and reported without their details.
func (s *Server) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, apperror.ErrNotFound):
		writeError(w, r, http.StatusNotFound, err.Error())
	case errors.Is(err, apperror.ErrDatabaseIntegrity):
		writeError(w, r, http.StatusBadRequest, err.Error())
	case errors.Is(err, authdomain.ErrEmailExists):
		writeError(w, r, http.StatusConflict, err.Error())
	case errors.Is(err, authdomain.ErrInvalidRole):
		writeError(w, r, http.StatusBadRequest, err.Error())
	case errors.Is(err, authdomain.ErrInvalidCredentials):
		writeError(w, r, http.StatusUnauthorized, "invalid email or password")
	case errors.Is(err, authdomain.ErrTokenInvalid):
		writeError(w, r, http.StatusUnauthorized, err.Error())
	default:
		s.logger.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		writeError(w, r, http.StatusInternalServerError, "internal server error")
	}
}
