package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"heronnest/internal/apperrors"
)

type ErrorResponse struct {
	Error string          `json:"error"`
	Code  apperrors.Code `json:"code,omitempty"`
}

// WriteError writes a plain JSON error.
func WriteError(w http.ResponseWriter, message string, statusCode int) {
	writeJSON(w, statusCode, ErrorResponse{Error: message})
}

// WriteAppError writes err with the status its code maps to. Causes are not
// echoed to the client.
func WriteAppError(w http.ResponseWriter, err error) {
	code := apperrors.CodeOf(err)

	message := "internal error"
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		message = appErr.Message
	}

	writeJSON(w, StatusFor(code), ErrorResponse{Error: message, Code: code})
}

func StatusFor(code apperrors.Code) int {
	switch code {
	case apperrors.CodeInvalidArgument:
		return http.StatusBadRequest
	case apperrors.CodeNotFound:
		return http.StatusNotFound
	case apperrors.CodeAlreadyExists:
		return http.StatusConflict
	case apperrors.CodePermissionDenied:
		return http.StatusForbidden
	case apperrors.CodeUnauthenticated, apperrors.CodeRequiresRecentLogin:
		return http.StatusUnauthorized
	case apperrors.CodeFailedPrecondition:
		return http.StatusPreconditionFailed
	case apperrors.CodeUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

func writeSuccess(w http.ResponseWriter, data any, statusCode int) {
	writeJSON(w, statusCode, data)
}
