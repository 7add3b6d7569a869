package controllers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/charmbracelet/log"

	"todo-tags/app/apperrors"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// StatusOf maps an error code to its HTTP status.
func StatusOf(code apperrors.Code) int {
	switch code {
	case apperrors.NotFound:
		return http.StatusNotFound
	case apperrors.ValidationFailed:
		return http.StatusBadRequest
	case apperrors.Duplicate:
		return http.StatusConflict
	case apperrors.StorageFailure:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// writeError logs err and writes its coded JSON form.
func writeError(w http.ResponseWriter, r *http.Request, logger *log.Logger, err error) {
	code := apperrors.CodeOf(err)
	message := "internal error"
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		message = appErr.Message
	}

	switch code {
	case apperrors.NotFound:
		logger.Warn(message, "path", r.URL.Path)
	case apperrors.ValidationFailed, apperrors.Duplicate:
		logger.Debug(message, "path", r.URL.Path, "code", code)
	default:
		logger.Error("request failed", "path", r.URL.Path, "code", code, "err", err)
	}

	if apperrors.Retryable(err) {
		w.Header().Set("Retry-After", "1")
	}
	writeJSON(w, StatusOf(code), ErrorResponse{Error: string(code), Message: message})
}
