package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"customer-service/internal/api/handler/dto"
	"customer-service/internal/pkg/apperrors"
)

const internalErrorMessage = "An unexpected error occurred."

var errorLabels = map[apperrors.Kind]string{
	apperrors.KindNotFound:         "Resource not found",
	apperrors.KindValidationFailed: "Invalid request",
	apperrors.KindConflict:         "Database error",
	apperrors.KindInternal:         "Internal server error",
}

func decodeJSON(r *http.Request, v any) error {
	if r.Body == nil {
		return fmt.Errorf("%w: no request body", apperrors.ErrInvalidArgument)
	}
	defer r.Body.Close()
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: request body is empty", apperrors.ErrInvalidArgument)
		}
		return fmt.Errorf("%w: malformed request body: %v", apperrors.ErrInvalidArgument, err)
	}
	return nil
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	response, err := json.Marshal(payload)
	if err != nil {
		slog.Default().Error("Failed to marshal JSON response", "error", err)
		http.Error(w, `{"error":"Internal server error","status":500,"message":"An unexpected error occurred."}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(response)
}

func respondError(w http.ResponseWriter, r *http.Request, err error) {
	kind := apperrors.KindOf(err)
	status := apperrors.HTTPStatus(err)

	message := internalErrorMessage
	if kind != apperrors.KindInternal {
		message = err.Error()
	}

	respondJSON(w, status, dto.ErrorResponse{
		Error:   errorLabels[kind],
		Status:  status,
		Message: message,
		Path:    r.URL.Path,
	})
}

// logLevelFor keeps client mistakes out of the error log.
func logLevelFor(err error) slog.Level {
	if apperrors.KindOf(err) == apperrors.KindInternal {
		return slog.LevelError
	}
	return slog.LevelWarn
}
