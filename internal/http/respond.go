package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"fintrack/internal/core"
	applog "fintrack/internal/log"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", applog.FieldError, err)
	}
}

func writeErrorMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// writeError maps domain errors onto the API's status codes: validation
// failures are 422, unknown resources 404, malformed input 400, anything
// else 500 with the detail kept out of the response body.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, core.ErrNotFound):
		writeErrorMessage(w, http.StatusNotFound, "not found")
	case errors.Is(err, errMalformedBody), errors.Is(err, core.ErrMalformedDate):
		writeErrorMessage(w, http.StatusBadRequest, err.Error())
	case core.IsValidation(err):
		writeErrorMessage(w, http.StatusUnprocessableEntity, err.Error())
	default:
		slog.Error("Request failed", applog.FieldError, err)
		writeErrorMessage(w, http.StatusInternalServerError, "internal error")
	}
}
