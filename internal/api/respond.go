package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"lendshare/internal/database"
	"lendshare/internal/service"
)

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]any{"success": false, "error": message})
}

// writeServiceError translates sentinel errors into HTTP status codes.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, database.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, database.ErrDuplicateEmail):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrPermissionDenied):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, service.ErrInvalidInterval),
		errors.Is(err, service.ErrItemUnavailable),
		errors.Is(err, service.ErrAlreadyDecided),
		errors.Is(err, service.ErrUnknownFilter),
		errors.Is(err, service.ErrNotRented),
		errors.Is(err, service.ErrRentalNotFinished),
		errors.Is(err, service.ErrBlankText):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}
