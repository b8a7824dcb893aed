package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/upntrack/upn-server/internal/tracker_service/domain"
)

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if payload != nil {
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			slog.Default().Error("Failed to write JSON response", "error", err)
		}
	}
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, map[string]string{"error": message})
}

// statusForError maps domain sentinel errors onto HTTP status codes:
// 400 validation/normalization, 404 missing target or dangling reference,
// 409 uniqueness conflicts and rejected dependent deletes, 503 storage.
func statusForError(err error) int {
	switch {
	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrInvalidNumber),
		errors.Is(err, domain.ErrNotPhoneNumber):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound),
		errors.Is(err, domain.ErrUnknownOperator),
		errors.Is(err, domain.ErrUnknownPhone),
		errors.Is(err, domain.ErrUnknownService):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrDuplicatePhone),
		errors.Is(err, domain.ErrDuplicateUsage),
		errors.Is(err, domain.ErrHasDependents):
		return http.StatusConflict
	case errors.Is(err, domain.ErrStorage):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func respondWithDomainError(w http.ResponseWriter, err error) {
	respondWithError(w, statusForError(err), err.Error())
}
