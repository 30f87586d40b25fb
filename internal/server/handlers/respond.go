// internal/server/handlers/respond.go

package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/shivraj-yadav/ChugLi/internal/domain/identity"
	"github.com/shivraj-yadav/ChugLi/internal/domain/room"
)

// Helper for JSON responses
func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("Failed to marshal response"))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}

// Helper for error responses
func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, map[string]string{"message": message})
}

// respondWithDomainError maps the error taxonomy onto HTTP statuses.
// Anything outside the taxonomy becomes a generic server failure that
// leaks no internals.
func respondWithDomainError(w http.ResponseWriter, err error) {
	var roomValidation room.ValidationError
	var identityValidation identity.ValidationError

	switch {
	case errors.As(err, &roomValidation), errors.As(err, &identityValidation):
		respondWithError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, identity.ErrUnauthorized), errors.Is(err, identity.ErrInvalidCredentials):
		respondWithError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, room.ErrForbidden):
		respondWithError(w, http.StatusForbidden, "Forbidden")
	case errors.Is(err, room.ErrNotFound):
		respondWithError(w, http.StatusNotFound, "Room not found")
	case errors.Is(err, identity.ErrEmailTaken):
		respondWithError(w, http.StatusConflict, err.Error())
	default:
		respondWithError(w, http.StatusInternalServerError, "Server error")
	}
}
