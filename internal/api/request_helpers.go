package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/vporoshok/taskping/internal/api/shared"
)

// getUserIDFromContext extracts the acting user's ID from the request
// context, where the authentication middleware put it. Writes the 401
// response itself when missing.
func getUserIDFromContext(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID, ok := shared.UserID(r.Context())
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Authentication required")
		return "", false
	}
	return userID, true
}

// getPathID extracts an entity key from the URL path parameters. Writes
// the 400 response itself when the parameter is missing.
func getPathID(w http.ResponseWriter, r *http.Request, paramName string) (string, bool) {
	id := chi.URLParam(r, paramName)
	if id == "" {
		shared.RespondWithError(w, r, http.StatusBadRequest, paramName+" is required")
		return "", false
	}
	return id, true
}
