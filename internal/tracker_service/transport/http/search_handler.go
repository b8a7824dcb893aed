package http

import (
	"net/http"
)

// Search resolves a free-text query. The empty query yields an empty list
// rather than an error.
//
// The UI intercepts the reserved literals "database" and "images" before
// calling this endpoint; they reach the resolver only as ordinary text and
// receive no special treatment here.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	results, err := h.app.Search(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		respondWithDomainError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, results)
}
