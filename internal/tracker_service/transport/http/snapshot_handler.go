package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/upntrack/upn-server/internal/tracker_service/domain"
)

// ExportSnapshot serves a full backup document in the same format the
// import consumes.
func (h *Handler) ExportSnapshot(w http.ResponseWriter, r *http.Request) {
	snap, err := h.app.ExportSnapshot(r.Context())
	if err != nil {
		respondWithDomainError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, snap)
}

// ImportSnapshot runs the best-effort bulk merge and returns the per-kind
// report. A cancelled request still reports what was applied before the
// abort.
func (h *Handler) ImportSnapshot(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var snap domain.Snapshot
	if err := json.NewDecoder(r.Body).Decode(&snap); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid snapshot payload: "+err.Error())
		return
	}
	defer r.Body.Close()

	report, err := h.app.ImportSnapshot(ctx, &snap)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			h.logger.WarnContext(ctx, "Snapshot import aborted", "error", err)
			return
		}
		respondWithDomainError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, report)
}
