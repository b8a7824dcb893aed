package http

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/upntrack/upn-server/internal/tracker_service/domain"
)

func (h *Handler) CreateUsage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req CreateUsageRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}
	defer r.Body.Close()
	if err := h.validate.StructCtx(ctx, req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Validation failed: "+err.Error())
		return
	}
	phoneID, err := uuid.Parse(req.PhoneID)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid phone ID")
		return
	}
	serviceID, err := uuid.Parse(req.ServiceID)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid service ID")
		return
	}

	u, err := h.app.MarkUsed(ctx, phoneID, serviceID)
	if err != nil {
		respondWithDomainError(w, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, u)
}

// ListUsage returns usage rows in chronological order, optionally filtered
// by phone_id or service_id query parameters.
func (h *Handler) ListUsage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var (
		usages []*domain.Usage
		err    error
	)
	switch {
	case r.URL.Query().Get("phone_id") != "":
		var phoneID uuid.UUID
		phoneID, err = uuid.Parse(r.URL.Query().Get("phone_id"))
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "Invalid phone ID")
			return
		}
		usages, err = h.app.ListUsageForPhone(ctx, phoneID)
	case r.URL.Query().Get("service_id") != "":
		var serviceID uuid.UUID
		serviceID, err = uuid.Parse(r.URL.Query().Get("service_id"))
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "Invalid service ID")
			return
		}
		usages, err = h.app.ListUsageForService(ctx, serviceID)
	default:
		usages, err = h.app.ListUsage(ctx)
	}
	if err != nil {
		respondWithDomainError(w, err)
		return
	}
	if usages == nil {
		usages = []*domain.Usage{}
	}
	respondWithJSON(w, http.StatusOK, usages)
}

func (h *Handler) DeleteUsage(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "usageID"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid usage ID")
		return
	}
	if err := h.app.DeleteUsage(r.Context(), id); err != nil {
		respondWithDomainError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]string{"message": "Usage record deleted successfully"})
}

// DeleteUsageByPair unmarks a (phone, service) pair given as query
// parameters, mirroring the ledger's pair-based contract.
func (h *Handler) DeleteUsageByPair(w http.ResponseWriter, r *http.Request) {
	phoneID, err := uuid.Parse(r.URL.Query().Get("phone_id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid phone ID")
		return
	}
	serviceID, err := uuid.Parse(r.URL.Query().Get("service_id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid service ID")
		return
	}
	if err := h.app.MarkUnused(r.Context(), phoneID, serviceID); err != nil {
		respondWithDomainError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]string{"message": "Usage record deleted successfully"})
}
