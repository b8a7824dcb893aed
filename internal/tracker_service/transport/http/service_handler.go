package http

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

func (h *Handler) CreateService(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req CreateServiceRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}
	defer r.Body.Close()
	if err := h.validate.StructCtx(ctx, req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Validation failed: "+err.Error())
		return
	}

	sv, err := h.app.CreateService(ctx, req.Name, req.LogoBase64)
	if err != nil {
		respondWithDomainError(w, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, sv)
}

func (h *Handler) ListServices(w http.ResponseWriter, r *http.Request) {
	services, err := h.app.ListServices(r.Context())
	if err != nil {
		respondWithDomainError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, services)
}

func (h *Handler) GetService(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "serviceID"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid service ID")
		return
	}
	sv, err := h.app.GetService(r.Context(), id)
	if err != nil {
		respondWithDomainError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, sv)
}

func (h *Handler) UpdateService(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := uuid.Parse(chi.URLParam(r, "serviceID"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid service ID")
		return
	}
	var req UpdateServiceRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}
	defer r.Body.Close()
	if err := h.validate.StructCtx(ctx, req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Validation failed: "+err.Error())
		return
	}

	sv, err := h.app.UpdateService(ctx, id, req.Name, req.LogoBase64)
	if err != nil {
		respondWithDomainError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, sv)
}

func (h *Handler) DeleteService(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "serviceID"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid service ID")
		return
	}
	if err := h.app.DeleteService(r.Context(), id); err != nil {
		respondWithDomainError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]string{"message": "Service deleted successfully"})
}

// ServicePhoneBreakdown returns every phone annotated with whether it has a
// live usage record for this service.
func (h *Handler) ServicePhoneBreakdown(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "serviceID"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid service ID")
		return
	}
	breakdown, err := h.app.ServicePhoneBreakdown(r.Context(), id)
	if err != nil {
		respondWithDomainError(w, err)
		return
	}
	out := make([]PhoneUsageDTO, 0, len(breakdown))
	for _, entry := range breakdown {
		out = append(out, PhoneUsageDTO{
			Phone:   entry.Phone,
			Used:    entry.Used(),
			UsageID: entry.UsageID,
			UsedAt:  entry.UsedAt,
		})
	}
	respondWithJSON(w, http.StatusOK, out)
}
