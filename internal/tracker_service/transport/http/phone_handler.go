package http

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

func (h *Handler) CreatePhone(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req CreatePhoneRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}
	defer r.Body.Close()
	if err := h.validate.StructCtx(ctx, req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Validation failed: "+err.Error())
		return
	}
	operatorID, err := uuid.Parse(req.OperatorID)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid operator ID")
		return
	}

	p, err := h.app.CreatePhone(ctx, req.Number, operatorID)
	if err != nil {
		respondWithDomainError(w, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, p)
}

func (h *Handler) ListPhones(w http.ResponseWriter, r *http.Request) {
	phones, err := h.app.ListPhones(r.Context())
	if err != nil {
		respondWithDomainError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, phones)
}

func (h *Handler) GetPhone(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "phoneID"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid phone ID")
		return
	}
	p, err := h.app.GetPhone(r.Context(), id)
	if err != nil {
		respondWithDomainError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, p)
}

func (h *Handler) UpdatePhone(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := uuid.Parse(chi.URLParam(r, "phoneID"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid phone ID")
		return
	}
	var req UpdatePhoneRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}
	defer r.Body.Close()
	if err := h.validate.StructCtx(ctx, req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Validation failed: "+err.Error())
		return
	}

	var operatorID *uuid.UUID
	if req.OperatorID != nil {
		parsed, err := uuid.Parse(*req.OperatorID)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "Invalid operator ID")
			return
		}
		operatorID = &parsed
	}

	p, err := h.app.UpdatePhone(ctx, id, req.Number, operatorID)
	if err != nil {
		respondWithDomainError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, p)
}

func (h *Handler) DeletePhone(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "phoneID"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid phone ID")
		return
	}
	if err := h.app.DeletePhone(r.Context(), id); err != nil {
		respondWithDomainError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]string{"message": "Phone deleted successfully"})
}

// PhoneServiceBreakdown returns the full service catalog annotated with
// whether this phone has a live usage record for each service.
func (h *Handler) PhoneServiceBreakdown(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "phoneID"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid phone ID")
		return
	}
	breakdown, err := h.app.PhoneServiceBreakdown(r.Context(), id)
	if err != nil {
		respondWithDomainError(w, err)
		return
	}
	out := make([]ServiceUsageDTO, 0, len(breakdown))
	for _, entry := range breakdown {
		out = append(out, ServiceUsageDTO{
			Service: entry.Service,
			Used:    entry.Used(),
			UsageID: entry.UsageID,
			UsedAt:  entry.UsedAt,
		})
	}
	respondWithJSON(w, http.StatusOK, out)
}

// NormalizePhone exposes the normalizer for client-side validation feedback.
func (h *Handler) NormalizePhone(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req NormalizePhoneRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}
	defer r.Body.Close()
	if err := h.validate.StructCtx(ctx, req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Validation failed: "+err.Error())
		return
	}

	normalized, err := h.app.NormalizePhone(req.Phone)
	if err != nil {
		respondWithDomainError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, NormalizePhoneResponseDTO{
		Original:   req.Phone,
		Normalized: normalized,
	})
}
