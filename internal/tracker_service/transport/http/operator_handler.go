package http

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

func (h *Handler) CreateOperator(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req CreateOperatorRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}
	defer r.Body.Close()
	if err := h.validate.StructCtx(ctx, req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Validation failed: "+err.Error())
		return
	}

	op, err := h.app.CreateOperator(ctx, req.Name, req.LogoBase64)
	if err != nil {
		respondWithDomainError(w, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, op)
}

func (h *Handler) ListOperators(w http.ResponseWriter, r *http.Request) {
	operators, err := h.app.ListOperators(r.Context())
	if err != nil {
		respondWithDomainError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, operators)
}

func (h *Handler) GetOperator(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "operatorID"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid operator ID")
		return
	}
	op, err := h.app.GetOperator(r.Context(), id)
	if err != nil {
		respondWithDomainError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, op)
}

func (h *Handler) UpdateOperator(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := uuid.Parse(chi.URLParam(r, "operatorID"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid operator ID")
		return
	}
	var req UpdateOperatorRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}
	defer r.Body.Close()
	if err := h.validate.StructCtx(ctx, req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Validation failed: "+err.Error())
		return
	}

	op, err := h.app.UpdateOperator(ctx, id, req.Name, req.LogoBase64)
	if err != nil {
		respondWithDomainError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, op)
}

func (h *Handler) DeleteOperator(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "operatorID"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid operator ID")
		return
	}
	if err := h.app.DeleteOperator(r.Context(), id); err != nil {
		respondWithDomainError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]string{"message": "Operator deleted successfully"})
}
