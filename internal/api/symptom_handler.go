package api

import (
	"encoding/json"
	"net/http"

	"telemed/internal/entities"
	"telemed/internal/service"
)

type SymptomHandler struct {
	Service *service.SymptomService
}

func NewSymptomHandler(svc *service.SymptomService) *SymptomHandler {
	return &SymptomHandler{Service: svc}
}

func (h *SymptomHandler) Check(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireRole(w, r, "patient"); !ok {
		return
	}
	var req entities.SymptomCheckRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}
	if len(req.Symptoms) == 0 {
		http.Error(w, "At least one symptom is required", http.StatusBadRequest)
		return
	}
	result, err := h.Service.Check(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entities.SymptomCheckResponse{Result: result})
}
