package api

import (
	"encoding/json"
	"net/http"

	"telemed/internal/entities"
	"telemed/internal/service"
)

// SlotHandler exposes the doctor-side availability operations.
type SlotHandler struct {
	Service *service.AllocatorService
}

func NewSlotHandler(svc *service.AllocatorService) *SlotHandler {
	return &SlotHandler{Service: svc}
}

func (h *SlotHandler) CreateSlot(w http.ResponseWriter, r *http.Request) {
	ident, ok := requireRole(w, r, "doctor")
	if !ok {
		return
	}
	var req entities.SlotRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}
	slot, err := h.Service.ProposeWindow(ident.UserID, req.StartTime, req.EndTime)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, entities.SlotResponse{
		ID:        slot.ID,
		DoctorID:  slot.DoctorID,
		StartTime: slot.StartTime,
		EndTime:   slot.EndTime,
		Status:    slot.Status,
	})
}

func (h *SlotHandler) ListSlots(w http.ResponseWriter, r *http.Request) {
	ident, ok := requireRole(w, r, "doctor")
	if !ok {
		return
	}
	slots, err := h.Service.ListSlots(ident.UserID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, slots)
}

func (h *SlotHandler) DeleteSlot(w http.ResponseWriter, r *http.Request) {
	ident, ok := requireRole(w, r, "doctor")
	if !ok {
		return
	}
	slotID, ok := pathID(r, "id")
	if !ok {
		http.Error(w, "Invalid slot id", http.StatusBadRequest)
		return
	}
	if err := h.Service.DeleteWindow(slotID, ident.UserID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Slot deleted"})
}

func (h *SlotHandler) TogglePresence(w http.ResponseWriter, r *http.Request) {
	ident, ok := requireRole(w, r, "doctor")
	if !ok {
		return
	}
	presence, err := h.Service.TogglePresence(ident.UserID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"presence": presence})
}
